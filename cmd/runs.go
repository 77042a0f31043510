package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/impactorviz/impactor-cli/internal/export"
	"github.com/impactorviz/impactor-cli/internal/model"
	"github.com/impactorviz/impactor-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect scenario run history",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scenario runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("runs"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		status, _ := cmd.Flags().GetString("status")
		name, _ := cmd.Flags().GetString("name")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status: model.RunStatus(status),
			Name:   name,
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("runs"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	},
}

// -- runs export --

var runsExportOut string

var runsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export runs to an XLSX report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("runs"); err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return err
		}

		status, _ := cmd.Flags().GetString("status")
		name, _ := cmd.Flags().GetString("name")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Status: model.RunStatus(status),
			Name:   name,
		})
		if err != nil {
			return eris.Wrap(err, "runs export")
		}

		if err := export.WriteRunReport(runsExportOut, runs); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Wrote %d runs to %s\n", len(runs), runsExportOut)
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("status", "", "filter by status (queued, running, complete, failed)")
	runsListCmd.Flags().String("name", "", "filter by scenario name")
	runsListCmd.Flags().Int("limit", 50, "maximum runs to list")

	runsExportCmd.Flags().String("status", "", "filter by status")
	runsExportCmd.Flags().String("name", "", "filter by scenario name")
	runsExportCmd.Flags().StringVar(&runsExportOut, "out", "runs.xlsx", "report path")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	runsCmd.AddCommand(runsExportCmd)
	rootCmd.AddCommand(runsCmd)
}
