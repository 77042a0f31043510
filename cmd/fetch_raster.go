package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/impactorviz/impactor-cli/internal/fetcher"
)

var (
	fetchURL string
	fetchDir string
)

var fetchRasterCmd = &cobra.Command{
	Use:   "fetch-raster",
	Short: "Download a population raster",
	Long:  "Downloads a gridded population file over HTTP or FTP, extracting it when the mirror serves a zip archive. WorldPop per-country grids work as-is.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		url := fetchURL
		if url == "" {
			url = cfg.Fetch.URL
		}
		dir := fetchDir
		if dir == "" {
			dir = cfg.Fetch.Dir
		}
		if url == "" {
			if err := cfg.Validate("fetch"); err != nil {
				return err
			}
		}

		path, err := fetcher.FetchRaster(cmd.Context(), url, dir, fetcher.Options{
			Timeout: time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
			Retries: cfg.Fetch.Retries,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stdout, "Raster ready at %s\n", path)
		fmt.Fprintln(os.Stdout, "Set raster.path in config.yaml (or IMPACTOR_RASTER_PATH) to use it.")
		return nil
	},
}

func init() {
	fetchRasterCmd.Flags().StringVar(&fetchURL, "url", "", "raster URL (default from config)")
	fetchRasterCmd.Flags().StringVar(&fetchDir, "dir", "", "destination directory (default from config)")
	rootCmd.AddCommand(fetchRasterCmd)
}
