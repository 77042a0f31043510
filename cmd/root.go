package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/impactorviz/impactor-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "impactor",
	Short: "Asteroid impact and population exposure estimator",
	Long:  "Estimates crater, blast, and thermal radii for asteroid impacts, counts the population inside each zone from gridded census rasters, and simulates deflection scenarios.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
