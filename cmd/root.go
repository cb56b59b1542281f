package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/affimark/verifier/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "verifier",
	Short: "Affiliate product evaluation pipeline",
	Long:  "Scrapes product listings, scores them across viability, merchant trust, and economics, and recommends ranked affiliate program alternatives.",
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
