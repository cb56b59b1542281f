package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/affimark/verifier/internal/model"
)

var (
	analyzeMode     string
	analyzeClicks   float64
	analyzeAffinity []string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <product-url>",
	Short: "Run the full analysis pipeline for a product URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		userCtx := model.UserContext{
			AffinityCategories: analyzeAffinity,
			ModeOverride:       model.RankMode(analyzeMode),
		}
		if analyzeClicks > 0 {
			userCtx.MonthlyClicks = &analyzeClicks
		}

		resp, err := env.Orchestrator.Analyze(cmd.Context(), args[0], userCtx)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeMode, "mode", "", "rank mode override (standard, demand_first, trust_first, economics_first)")
	analyzeCmd.Flags().Float64Var(&analyzeClicks, "clicks", 0, "assumed monthly click volume")
	analyzeCmd.Flags().StringSliceVar(&analyzeAffinity, "affinity", nil, "user affinity categories")
	rootCmd.AddCommand(analyzeCmd)
}
