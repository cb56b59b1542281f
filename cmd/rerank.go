package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/affimark/verifier/internal/model"
)

var rerankCmd = &cobra.Command{
	Use:   "rerank <session-id> <mode>",
	Short: "Re-sort a session's cached alternatives under a new rank mode",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		resp, err := env.Orchestrator.Rerank(cmd.Context(), args[0], model.RankMode(args[1]))
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
	rootCmd.AddCommand(rerankCmd)
}
