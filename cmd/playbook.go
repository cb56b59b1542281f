package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var playbookProgram string

var playbookCmd = &cobra.Command{
	Use:   "playbook <session-id>",
	Short: "Generate the action playbook for a session",
	Long:  "Builds the structured action plan for the analyzed product, or for one ranked alternative when --program is given.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		playbook, err := env.Orchestrator.BuildPlaybook(cmd.Context(), args[0], playbookProgram)
		if err != nil {
			return err
		}

		out, err := json.MarshalIndent(playbook, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	playbookCmd.Flags().StringVar(&playbookProgram, "program", "", "candidate program ID (default: the base product)")
	rootCmd.AddCommand(playbookCmd)
}
