package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var watchlistProgram string

var watchlistCmd = &cobra.Command{
	Use:   "watchlist <session-id>",
	Short: "Archive a session and record the program to watch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if err := env.Orchestrator.Watchlist(cmd.Context(), args[0], watchlistProgram); err != nil {
			return err
		}

		fmt.Printf("session %s archived\n", args[0])
		return nil
	},
}

func init() {
	watchlistCmd.Flags().StringVar(&watchlistProgram, "program", "", "candidate program ID to watch (default: the base product)")
	rootCmd.AddCommand(watchlistCmd)
}
