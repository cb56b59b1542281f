package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/affimark/verifier/internal/model"
	"github.com/affimark/verifier/internal/store"
)

var (
	sessionsStatus string
	sessionsURL    string
	sessionsLimit  int
	sessionsJSON   bool
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions [session-id]",
	Short: "List sessions or show one session in full",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initPipeline(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		if len(args) == 1 {
			sess, err := env.Store.GetSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(sess, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		sessions, err := env.Store.ListSessions(cmd.Context(), store.SessionFilter{
			Status: model.SessionStatus(sessionsStatus),
			URL:    sessionsURL,
			Limit:  sessionsLimit,
		})
		if err != nil {
			return err
		}

		if sessionsJSON {
			out, err := json.MarshalIndent(sessions, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tSTATUS\tURL\tVERDICT\tCREATED")
		for _, s := range sessions {
			verdict := "-"
			if s.Snapshot != nil {
				verdict = string(s.Snapshot.Verdict.Status)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				s.ID, s.Status, s.NormalizedURL, verdict, s.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

func init() {
	sessionsCmd.Flags().StringVar(&sessionsStatus, "status", "", "filter by session status")
	sessionsCmd.Flags().StringVar(&sessionsURL, "url", "", "filter by normalized product URL")
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 50, "maximum sessions to list")
	sessionsCmd.Flags().BoolVar(&sessionsJSON, "json", false, "emit JSON instead of a table")
	rootCmd.AddCommand(sessionsCmd)
}
