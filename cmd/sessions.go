package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/andresmejia3/spotter/internal/utils"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions [session_id]",
	Short: "List saved sessions, or show one session's rule breakdown",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		if err := requireDB(); err != nil {
			return err
		}
		if len(args) == 1 {
			return runSessionRules(cmd, args[0])
		}
		return runSessions(cmd)
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

func runSessions(cmd *cobra.Command) error {
	sessions, err := DB.ListSessions(cmd.Context())
	if err != nil {
		utils.ShowError("Failed to list sessions", err, nil)
		return err
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions saved yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tVIDEO\tEXERCISE\tSIDE\tATHLETE\tFRAMES\tPASS RATE\tCREATED")
	fmt.Fprintln(w, "--\t-----\t--------\t----\t-------\t------\t---------\t-------")

	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%.0f%%\t%s\n",
			s.ID, filepath.Base(s.VideoPath), s.Exercise, s.Side, s.Athlete,
			s.Total, s.PassRate*100, s.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runSessionRules(cmd *cobra.Command, rawID string) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		utils.ShowError("Invalid session ID", err, nil)
		return err
	}

	rules, err := DB.SessionRules(cmd.Context(), id)
	if err != nil {
		utils.ShowError("Failed to load session rules", err, nil)
		return err
	}

	if len(rules) == 0 {
		fmt.Println("No rule stats for that session.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "RULE\tPASS\tFAIL\tUNKNOWN\tMEAN\tSTD")
	fmt.Fprintln(w, "----\t----\t----\t-------\t----\t---")
	for _, r := range rules {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.1f\t%.1f\n",
			r.Rule, r.Passes, r.Fails, r.Unknowns, r.MeanValue, r.StdValue)
	}
	return w.Flush()
}
