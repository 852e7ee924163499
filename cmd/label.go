package cmd

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/andresmejia3/spotter/internal/utils"
)

var labelCmd = &cobra.Command{
	Use:   "label <session_id> <athlete>",
	Short: "Tag a saved session with an athlete name",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		if err := requireDB(); err != nil {
			return err
		}

		id, err := uuid.Parse(args[0])
		if err != nil {
			utils.ShowError("Invalid session ID", err, nil)
			return err
		}

		if err := DB.LabelSession(cmd.Context(), id, args[1]); err != nil {
			utils.ShowError("Failed to label session", err, nil)
			return err
		}

		fmt.Printf("✅ Session %s labeled as '%s'\n", id, args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(labelCmd)
}
