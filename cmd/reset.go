package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andresmejia3/spotter/internal/utils"
)

var (
	resetDB      bool
	resetReports bool
	resetDebug   bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset system state (Database, Reports, Debug Frames)",
	Long:  "Clears all data. By default, it resets everything. Use flags to clear specific components.",
	Run: func(cmd *cobra.Command, args []string) {
		// If no flags are set, default to clearing EVERYTHING
		if !resetDB && !resetReports && !resetDebug {
			resetDB = true
			resetReports = true
			resetDebug = true
		}

		reader := bufio.NewReader(os.Stdin)

		if resetDB {
			if DB == nil {
				fmt.Fprintln(os.Stderr, "⚠️  No database configured, skipping database reset.")
			} else if confirm(reader, "⚠️  Are you sure you want to DROP all session tables?") {
				fmt.Println("🗑️  Clearing Database...")
				if err := DB.Reset(cmd.Context()); err != nil {
					utils.Die("Failed to reset database", err, nil)
				}
			}
		}

		if resetReports {
			if confirm(reader, "⚠️  Are you sure you want to delete all exported reports?") {
				fmt.Println("🗑️  Clearing Reports...")
				removeDir("reports")
			}
		}

		if resetDebug {
			if confirm(reader, "⚠️  Are you sure you want to delete all debug frames?") {
				fmt.Println("🗑️  Clearing Debug Frames...")
				removeDir("debug_frames")
			}
		}

		fmt.Println("✨ System Reset Complete.")
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetDB, "db", false, "Clear PostgreSQL session tables")
	resetCmd.Flags().BoolVar(&resetReports, "reports", false, "Clear exported JSONL reports")
	resetCmd.Flags().BoolVar(&resetDebug, "debug", false, "Clear debug frames")
	rootCmd.AddCommand(resetCmd)
}

func confirm(r *bufio.Reader, prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	res, _ := r.ReadString('\n')
	res = strings.TrimSpace(strings.ToLower(res))
	return res == "y" || res == "yes"
}

func removeDir(path string) {
	if err := os.RemoveAll(path); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Failed to remove %s: %v\n", path, err)
	}
}
