package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/andresmejia3/spotter/internal/form"
)

var rulesOpts Options

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the active rule table for an exercise and side",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runRules(rulesOpts)
	},
}

func init() {
	rulesCmd.Flags().StringVarP(&rulesOpts.Exercise, "exercise", "x", string(form.BicepCurl), "Exercise (bicep_curl, lateral_raise)")
	rulesCmd.Flags().StringVarP(&rulesOpts.Side, "side", "s", "left", "Tracked side (left, right)")
	rootCmd.AddCommand(rulesCmd)
}

func runRules(opts Options) error {
	ev, err := form.NewEvaluator(form.Exercise(opts.Exercise), form.Side(opts.Side), form.DefaultThresholds())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "RULE\tJOINTS\tCHECK")
	fmt.Fprintln(w, "----\t------\t-----")
	for _, r := range ev.Rules() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.Name, strings.Join(r.Joints, ", "), r.Doc)
	}
	w.Flush()

	return nil
}
