package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/mitchellh/colorstring"
	"github.com/spf13/cobra"

	"github.com/andresmejia3/spotter/internal/form"
	"github.com/andresmejia3/spotter/internal/pose"
	"github.com/andresmejia3/spotter/internal/utils"
	"github.com/andresmejia3/spotter/internal/worker"
)

var inspectOpts Options

var inspectCmd = &cobra.Command{
	Use:   "inspect <image_path>",
	Short: "Evaluate form on a single image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runInspect(args[0], inspectOpts)
	},
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectOpts.Exercise, "exercise", "x", "", "Exercise to evaluate (bicep_curl, lateral_raise)")
	inspectCmd.Flags().StringVarP(&inspectOpts.Side, "side", "s", "left", "Tracked side (left, right)")
	inspectCmd.Flags().StringVar(&inspectOpts.ThresholdsPath, "thresholds", "", "JSON file with threshold overrides")
	inspectCmd.Flags().StringVar(&inspectOpts.WorkerScript, "worker-script", worker.DefaultScript, "Path to the pose detector script")
	inspectCmd.MarkFlagRequired("exercise")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(imagePath string, opts Options) error {
	if _, err := os.Stat(imagePath); os.IsNotExist(err) {
		utils.ShowError("Input file does not exist", err, nil)
		return err
	}

	thresholds := form.DefaultThresholds()
	if opts.ThresholdsPath != "" {
		var err error
		thresholds, err = form.LoadThresholds(opts.ThresholdsPath)
		if err != nil {
			utils.ShowError("Invalid thresholds", err, nil)
			return err
		}
	}
	ev, err := form.NewEvaluator(form.Exercise(opts.Exercise), form.Side(opts.Side), thresholds)
	if err != nil {
		utils.ShowError("Invalid configuration", err, nil)
		return err
	}

	imgData, err := os.ReadFile(imagePath)
	if err != nil {
		utils.ShowError("Failed to read image file", err, nil)
		return err
	}

	fmt.Fprintln(os.Stderr, "🚀 Starting pose detector...")
	// We use ID 0 for this ad-hoc worker
	w, err := worker.NewPoseWorker(0, opts.WorkerScript)
	if err != nil {
		utils.ShowError("Failed to start pose worker", err, nil)
		return err
	}
	defer w.Close()

	fmt.Fprintln(os.Stderr, "🔍 Detecting pose...")
	landmarks, err := w.ProcessFrame(imgData)
	if err != nil {
		utils.ShowError("Pose detection failed", err, w.Cmd)
		return err
	}

	set := pose.FromDetection(landmarks)
	report := ev.Evaluate(0, set)

	if report.Status == form.Undetected {
		fmt.Println("❌ No usable pose detected in the provided image.")
		if len(report.Missing) > 0 {
			fmt.Printf("Missing joints: %v\n", report.Missing)
		}
		return nil
	}

	wOut := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(wOut, "RULE\tSTATUS\tVALUE\tFEEDBACK")
	fmt.Fprintln(wOut, "----\t------\t-----\t--------")
	for _, v := range report.Verdicts {
		fmt.Fprintf(wOut, "%s\t%s\t%.1f\t%s\n", v.Rule, statusBadge(v.Status), v.Value, v.Message)
	}
	wOut.Flush()

	fmt.Printf("\nOverall: %s\n", statusBadge(report.Status))
	return nil
}

// statusBadge renders a verdict status with its emoji and color.
func statusBadge(s form.Status) string {
	switch s {
	case form.Pass:
		return colorstring.Color("[green]✅ pass")
	case form.Fail:
		return colorstring.Color("[red]❌ fail")
	case form.Unknown:
		return colorstring.Color("[yellow]❓ unknown")
	default:
		return colorstring.Color("[dark_gray]🚫 undetected")
	}
}
