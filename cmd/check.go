package cmd

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/mitchellh/colorstring"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/andresmejia3/spotter/internal/form"
	"github.com/andresmejia3/spotter/internal/pose"
	"github.com/andresmejia3/spotter/internal/session"
	"github.com/andresmejia3/spotter/internal/types"
	"github.com/andresmejia3/spotter/internal/utils"
	"github.com/andresmejia3/spotter/internal/worker"
)

const megabyte = 1024 * 1024

var checkOpts Options

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate exercise form frame by frame across a video clip",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runCheck(cmd.Context(), checkOpts)
	},
}

func init() {
	checkCmd.Flags().StringVarP(&checkOpts.InputPath, "input", "i", "", "Path to video")
	checkCmd.Flags().StringVarP(&checkOpts.Exercise, "exercise", "x", "", "Exercise to evaluate (bicep_curl, lateral_raise)")
	checkCmd.Flags().StringVarP(&checkOpts.Side, "side", "s", "left", "Tracked side (left, right)")
	checkCmd.Flags().IntVarP(&checkOpts.NthFrame, "nth-frame", "n", 1, "Evaluate every nth frame")
	checkCmd.Flags().IntVarP(&checkOpts.NumEngines, "engines", "e", 1, "Number of parallel pose workers")
	checkCmd.Flags().StringVar(&checkOpts.ThresholdsPath, "thresholds", "", "JSON file with threshold overrides")
	checkCmd.Flags().StringVar(&checkOpts.ReportPath, "report", "", "Write per-frame reports as JSONL to this path")
	checkCmd.Flags().StringVar(&checkOpts.WorkerScript, "worker-script", worker.DefaultScript, "Path to the pose detector script")

	checkCmd.MarkFlagRequired("input")
	checkCmd.MarkFlagRequired("exercise")
	rootCmd.AddCommand(checkCmd)
}

// Buffer pool to reduce GC pressure while streaming frames
var frameBufferPool = sync.Pool{
	New: func() interface{} { return make([]byte, 0, megabyte) },
}

// runCheck orchestrates the full pipeline: flag validation, evaluator
// construction, FFmpeg streaming, the pose worker pool, ordered
// evaluation + aggregation, and the final report.
func runCheck(ctx context.Context, opts Options) error {
	if err := validateCheckFlags(&opts); err != nil {
		utils.ShowError("Invalid arguments", err, nil)
		return err
	}

	// Configuration errors are the only fatal class, and they fire
	// here, before any frame is touched.
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

	videoID, err := utils.GenerateVideoID(opts.InputPath)
	if err != nil {
		utils.ShowError("Failed to generate video ID", err, nil)
		return err
	}
	if DB != nil {
		if err := DB.EnsureVideoMetadata(ctx, videoID, opts.InputPath); err != nil {
			utils.ShowError("Failed to register video metadata", err, nil)
			return err
		}
	}

	fps, err := utils.GetVideoFPS(opts.InputPath)
	if err != nil {
		utils.ShowError("Failed to determine video FPS", err, nil)
		return err
	}

	var reportFile *os.File
	if opts.ReportPath != "" {
		reportFile, err = os.Create(opts.ReportPath)
		if err != nil {
			utils.ShowError("Failed to create report file", err, nil)
			return err
		}
		defer reportFile.Close()
	}

	fmt.Fprintf(os.Stderr, "📼 Processing Video ID: %s\n", videoID[:12])
	fmt.Fprintf(os.Stderr, "🏋️  Exercise: %s (%s side)\n", ev.Exercise(), ev.Side())
	fmt.Fprintf(os.Stderr, "⚙️  Spawning %d Pose Workers...\n", opts.NumEngines)

	totalVideoFrames := utils.GetTotalFrames(opts.InputPath)
	if totalVideoFrames <= 0 {
		// Fallback to a spinner if ffprobe can't count
		totalVideoFrames = -1
	}

	bar := progressbar.NewOptions(totalVideoFrames,
		progressbar.OptionSetDescription("🔍 Spotter Checking"),
		progressbar.OptionSetWriter(os.Stderr), // Write bar to Stderr
		progressbar.OptionShowCount(),
	)

	taskChan := make(chan types.FrameTask, opts.NumEngines)
	resultsChan := make(chan poseResult, opts.NumEngines*2)
	var wg sync.WaitGroup

	agg := session.New(ev.Exercise(), ev.Side())

	// Start Aggregator (Consumer)
	// Must run concurrently to prevent deadlock on resultsChan
	aggDone := make(chan struct{})
	go func() {
		var reportW io.Writer
		if reportFile != nil {
			reportW = reportFile
		}
		processResults(resultsChan, ev, agg, reportW, fps, opts.NthFrame)
		close(aggDone)
	}()

	// Spawn the worker pool
	for i := 0; i < opts.NumEngines; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			startWorker(workerID, opts.WorkerScript, taskChan, resultsChan)
		}(i)
	}

	// Start FFmpeg
	ffmpeg := utils.NewFFmpegCmd(opts.InputPath)

	var stderrBuf bytes.Buffer
	ffmpeg.Stderr = &stderrBuf

	ffmpegOut, err := ffmpeg.StdoutPipe()
	if err != nil {
		utils.Die("Failed to create FFmpeg stdout pipe", err, nil)
	}
	defer ffmpegOut.Close() // Ensure pipe is closed to prevent leaks/zombies

	if err := ffmpeg.Start(); err != nil {
		utils.Die("Failed to start FFmpeg", err, nil)
	}

	// Frame splitter & nth-frame selection
	scanner := bufio.NewScanner(ffmpegOut)
	scanner.Buffer(make([]byte, megabyte), 64*megabyte)
	scanner.Split(utils.SplitJpeg)

	totalFrames := 0
	sentFrames := 0
	for scanner.Scan() {
		totalFrames++
		bar.Add(1) // Update progress bar for every frame read

		if totalFrames%opts.NthFrame == 0 {
			// Get buffer from pool
			buf := frameBufferPool.Get().([]byte)
			if cap(buf) < len(scanner.Bytes()) {
				buf = make([]byte, len(scanner.Bytes()))
			}
			buf = buf[:len(scanner.Bytes())]
			copy(buf, scanner.Bytes())
			taskChan <- types.FrameTask{Index: totalFrames, Data: buf}
			sentFrames++
		}
	}

	// Check for scanner errors (e.g. token too long, unexpected EOF)
	if err := scanner.Err(); err != nil {
		utils.Die("Frame scanner failed", err, nil)
	}

	if err := ffmpeg.Wait(); err != nil {
		if stderrBuf.Len() > 0 {
			fmt.Fprintf(os.Stderr, "\nFFmpeg Logs:\n%s\n", stderrBuf.String())
		}
		utils.Die("FFmpeg execution failed", err, nil)
	}

	close(taskChan)
	wg.Wait()
	close(resultsChan)

	// Wait for the aggregator to drain the reorder buffer
	<-aggDone

	bar.Finish()
	fmt.Fprintf(os.Stderr, "\n🏁 Check Complete. Evaluated %d of %d frames (%s of video).\n",
		sentFrames, totalFrames, fmtTime(float64(totalFrames)/fps))

	summary := agg.Finalize()
	printSummary(summary)

	if DB != nil {
		sessionID, err := DB.SaveSession(ctx, videoID, summary)
		if err != nil {
			utils.ShowError("Failed to persist session", err, nil)
			return err
		}
		fmt.Fprintf(os.Stderr, "💾 Session saved: %s\n", sessionID)
	}
	return nil
}

// poseResult carries one frame's detection from a worker to the aggregator
type poseResult struct {
	Index     int
	Landmarks []types.PoseResult
}

// startWorker manages the lifecycle of a single pose worker process.
// It reads tasks from the channel, sends them to the detector, and
// forwards decoded landmarks to the aggregator.
func startWorker(id int, script string, tasks <-chan types.FrameTask, results chan<- poseResult) {
	w, err := worker.NewPoseWorker(id, script)
	if err != nil {
		utils.Die("Worker startup failed", err, nil)
	}
	defer w.Close()

	for task := range tasks {
		landmarks, err := w.ProcessFrame(task.Data)

		// Return buffer to pool immediately after sending
		frameBufferPool.Put(task.Data)

		if err != nil {
			if errors.Is(err, worker.ErrDetector) {
				// Detector-side failure on one frame: skip it, keep the worker
				log.Warn().Int("worker", id).Int("frame", task.Index).Err(err).Msg("detector failed on frame")
				results <- poseResult{Index: task.Index}
				continue
			}
			// DRAIN: Wait for process to exit and capture final stderr logs
			w.Close()
			utils.Die("Pose worker crashed", err, w.Cmd)
		}

		results <- poseResult{Index: task.Index, Landmarks: landmarks}
	}
}

// reportLine is one JSONL record for the external annotation consumer.
type reportLine struct {
	form.FrameReport
	Time float64 `json:"time"`
}

// processResults evaluates detections in strict frame order and feeds
// the aggregator. Workers finish out of order, so results are buffered
// until the next expected frame arrives.
func processResults(results <-chan poseResult, ev *form.Evaluator, agg *session.Aggregator, reportW io.Writer, fps float64, nthFrame int) {
	buffer := make(map[int]poseResult)
	nextFrame := nthFrame // The first task the splitter sends is frame nthFrame

	var enc *json.Encoder
	if reportW != nil {
		enc = json.NewEncoder(reportW)
	}

	for res := range results {
		buffer[res.Index] = res

		// Process frames in strict order
		for {
			frame, ok := buffer[nextFrame]
			if !ok {
				break
			}
			delete(buffer, nextFrame)

			set := pose.FromDetection(frame.Landmarks)
			report := ev.Evaluate(frame.Index, set)
			agg.Record(report)

			if enc != nil {
				line := reportLine{FrameReport: report, Time: float64(frame.Index) / fps}
				if err := enc.Encode(line); err != nil {
					log.Warn().Err(err).Msg("failed to write report line")
					enc = nil
				}
			}

			nextFrame += nthFrame
		}
	}
}

// printSummary renders the per-rule table and clip totals.
func printSummary(s session.Summary) {
	fmt.Fprintf(os.Stderr, "\n---------------------------------------------------------\n")
	fmt.Fprintf(os.Stderr, "📊 FORM SUMMARY — %s (%s side)\n", s.Exercise, s.Side)
	fmt.Fprintf(os.Stderr, "---------------------------------------------------------\n")

	w := tabwriter.NewWriter(os.Stderr, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "RULE\tPASS\tFAIL\tUNKNOWN\tPASS RATE\tMEAN\tSTD")
	fmt.Fprintln(w, "----\t----\t----\t-------\t---------\t----\t---")
	for _, rule := range s.RuleOrder {
		c := s.Rules[rule]
		m := s.Metrics[rule]
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%.1f\t%.1f\n",
			rule, c.Pass, c.Fail, c.Unknown, fmtRate(c.PassRate()), m.Mean, m.Std)
	}
	w.Flush()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "🎞️  Frames:            %d (%d undetected)\n", s.Total, s.Undetected)
	fmt.Fprintf(os.Stderr, "❓ Unknown frames:    %.0f%%\n", s.UnknownRate()*100)
	fmt.Fprintf(os.Stderr, "🏆 Clip pass rate:    %s\n", fmtRate(s.ClipPassRate()))

	if s.Total > 0 && s.Failed == 0 && s.Undetected == 0 {
		fmt.Fprintln(os.Stderr, colorstring.Color("[green]💪 Good form!"))
	}
}

// fmtRate colors a rate green/yellow/red for colorstring rendering.
func fmtRate(rate float64) string {
	pct := rate * 100
	switch {
	case pct >= 90:
		return colorstring.Color(fmt.Sprintf("[green]%.0f%%", pct))
	case pct >= 60:
		return colorstring.Color(fmt.Sprintf("[yellow]%.0f%%", pct))
	default:
		return colorstring.Color(fmt.Sprintf("[red]%.0f%%", pct))
	}
}

// validateCheckFlags ensures all CLI arguments are valid before starting heavy processes.
func validateCheckFlags(opts *Options) error {
	info, err := os.Stat(opts.InputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input file does not exist: %s", opts.InputPath)
		}
		return fmt.Errorf("unable to access input file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("input path is a directory, expected a video file: %s", opts.InputPath)
	}
	if opts.NthFrame < 1 {
		return fmt.Errorf("nth-frame must be >= 1, got %d", opts.NthFrame)
	}
	if opts.NumEngines < 1 {
		opts.NumEngines = 1
	}
	return nil
}

func fmtTime(seconds float64) string {
	duration := time.Duration(seconds * float64(time.Second))
	h := int(duration.Hours())
	m := int(duration.Minutes()) % 60
	s := int(duration.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
