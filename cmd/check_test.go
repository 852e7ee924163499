package cmd

import (
	"bufio"
	"bytes"
	"encoding/json"
	"math"
	"os"
	"testing"

	"github.com/andresmejia3/spotter/internal/form"
	"github.com/andresmejia3/spotter/internal/pose"
	"github.com/andresmejia3/spotter/internal/session"
	"github.com/andresmejia3/spotter/internal/types"
)

func TestFmtTime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00"},
		{65, "00:01:05"},
		{3661, "01:01:01"},
	}

	for _, tt := range tests {
		if got := fmtTime(tt.seconds); got != tt.want {
			t.Errorf("fmtTime(%v) = %v, want %v", tt.seconds, got, tt.want)
		}
	}
}

func TestValidateCheckFlags(t *testing.T) {
	// Create a temp file for valid input
	tmpFile, err := os.CreateTemp("", "video.mp4")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmpFile.Name())
	tmpFile.Close()

	// Create a temp dir for invalid input
	tmpDir, err := os.MkdirTemp("", "testdir")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{
			name: "Valid options",
			opts: Options{
				InputPath:  tmpFile.Name(),
				NthFrame:   1,
				NumEngines: 1,
			},
			wantErr: false,
		},
		{
			name: "Input file does not exist",
			opts: Options{
				InputPath: "nonexistent.mp4",
			},
			wantErr: true,
		},
		{
			name: "Input is directory",
			opts: Options{
				InputPath: tmpDir,
			},
			wantErr: true,
		},
		{
			name: "Invalid NthFrame",
			opts: Options{
				InputPath: tmpFile.Name(),
				NthFrame:  0,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := validateCheckFlags(&tt.opts); (err != nil) != tt.wantErr {
				t.Errorf("validateCheckFlags() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	t.Run("Engines clamped to 1", func(t *testing.T) {
		opts := Options{InputPath: tmpFile.Name(), NthFrame: 1, NumEngines: 0}
		if err := validateCheckFlags(&opts); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if opts.NumEngines != 1 {
			t.Errorf("Expected NumEngines clamped to 1, got %d", opts.NumEngines)
		}
	})
}

// standingPose builds a full 33-landmark detector response for a
// person standing upright, left arm mid-curl. Image coordinates,
// y grows downward.
func standingPose() []types.PoseResult {
	joints := map[string][2]float64{
		pose.LeftShoulder:  {0.45, 0.30},
		pose.RightShoulder: {0.55, 0.30},
		pose.LeftElbow:     {0.47, 0.43},
		pose.RightElbow:    {0.56, 0.42},
		pose.LeftWrist:     {0.40, 0.33},
		pose.RightWrist:    {0.57, 0.54},
		pose.LeftHip:       {0.46, 0.55},
		pose.RightHip:      {0.54, 0.55},
		pose.LeftKnee:      {0.46, 0.75},
		pose.RightKnee:     {0.54, 0.75},
	}

	landmarks := make([]types.PoseResult, len(pose.Names))
	for i, name := range pose.Names {
		if p, ok := joints[name]; ok {
			landmarks[i] = types.PoseResult{X: p[0], Y: p[1], Visibility: 0.9}
		} else {
			// Face/hand/foot points the rules never read
			landmarks[i] = types.PoseResult{X: 0.5 + float64(i)*0.001, Y: 0.1, Visibility: 0.9}
		}
	}
	return landmarks
}

// TestProcessResultsOrdering feeds out-of-order worker results through
// the reorder buffer and checks that evaluation and the JSONL report
// happen in strict frame order, with no-pose frames landing in the
// undetected bucket.
func TestProcessResultsOrdering(t *testing.T) {
	ev, err := form.NewEvaluator(form.BicepCurl, form.Left, form.DefaultThresholds())
	if err != nil {
		t.Fatal(err)
	}
	agg := session.New(form.BicepCurl, form.Left)

	results := make(chan poseResult, 4)
	// nth-frame = 2: the consumer expects frames 2, 4, 6. Deliver them
	// out of order, with frame 4 missing its pose entirely.
	results <- poseResult{Index: 4}
	results <- poseResult{Index: 6, Landmarks: standingPose()}
	results <- poseResult{Index: 2, Landmarks: standingPose()}
	close(results)

	var report bytes.Buffer
	processResults(results, ev, agg, &report, 30.0, 2)

	if agg.Total() != 3 {
		t.Fatalf("Expected 3 frames recorded, got %d", agg.Total())
	}
	summary := agg.Finalize()
	if summary.Undetected != 1 {
		t.Errorf("Expected 1 undetected frame, got %d", summary.Undetected)
	}

	// The report must come out in frame order regardless of arrival order
	var frames []int
	scanner := bufio.NewScanner(&report)
	for scanner.Scan() {
		var line struct {
			Frame int     `json:"frame"`
			Time  float64 `json:"time"`
		}
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			t.Fatalf("Malformed report line: %v", err)
		}
		frames = append(frames, line.Frame)
		if want := float64(line.Frame) / 30.0; math.Abs(line.Time-want) > 1e-9 {
			t.Errorf("Frame %d: expected time %v, got %v", line.Frame, want, line.Time)
		}
	}
	if len(frames) != 3 || frames[0] != 2 || frames[1] != 4 || frames[2] != 6 {
		t.Errorf("Expected report order [2 4 6], got %v", frames)
	}
}
