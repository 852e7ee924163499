// Package worker manages the external Python pose-detector
// subprocess and the pipe protocol it speaks: length-prefixed frames
// in over stdin, length-prefixed JSON landmark arrays back over a
// dedicated FD-3 data pipe.
package worker

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/andresmejia3/spotter/internal/types"
	"github.com/andresmejia3/spotter/internal/utils" // Using the SafeCommand wrapper
)

// ErrDetector marks a failure reported by the detector itself (an
// {"error": ...} response). The subprocess and pipes are still alive,
// so callers may skip the frame and continue.
var ErrDetector = errors.New("detector error")

// DefaultScript is the detector entry point relative to the working
// directory, overridable per command via --worker-script.
const DefaultScript = "python/pose_worker.py"

type PoseWorker struct {
	ID       int
	Cmd      *utils.SafeCommand
	Stdin    io.WriteCloser
	DataPipe io.ReadCloser
}

func NewPoseWorker(id int, script string) (*PoseWorker, error) {
	if script == "" {
		script = DefaultScript
	}

	// 1. Initialize the SafeCommand we built
	py := utils.NewSafeCommand("python3", "-u", script)

	// Create a side-channel pipe (FD 3) for clean data transfer
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create pipe: %w", err)
	}
	// Pass the write-end to the child process. It will appear as FD 3.
	py.Cmd.ExtraFiles = []*os.File{w}

	stdin, err := py.StdinPipe()
	if err != nil {
		w.Close() // Prevent FD leak
		r.Close() // Close read-end too!
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	if err := py.Start(); err != nil {
		w.Close() // Close write end if start fails
		r.Close() // Close read-end too!
		return nil, fmt.Errorf("worker %d failed to start: %w", id, err)
	}

	// Close the write-end in the parent so only the child holds it
	w.Close()

	log.Debug().Int("worker", id).Str("script", script).Msg("pose worker started")

	return &PoseWorker{
		ID:       id,
		Cmd:      py,
		Stdin:    stdin,
		DataPipe: r,
	}, nil
}

// Communicate performs one raw round-trip: [Length][Data] out,
// [Length][Data] back.
func (w *PoseWorker) Communicate(data []byte) ([]byte, error) {
	if err := binary.Write(w.Stdin, binary.BigEndian, uint32(len(data))); err != nil {
		return nil, err
	}
	if _, err := w.Stdin.Write(data); err != nil {
		return nil, err
	}

	// Read Result
	// Now we read from our clean DataPipe, so no Magic Byte is needed.
	header := make([]byte, 4)
	if _, err := io.ReadFull(w.DataPipe, header); err != nil {
		return nil, err // This is where we catch the "ModuleNotFoundError" crash
	}

	respLen := binary.BigEndian.Uint32(header)
	respBody := make([]byte, respLen)
	_, err := io.ReadFull(w.DataPipe, respBody)
	return respBody, err
}

// ProcessFrame sends one JPEG frame to the detector and decodes the
// response. A nil slice with a nil error means no person was detected
// in the frame. A detector-side failure ({"error": ...}) or a
// malformed payload comes back as an error; the pipes stay usable for
// the next frame.
func (w *PoseWorker) ProcessFrame(frame []byte) ([]types.PoseResult, error) {
	resp, err := w.Communicate(frame)
	if err != nil {
		return nil, err
	}

	var landmarks []types.PoseResult
	if err := json.Unmarshal(resp, &landmarks); err != nil {
		// Check if it's a Python error object (e.g. {"error": "..."})
		var errorResult types.ErrorResult
		if json.Unmarshal(resp, &errorResult) == nil && errorResult.Error != "" {
			return nil, fmt.Errorf("%w: %s", ErrDetector, errorResult.Error)
		}
		return nil, fmt.Errorf("worker %d sent malformed JSON: %w", w.ID, err)
	}

	if len(landmarks) == 0 {
		return nil, nil
	}
	return landmarks, nil
}

func (w *PoseWorker) Close() {
	w.Stdin.Close()
	w.DataPipe.Close()
	w.Cmd.Wait()
}
