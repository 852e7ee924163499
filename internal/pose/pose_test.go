package pose

import (
	"math"
	"testing"

	"github.com/andresmejia3/spotter/internal/types"
)

func TestFromDetection(t *testing.T) {
	points := make([]types.PoseResult, len(Names))
	for i := range points {
		points[i] = types.PoseResult{
			X:          float64(i) * 0.01,
			Y:          float64(i) * 0.02,
			Z:          -0.1,
			Visibility: 0.9,
		}
	}

	set := FromDetection(points)
	if len(set) != len(Names) {
		t.Fatalf("Expected %d landmarks, got %d", len(Names), len(set))
	}

	// left_shoulder is index 11 in the detector's vocabulary
	lm, ok := set.Get(LeftShoulder)
	if !ok {
		t.Fatal("left_shoulder missing from converted set")
	}
	if math.Abs(lm.X-0.11) > 1e-9 {
		t.Errorf("Expected left_shoulder X 0.11, got %f", lm.X)
	}
	// Detector y grows downward; the core works y-up
	if math.Abs(lm.Y-(-0.22)) > 1e-9 {
		t.Errorf("Expected left_shoulder Y -0.22 (negated), got %f", lm.Y)
	}
	if lm.Visibility != 0.9 {
		t.Errorf("Expected visibility 0.9, got %f", lm.Visibility)
	}
}

func TestFromDetectionIncomplete(t *testing.T) {
	// Anything but a full response is treated as no detection
	if set := FromDetection(nil); set != nil {
		t.Errorf("Expected nil set for nil input, got %v", set)
	}
	if set := FromDetection(make([]types.PoseResult, 5)); set != nil {
		t.Errorf("Expected nil set for partial input, got %d landmarks", len(set))
	}
}

func TestMid(t *testing.T) {
	set := Set{
		LeftShoulder:  {X: 0.0, Y: 1.0, Visibility: 0.9},
		RightShoulder: {X: 1.0, Y: 0.0, Visibility: 0.4},
	}

	mid, ok := set.Mid(LeftShoulder, RightShoulder)
	if !ok {
		t.Fatal("Mid reported missing joints")
	}
	if mid.X != 0.5 || mid.Y != 0.5 {
		t.Errorf("Expected midpoint (0.5, 0.5), got (%f, %f)", mid.X, mid.Y)
	}
	// Midpoint inherits the weaker visibility
	if mid.Visibility != 0.4 {
		t.Errorf("Expected visibility 0.4, got %f", mid.Visibility)
	}

	if _, ok := set.Mid(LeftShoulder, LeftHip); ok {
		t.Error("Expected Mid to fail when a joint is absent")
	}
}

func TestHasAndMissing(t *testing.T) {
	set := Set{
		LeftShoulder: {},
		LeftElbow:    {},
	}

	if !set.Has(LeftShoulder, LeftElbow) {
		t.Error("Has returned false for present joints")
	}
	if set.Has(LeftShoulder, LeftWrist) {
		t.Error("Has returned true despite an absent joint")
	}

	missing := set.Missing(LeftShoulder, LeftWrist, LeftHip)
	if len(missing) != 2 || missing[0] != LeftWrist || missing[1] != LeftHip {
		t.Errorf("Expected [left_wrist left_hip], got %v", missing)
	}
}
