package form

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultThresholdsValid(t *testing.T) {
	if err := DefaultThresholds().Validate(); err != nil {
		t.Fatalf("Stock thresholds failed validation: %v", err)
	}
}

func TestLoadThresholdsMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.json")
	overrides := []byte(`{"elbow_angle_max": 170, "level_tolerance": 5}`)
	if err := os.WriteFile(path, overrides, 0644); err != nil {
		t.Fatal(err)
	}

	got, err := LoadThresholds(path)
	if err != nil {
		t.Fatalf("LoadThresholds failed: %v", err)
	}
	if got.ElbowAngleMax != 170 {
		t.Errorf("ElbowAngleMax = %v, want overridden 170", got.ElbowAngleMax)
	}
	if got.LevelTolerance != 5 {
		t.Errorf("LevelTolerance = %v, want overridden 5", got.LevelTolerance)
	}
	// Untouched fields keep their stock values
	if got.ElbowAngleMin != 30 {
		t.Errorf("ElbowAngleMin = %v, want default 30", got.ElbowAngleMin)
	}
	if got.MinVisibility != 0.5 {
		t.Errorf("MinVisibility = %v, want default 0.5", got.MinVisibility)
	}
}

func TestLoadThresholdsRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thresholds.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadThresholds(path); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig for malformed JSON, got %v", err)
	}
}

func TestLoadThresholdsMissingFile(t *testing.T) {
	if _, err := LoadThresholds(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("Expected an error for a missing thresholds file")
	}
}

func TestValidateRejectsBadLimits(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Thresholds)
	}{
		{
			name:   "Visibility above one",
			mutate: func(t *Thresholds) { t.MinVisibility = 1.5 },
		},
		{
			name:   "Inverted elbow window",
			mutate: func(t *Thresholds) { t.ElbowAngleMin = 170 },
		},
		{
			name:   "Bend window past 180",
			mutate: func(t *Thresholds) { t.ElbowBendMax = 200 },
		},
		{
			name:   "Zero drift limit",
			mutate: func(t *Thresholds) { t.ElbowDriftMax = 0 },
		},
		{
			name:   "Negative level tolerance",
			mutate: func(t *Thresholds) { t.LevelTolerance = -1 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			th := DefaultThresholds()
			tt.mutate(&th)
			if err := th.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestThresholdsRejectedByEvaluator(t *testing.T) {
	th := DefaultThresholds()
	th.MinVisibility = 2.0

	if _, err := NewEvaluator(BicepCurl, Left, th); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewEvaluator accepted invalid thresholds: %v", err)
	}
}
