package form

import (
	"encoding/json"
	"fmt"
	"os"
)

// Thresholds holds every tunable limit the rule set reads. Angles are
// in degrees; distances are in normalized image units (fractions of
// the frame, matching the detector's coordinates).
type Thresholds struct {
	// MinVisibility is the detector confidence below which a landmark
	// is unusable for any rule.
	MinVisibility float64 `json:"min_visibility"`

	// Bicep curl
	ElbowAngleMin float64 `json:"elbow_angle_min"`
	ElbowAngleMax float64 `json:"elbow_angle_max"`
	ElbowDriftMax float64 `json:"elbow_drift_max"`

	// Lateral raise
	ArmRaiseAngle     float64 `json:"arm_raise_angle"`
	ArmRaiseTolerance float64 `json:"arm_raise_tolerance"`
	ElbowBendMin      float64 `json:"elbow_bend_min"`
	ElbowBendMax      float64 `json:"elbow_bend_max"`
	ArmReachMin       float64 `json:"arm_reach_min"`

	// Shared posture
	LevelTolerance   float64 `json:"level_tolerance"`
	SpineTolerance   float64 `json:"spine_tolerance"`
	BalanceOffsetMax float64 `json:"balance_offset_max"`
}

// DefaultThresholds returns the stock limits: the classic 30°–160°
// curl window, a soft 140°–175° raise bend, and distance bounds scaled
// to normalized image units.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinVisibility:     0.5,
		ElbowAngleMin:     30,
		ElbowAngleMax:     160,
		ElbowDriftMax:     0.25,
		ArmRaiseAngle:     90,
		ArmRaiseTolerance: 20,
		ElbowBendMin:      140,
		ElbowBendMax:      175,
		ArmReachMin:       0.15,
		LevelTolerance:    10,
		SpineTolerance:    20,
		BalanceOffsetMax:  0.08,
	}
}

// LoadThresholds reads a JSON overrides file and merges it over the
// defaults, so a file only needs the limits it wants to change.
func LoadThresholds(path string) (Thresholds, error) {
	t := DefaultThresholds()

	data, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read thresholds: %w", err)
	}
	if err := json.Unmarshal(data, &t); err != nil {
		return t, fmt.Errorf("%w: parse thresholds %s: %v", ErrInvalidConfig, path, err)
	}
	return t, t.Validate()
}

// Validate rejects limits that would make rules vacuous or undefined.
func (t Thresholds) Validate() error {
	if t.MinVisibility < 0 || t.MinVisibility > 1 {
		return fmt.Errorf("%w: min_visibility must be in [0,1], got %v", ErrInvalidConfig, t.MinVisibility)
	}
	if t.ElbowAngleMin < 0 || t.ElbowAngleMax > 180 || t.ElbowAngleMin >= t.ElbowAngleMax {
		return fmt.Errorf("%w: elbow angle window [%v,%v] is not a valid range", ErrInvalidConfig, t.ElbowAngleMin, t.ElbowAngleMax)
	}
	if t.ElbowBendMin < 0 || t.ElbowBendMax > 180 || t.ElbowBendMin >= t.ElbowBendMax {
		return fmt.Errorf("%w: elbow bend window [%v,%v] is not a valid range", ErrInvalidConfig, t.ElbowBendMin, t.ElbowBendMax)
	}
	if t.ElbowDriftMax <= 0 || t.ArmReachMin <= 0 || t.BalanceOffsetMax <= 0 {
		return fmt.Errorf("%w: distance limits must be positive", ErrInvalidConfig)
	}
	if t.ArmRaiseTolerance <= 0 || t.LevelTolerance <= 0 || t.SpineTolerance <= 0 {
		return fmt.Errorf("%w: angle tolerances must be positive", ErrInvalidConfig)
	}
	return nil
}
