package form

import (
	"fmt"
	"math"

	"github.com/andresmejia3/spotter/internal/geometry"
	"github.com/andresmejia3/spotter/internal/pose"
)

// Rule is one declarative form check. Measure derives a scalar
// feature from the frame's landmarks; Assess applies the threshold
// and phrases the feedback for a miss. Joints lists every landmark
// the rule reads, so the evaluator can flag frames where the detector
// lost the body.
type Rule struct {
	Name    string
	Doc     string
	Joints  []string
	Measure func(f *frame) (float64, error)
	Assess  func(v float64, t *Thresholds) (bool, string)
}

// joint substitutes the tracked side into a joint name, e.g.
// Left.joint("elbow") == "left_elbow".
func (s Side) joint(part string) string {
	return string(s) + "_" + part
}

// rulesFor returns the ordered rule list for an exercise and side:
// exercise-specific rules first, shared posture rules after. The
// order is fixed so reports and summaries stay reproducible.
func rulesFor(ex Exercise, side Side) ([]Rule, error) {
	if side != Left && side != Right {
		return nil, fmt.Errorf("%w: unknown side %q", ErrInvalidConfig, side)
	}

	var rules []Rule
	switch ex {
	case BicepCurl:
		rules = []Rule{
			elbowAngleRange(side),
			elbowStationary(side),
			wristAboveElbow(side),
		}
	case LateralRaise:
		rules = []Rule{
			armAtShoulderHeight(side),
			elbowSlightlyBent(side),
			wristNotAboveShoulder(side),
			armExtended(side),
		}
	default:
		return nil, fmt.Errorf("%w: unknown exercise %q", ErrInvalidConfig, ex)
	}
	return append(rules, sharedRules()...), nil
}

// sharedRules apply to every exercise regardless of tracked side.
func sharedRules() []Rule {
	return []Rule{
		shouldersLevel(),
		hipsLevel(),
		spineStraight(),
		balanced(),
	}
}

// --- Bicep curl ---

func elbowAngleRange(side Side) Rule {
	shoulder, elbow, wrist := side.joint("shoulder"), side.joint("elbow"), side.joint("wrist")
	return Rule{
		Name:   "elbow_angle_range",
		Doc:    "elbow angle stays inside the curl's working window",
		Joints: []string{shoulder, elbow, wrist},
		Measure: func(f *frame) (float64, error) {
			return f.angle(shoulder, elbow, wrist)
		},
		Assess: func(v float64, t *Thresholds) (bool, string) {
			switch {
			case v < t.ElbowAngleMin:
				return false, fmt.Sprintf("elbow angle %.0f°: curl too tight, ease off at the top", v)
			case v > t.ElbowAngleMax:
				return false, fmt.Sprintf("elbow angle %.0f°: arm nearly locked out at the bottom", v)
			}
			return true, ""
		},
	}
}

func elbowStationary(side Side) Rule {
	shoulder, elbow, hip := side.joint("shoulder"), side.joint("elbow"), side.joint("hip")
	return Rule{
		Name:   "elbow_stationary",
		Doc:    "elbow stays close to the torso line instead of swinging",
		Joints: []string{shoulder, elbow, hip},
		Measure: func(f *frame) (float64, error) {
			return f.perpDistance(elbow, shoulder, hip)
		},
		Assess: func(v float64, t *Thresholds) (bool, string) {
			if v > t.ElbowDriftMax {
				return false, "elbow drifting away from the torso, pin it to your side"
			}
			return true, ""
		},
	}
}

func wristAboveElbow(side Side) Rule {
	elbow, wrist := side.joint("elbow"), side.joint("wrist")
	return Rule{
		Name:   "wrist_above_elbow_at_top",
		Doc:    "wrist finishes above the elbow at the top of the curl",
		Joints: []string{elbow, wrist},
		Measure: func(f *frame) (float64, error) {
			return f.verticalOffset(wrist, elbow)
		},
		Assess: func(v float64, t *Thresholds) (bool, string) {
			if v <= 0 {
				return false, "wrist below the elbow, curl the weight higher"
			}
			return true, ""
		},
	}
}

// --- Lateral raise ---

func armAtShoulderHeight(side Side) Rule {
	hip, shoulder, elbow := side.joint("hip"), side.joint("shoulder"), side.joint("elbow")
	return Rule{
		Name:   "arm_at_shoulder_height",
		Doc:    "upper arm raised to shoulder height",
		Joints: []string{hip, shoulder, elbow},
		Measure: func(f *frame) (float64, error) {
			return f.angle(hip, shoulder, elbow)
		},
		Assess: func(v float64, t *Thresholds) (bool, string) {
			if math.Abs(v-t.ArmRaiseAngle) > t.ArmRaiseTolerance {
				if v < t.ArmRaiseAngle {
					return false, fmt.Sprintf("arm at %.0f°, raise it to shoulder height", v)
				}
				return false, fmt.Sprintf("arm at %.0f°, lower it back to shoulder height", v)
			}
			return true, ""
		},
	}
}

func elbowSlightlyBent(side Side) Rule {
	shoulder, elbow, wrist := side.joint("shoulder"), side.joint("elbow"), side.joint("wrist")
	return Rule{
		Name:   "elbow_slightly_bent",
		Doc:    "elbow soft: bent, but not locked out",
		Joints: []string{shoulder, elbow, wrist},
		Measure: func(f *frame) (float64, error) {
			return f.angle(shoulder, elbow, wrist)
		},
		Assess: func(v float64, t *Thresholds) (bool, string) {
			switch {
			case v < t.ElbowBendMin:
				return false, fmt.Sprintf("elbow angle %.0f°: too much bend, open the arm", v)
			case v > t.ElbowBendMax:
				return false, fmt.Sprintf("elbow angle %.0f°: joint locked out, keep a soft bend", v)
			}
			return true, ""
		},
	}
}

func wristNotAboveShoulder(side Side) Rule {
	shoulder, wrist := side.joint("shoulder"), side.joint("wrist")
	return Rule{
		Name:   "wrist_not_above_shoulder",
		Doc:    "hands stop at shoulder height",
		Joints: []string{shoulder, wrist},
		Measure: func(f *frame) (float64, error) {
			return f.verticalOffset(wrist, shoulder)
		},
		Assess: func(v float64, t *Thresholds) (bool, string) {
			// Equal height counts as not-above
			if v > 0 {
				return false, "wrist raised above the shoulder, stop at shoulder height"
			}
			return true, ""
		},
	}
}

func armExtended(side Side) Rule {
	shoulder, wrist := side.joint("shoulder"), side.joint("wrist")
	return Rule{
		Name:   "arm_extended",
		Doc:    "arm raised outward, away from the body",
		Joints: []string{shoulder, wrist},
		Measure: func(f *frame) (float64, error) {
			v, err := f.horizontalOffset(wrist, shoulder)
			return math.Abs(v), err
		},
		Assess: func(v float64, t *Thresholds) (bool, string) {
			if v < t.ArmReachMin {
				return false, "arm hanging too close to the body, raise it outward"
			}
			return true, ""
		},
	}
}

// --- Shared posture ---

func shouldersLevel() Rule {
	return Rule{
		Name:   "shoulders_level",
		Doc:    "shoulders stay level with each other",
		Joints: []string{pose.LeftShoulder, pose.RightShoulder},
		Measure: func(f *frame) (float64, error) {
			return f.tilt(pose.LeftShoulder, pose.RightShoulder)
		},
		Assess: func(v float64, t *Thresholds) (bool, string) {
			if v > t.LevelTolerance {
				return false, fmt.Sprintf("shoulders tilted %.0f°, square them up", v)
			}
			return true, ""
		},
	}
}

func hipsLevel() Rule {
	return Rule{
		Name:   "hips_level",
		Doc:    "hips stay level with each other",
		Joints: []string{pose.LeftHip, pose.RightHip},
		Measure: func(f *frame) (float64, error) {
			return f.tilt(pose.LeftHip, pose.RightHip)
		},
		Assess: func(v float64, t *Thresholds) (bool, string) {
			if v > t.LevelTolerance {
				return false, fmt.Sprintf("hips tilted %.0f°, level your stance", v)
			}
			return true, ""
		},
	}
}

func spineStraight() Rule {
	return Rule{
		Name: "spine_straight",
		Doc:  "shoulder, hip, and knee midpoints stay in line",
		Joints: []string{
			pose.LeftShoulder, pose.RightShoulder,
			pose.LeftHip, pose.RightHip,
			pose.LeftKnee, pose.RightKnee,
		},
		Measure: func(f *frame) (float64, error) {
			shoulders, err := f.mid(pose.LeftShoulder, pose.RightShoulder)
			if err != nil {
				return 0, err
			}
			hips, err := f.mid(pose.LeftHip, pose.RightHip)
			if err != nil {
				return 0, err
			}
			knees, err := f.mid(pose.LeftKnee, pose.RightKnee)
			if err != nil {
				return 0, err
			}
			return geometry.Angle(shoulders, hips, knees)
		},
		Assess: func(v float64, t *Thresholds) (bool, string) {
			if dev := math.Abs(180 - v); dev > t.SpineTolerance {
				return false, fmt.Sprintf("spine bent %.0f° off straight, keep your back tall", dev)
			}
			return true, ""
		},
	}
}

func balanced() Rule {
	return Rule{
		Name: "balanced",
		Doc:  "shoulders stacked over the hips, no sideways lean",
		Joints: []string{
			pose.LeftShoulder, pose.RightShoulder,
			pose.LeftHip, pose.RightHip,
		},
		Measure: func(f *frame) (float64, error) {
			shoulders, err := f.mid(pose.LeftShoulder, pose.RightShoulder)
			if err != nil {
				return 0, err
			}
			hips, err := f.mid(pose.LeftHip, pose.RightHip)
			if err != nil {
				return 0, err
			}
			return math.Abs(geometry.HorizontalOffset(shoulders, hips)), nil
		},
		Assess: func(v float64, t *Thresholds) (bool, string) {
			if v > t.BalanceOffsetMax {
				return false, "leaning to one side, center your weight"
			}
			return true, ""
		},
	}
}
