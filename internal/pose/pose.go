package pose

import "github.com/andresmejia3/spotter/internal/types"

// Joint names for the landmarks the rule set reads. The detector emits
// the full MediaPipe vocabulary (see Names); these constants cover the
// subset the form rules reference by name.
const (
	LeftShoulder  = "left_shoulder"
	RightShoulder = "right_shoulder"
	LeftElbow     = "left_elbow"
	RightElbow    = "right_elbow"
	LeftWrist     = "left_wrist"
	RightWrist    = "right_wrist"
	LeftHip       = "left_hip"
	RightHip      = "right_hip"
	LeftKnee      = "left_knee"
	RightKnee     = "right_knee"
)

// Names is the detector's 33-point vocabulary, index-aligned with the
// landmark array in each worker response.
var Names = [33]string{
	"nose",
	"left_eye_inner", "left_eye", "left_eye_outer",
	"right_eye_inner", "right_eye", "right_eye_outer",
	"left_ear", "right_ear",
	"mouth_left", "mouth_right",
	LeftShoulder, RightShoulder,
	LeftElbow, RightElbow,
	LeftWrist, RightWrist,
	"left_pinky", "right_pinky",
	"left_index", "right_index",
	"left_thumb", "right_thumb",
	LeftHip, RightHip,
	LeftKnee, RightKnee,
	"left_ankle", "right_ankle",
	"left_heel", "right_heel",
	"left_foot_index", "right_foot_index",
}

// Landmark is one detected joint: normalized image units with Y
// increasing upward, plus the detector's visibility score in [0,1].
type Landmark struct {
	X          float64
	Y          float64
	Z          float64
	Visibility float64
}

// Set holds one frame's landmarks keyed by joint name. A missing key
// means the detector did not report that joint at all.
type Set map[string]Landmark

// Get looks up a joint by name.
func (s Set) Get(name string) (Landmark, bool) {
	lm, ok := s[name]
	return lm, ok
}

// Has reports whether every named joint is present in the set.
func (s Set) Has(names ...string) bool {
	for _, n := range names {
		if _, ok := s[n]; !ok {
			return false
		}
	}
	return true
}

// Missing returns the subset of names absent from the set, in the
// order given.
func (s Set) Missing(names ...string) []string {
	var missing []string
	for _, n := range names {
		if _, ok := s[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

// Mid returns the midpoint of two joints. The midpoint inherits the
// lower of the two visibilities, so a shaky side keeps the derived
// point honest.
func (s Set) Mid(a, b string) (Landmark, bool) {
	la, ok := s[a]
	if !ok {
		return Landmark{}, false
	}
	lb, ok := s[b]
	if !ok {
		return Landmark{}, false
	}
	vis := la.Visibility
	if lb.Visibility < vis {
		vis = lb.Visibility
	}
	return Landmark{
		X:          (la.X + lb.X) / 2,
		Y:          (la.Y + lb.Y) / 2,
		Z:          (la.Z + lb.Z) / 2,
		Visibility: vis,
	}, true
}

// FromDetection converts a worker response into a Set. The detector
// reports image coordinates with y growing downward; the core works
// y-up, so y is negated on ingest. Anything other than a full
// 33-landmark response maps to nil (no detection).
func FromDetection(points []types.PoseResult) Set {
	if len(points) != len(Names) {
		return nil
	}
	set := make(Set, len(points))
	for i, p := range points {
		set[Names[i]] = Landmark{X: p.X, Y: -p.Y, Z: p.Z, Visibility: p.Visibility}
	}
	return set
}
