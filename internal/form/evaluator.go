package form

import (
	"errors"
	"fmt"

	"github.com/andresmejia3/spotter/internal/geometry"
	"github.com/andresmejia3/spotter/internal/pose"
)

// errLowVisibility marks a landmark the detector saw too faintly to
// trust. It folds into an unknown verdict, never a fail.
var errLowVisibility = errors.New("visibility below threshold")

// frame resolves landmarks for a single evaluation pass, gating every
// read on the visibility threshold so rules never see an untrusted
// coordinate.
type frame struct {
	set pose.Set
	t   *Thresholds
}

func (f *frame) point(name string) (geometry.Point, error) {
	lm, ok := f.set.Get(name)
	if !ok {
		// Required joints are checked before rules run, so this only
		// fires for a rule reading a joint it never declared.
		return geometry.Point{}, fmt.Errorf("%s: landmark missing", name)
	}
	if lm.Visibility < f.t.MinVisibility {
		return geometry.Point{}, fmt.Errorf("%s: %w", name, errLowVisibility)
	}
	return geometry.Point{X: lm.X, Y: lm.Y}, nil
}

func (f *frame) mid(a, b string) (geometry.Point, error) {
	lm, ok := f.set.Mid(a, b)
	if !ok {
		return geometry.Point{}, fmt.Errorf("%s/%s midpoint: landmark missing", a, b)
	}
	if lm.Visibility < f.t.MinVisibility {
		return geometry.Point{}, fmt.Errorf("%s/%s midpoint: %w", a, b, errLowVisibility)
	}
	return geometry.Point{X: lm.X, Y: lm.Y}, nil
}

func (f *frame) angle(a, b, c string) (float64, error) {
	pa, err := f.point(a)
	if err != nil {
		return 0, err
	}
	pb, err := f.point(b)
	if err != nil {
		return 0, err
	}
	pc, err := f.point(c)
	if err != nil {
		return 0, err
	}
	return geometry.Angle(pa, pb, pc)
}

func (f *frame) verticalOffset(a, b string) (float64, error) {
	pa, err := f.point(a)
	if err != nil {
		return 0, err
	}
	pb, err := f.point(b)
	if err != nil {
		return 0, err
	}
	return geometry.VerticalOffset(pa, pb), nil
}

func (f *frame) horizontalOffset(a, b string) (float64, error) {
	pa, err := f.point(a)
	if err != nil {
		return 0, err
	}
	pb, err := f.point(b)
	if err != nil {
		return 0, err
	}
	return geometry.HorizontalOffset(pa, pb), nil
}

func (f *frame) perpDistance(p, a, b string) (float64, error) {
	pp, err := f.point(p)
	if err != nil {
		return 0, err
	}
	pa, err := f.point(a)
	if err != nil {
		return 0, err
	}
	pb, err := f.point(b)
	if err != nil {
		return 0, err
	}
	return geometry.PerpendicularDistance(pp, pa, pb)
}

func (f *frame) tilt(p, q string) (float64, error) {
	pp, err := f.point(p)
	if err != nil {
		return 0, err
	}
	pq, err := f.point(q)
	if err != nil {
		return 0, err
	}
	return geometry.TiltDegrees(pp, pq)
}

// Evaluator applies one exercise's rule list to successive frames.
// It is stateless across frames: every Evaluate call is independent
// and deterministic.
type Evaluator struct {
	exercise Exercise
	side     Side
	rules    []Rule
	required []string
	t        Thresholds
}

// NewEvaluator resolves the rule list for an exercise and side. An
// unknown exercise or side, or an invalid thresholds table, fails
// here — before any frame is processed.
func NewEvaluator(ex Exercise, side Side, t Thresholds) (*Evaluator, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	rules, err := rulesFor(ex, side)
	if err != nil {
		return nil, err
	}
	return &Evaluator{
		exercise: ex,
		side:     side,
		rules:    rules,
		required: requiredJoints(rules),
		t:        t,
	}, nil
}

// requiredJoints flattens the rule list's joint references, first
// occurrence order, deduplicated.
func requiredJoints(rules []Rule) []string {
	seen := make(map[string]bool)
	var joints []string
	for _, r := range rules {
		for _, j := range r.Joints {
			if !seen[j] {
				seen[j] = true
				joints = append(joints, j)
			}
		}
	}
	return joints
}

// Exercise returns the configured movement pattern.
func (e *Evaluator) Exercise() Exercise { return e.exercise }

// Side returns the tracked side.
func (e *Evaluator) Side() Side { return e.side }

// Rules returns the active rule list in evaluation order.
func (e *Evaluator) Rules() []Rule { return e.rules }

// RequiredJoints returns every joint the rule list reads.
func (e *Evaluator) RequiredJoints() []string { return e.required }

// Evaluate runs every rule against one frame's landmarks. A frame
// missing any required joint comes back undetected with no verdicts;
// otherwise each rule lands on pass, fail, or unknown and the frame
// status rolls them up.
func (e *Evaluator) Evaluate(index int, set pose.Set) FrameReport {
	if missing := set.Missing(e.required...); len(missing) > 0 {
		return FrameReport{Index: index, Status: Undetected, Missing: missing}
	}

	f := &frame{set: set, t: &e.t}
	verdicts := make([]Verdict, 0, len(e.rules))
	status := Pass
	sawUnknown := false

	for _, rule := range e.rules {
		v := evalRule(rule, f, &e.t)
		verdicts = append(verdicts, v)
		switch v.Status {
		case Fail:
			status = Fail
		case Unknown:
			sawUnknown = true
		}
	}
	if status == Pass && sawUnknown {
		status = Unknown
	}
	return FrameReport{Index: index, Status: status, Verdicts: verdicts}
}

// evalRule folds measurement problems into the tri-state: low
// visibility and degenerate geometry become unknown verdicts.
func evalRule(rule Rule, f *frame, t *Thresholds) Verdict {
	value, err := rule.Measure(f)
	if err != nil {
		return Verdict{Rule: rule.Name, Status: Unknown, Message: err.Error()}
	}

	ok, msg := rule.Assess(value, t)
	if !ok {
		return Verdict{Rule: rule.Name, Status: Fail, Value: value, Message: msg}
	}
	return Verdict{Rule: rule.Name, Status: Pass, Value: value}
}
