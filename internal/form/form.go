// Package form evaluates strength-training posture rules against
// per-frame body landmarks. Evaluation is pure and stateless: one
// frame in, one report out.
package form

import "errors"

// ErrInvalidConfig reports an unsupported exercise, side, or
// thresholds table. It is the only error class that halts processing;
// everything else degrades into per-frame verdict states.
var ErrInvalidConfig = errors.New("invalid configuration")

// Exercise identifies a supported movement pattern.
type Exercise string

const (
	BicepCurl    Exercise = "bicep_curl"
	LateralRaise Exercise = "lateral_raise"
)

// Exercises lists the supported movement patterns in display order.
func Exercises() []Exercise {
	return []Exercise{BicepCurl, LateralRaise}
}

// Side selects which arm the exercise-specific rules track. Shared
// posture rules always read both sides.
type Side string

const (
	Left  Side = "left"
	Right Side = "right"
)

// Status is a verdict outcome. Rules produce pass, fail, or unknown;
// whole frames additionally report undetected when required joints
// are absent.
type Status string

const (
	Pass       Status = "pass"
	Fail       Status = "fail"
	Unknown    Status = "unknown"
	Undetected Status = "undetected"
)

// Verdict is the outcome of one rule on one frame. Value carries the
// measured feature (degrees or normalized units) when the rule could
// be measured; Message explains fails and unknowns.
type Verdict struct {
	Rule    string  `json:"rule"`
	Status  Status  `json:"status"`
	Value   float64 `json:"value"`
	Message string  `json:"message,omitempty"`
}

// FrameReport collects one frame's verdicts in rule order. Status is
// pass only when every rule passed, fail when any rule failed,
// unknown when nothing failed but at least one rule could not be
// measured, and undetected when required joints were missing (Missing
// lists them and Verdicts stays empty).
type FrameReport struct {
	Index    int       `json:"frame"`
	Status   Status    `json:"status"`
	Verdicts []Verdict `json:"verdicts,omitempty"`
	Missing  []string  `json:"missing,omitempty"`
}

// Failures returns the feedback messages of every failed rule.
func (r FrameReport) Failures() []string {
	var msgs []string
	for _, v := range r.Verdicts {
		if v.Status == Fail {
			msgs = append(msgs, v.Message)
		}
	}
	return msgs
}
