// Package session accumulates per-frame form reports into a clip
// summary: tri-state counts per rule, frame buckets, and smoothed
// statistics over every rule's measured values.
package session

import "github.com/andresmejia3/spotter/internal/form"

// RuleCount tracks tri-state outcomes for one rule across a clip.
type RuleCount struct {
	Pass    int `json:"pass"`
	Fail    int `json:"fail"`
	Unknown int `json:"unknown"`
}

// PassRate returns passes over decided (pass+fail) frames, or 0 when
// the rule never produced a decision.
func (c RuleCount) PassRate() float64 {
	decided := c.Pass + c.Fail
	if decided == 0 {
		return 0
	}
	return float64(c.Pass) / float64(decided)
}

// Summary is the finalized accounting for one evaluated clip.
type Summary struct {
	Exercise   form.Exercise        `json:"exercise"`
	Side       form.Side            `json:"side"`
	Total      int                  `json:"total_frames"`
	Passed     int                  `json:"passed_frames"`
	Failed     int                  `json:"failed_frames"`
	Unknown    int                  `json:"unknown_frames"`
	Undetected int                  `json:"undetected_frames"`
	RuleOrder  []string             `json:"rule_order"`
	Rules      map[string]RuleCount `json:"rules"`
	Metrics    map[string]Stat      `json:"metrics"`
}

// ClipPassRate returns fully-passing frames over all recorded frames,
// undetected ones included.
func (s Summary) ClipPassRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Passed) / float64(s.Total)
}

// UnknownRate returns unknown-status frames over all recorded frames.
func (s Summary) UnknownRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Unknown) / float64(s.Total)
}

// Aggregator folds frame reports into a running summary. Counters
// only ever increase. Not safe for concurrent use: feed it reports
// in frame order from a single goroutine.
type Aggregator struct {
	exercise  form.Exercise
	side      form.Side
	ruleOrder []string
	counts    map[string]*RuleCount
	series    map[string][]float64

	total      int
	passed     int
	failed     int
	unknown    int
	undetected int
}

// New returns an empty aggregator for one clip.
func New(ex form.Exercise, side form.Side) *Aggregator {
	return &Aggregator{
		exercise: ex,
		side:     side,
		counts:   make(map[string]*RuleCount),
		series:   make(map[string][]float64),
	}
}

// Record folds one frame report into the running counts. Undetected
// frames land in their own bucket and touch no per-rule counters.
func (a *Aggregator) Record(report form.FrameReport) {
	a.total++

	switch report.Status {
	case form.Undetected:
		a.undetected++
		return
	case form.Pass:
		a.passed++
	case form.Fail:
		a.failed++
	case form.Unknown:
		a.unknown++
	}

	for _, v := range report.Verdicts {
		c, ok := a.counts[v.Rule]
		if !ok {
			c = &RuleCount{}
			a.counts[v.Rule] = c
			a.ruleOrder = append(a.ruleOrder, v.Rule)
		}
		switch v.Status {
		case form.Pass:
			c.Pass++
		case form.Fail:
			c.Fail++
		case form.Unknown:
			c.Unknown++
		}
		// Unknown verdicts carry no measured value
		if v.Status != form.Unknown {
			a.series[v.Rule] = append(a.series[v.Rule], v.Value)
		}
	}
}

// Total returns the number of frames recorded so far.
func (a *Aggregator) Total() int { return a.total }

// Finalize snapshots the accumulated counts. Measured-value series
// are smoothed before summarizing. The snapshot is independent: the
// aggregator may keep recording afterwards without disturbing it.
func (a *Aggregator) Finalize() Summary {
	s := Summary{
		Exercise:   a.exercise,
		Side:       a.side,
		Total:      a.total,
		Passed:     a.passed,
		Failed:     a.failed,
		Unknown:    a.unknown,
		Undetected: a.undetected,
		RuleOrder:  append([]string(nil), a.ruleOrder...),
		Rules:      make(map[string]RuleCount, len(a.counts)),
		Metrics:    make(map[string]Stat, len(a.series)),
	}
	for name, c := range a.counts {
		s.Rules[name] = *c
	}
	for name, values := range a.series {
		s.Metrics[name] = Describe(Smooth(values))
	}
	return s
}
