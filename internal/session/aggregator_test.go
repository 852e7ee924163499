package session

import (
	"math"
	"testing"

	"github.com/andresmejia3/spotter/internal/form"
)

// twoRuleReport builds a frame report with an angle rule and a level
// rule, deriving the frame status from the verdicts the way the
// evaluator does.
func twoRuleReport(idx int, angle form.Verdict, level form.Verdict) form.FrameReport {
	status := form.Pass
	for _, v := range []form.Verdict{angle, level} {
		if v.Status == form.Fail {
			status = form.Fail
			break
		}
		if v.Status == form.Unknown {
			status = form.Unknown
		}
	}
	return form.FrameReport{
		Index:    idx,
		Status:   status,
		Verdicts: []form.Verdict{angle, level},
	}
}

func pass(rule string, value float64) form.Verdict {
	return form.Verdict{Rule: rule, Status: form.Pass, Value: value}
}

func fail(rule string, value float64) form.Verdict {
	return form.Verdict{Rule: rule, Status: form.Fail, Value: value, Message: "off"}
}

func unknown(rule string) form.Verdict {
	return form.Verdict{Rule: rule, Status: form.Unknown, Message: "low visibility"}
}

func TestAggregatorAccounting(t *testing.T) {
	agg := New(form.BicepCurl, form.Left)

	agg.Record(twoRuleReport(0, pass("elbow_angle_range", 100), pass("shoulders_level", 2)))
	agg.Record(twoRuleReport(1, pass("elbow_angle_range", 110), pass("shoulders_level", 3)))
	agg.Record(twoRuleReport(2, pass("elbow_angle_range", 120), pass("shoulders_level", 2)))
	agg.Record(twoRuleReport(3, fail("elbow_angle_range", 170), pass("shoulders_level", 1)))
	agg.Record(twoRuleReport(4, unknown("elbow_angle_range"), pass("shoulders_level", 2)))
	agg.Record(form.FrameReport{Index: 5, Status: form.Undetected, Missing: []string{"left_wrist"}})

	sum := agg.Finalize()

	if sum.Total != 6 {
		t.Errorf("Total = %d, want 6", sum.Total)
	}
	if sum.Passed != 3 || sum.Failed != 1 || sum.Unknown != 1 || sum.Undetected != 1 {
		t.Errorf("Buckets = %d/%d/%d/%d, want 3/1/1/1",
			sum.Passed, sum.Failed, sum.Unknown, sum.Undetected)
	}

	// Per-rule counts must cover every frame that carried verdicts
	angle := sum.Rules["elbow_angle_range"]
	if angle.Pass+angle.Fail+angle.Unknown != 5 {
		t.Errorf("elbow_angle_range counts sum to %d, want 5", angle.Pass+angle.Fail+angle.Unknown)
	}
	if angle.Pass != 3 || angle.Fail != 1 || angle.Unknown != 1 {
		t.Errorf("elbow_angle_range = %+v, want 3/1/1", angle)
	}

	level := sum.Rules["shoulders_level"]
	if level.Pass != 5 || level.Fail != 0 || level.Unknown != 0 {
		t.Errorf("shoulders_level = %+v, want 5/0/0", level)
	}

	// Unknown verdicts stay out of the pass-rate denominator
	if got := angle.PassRate(); math.Abs(got-0.75) > 1e-9 {
		t.Errorf("elbow_angle_range pass rate = %v, want 0.75", got)
	}
	// Undetected frames stay in the clip-rate denominator
	if got := sum.ClipPassRate(); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Clip pass rate = %v, want 0.5", got)
	}
	if got := sum.UnknownRate(); math.Abs(got-1.0/6.0) > 1e-9 {
		t.Errorf("Unknown rate = %v, want 1/6", got)
	}

	if len(sum.RuleOrder) != 2 || sum.RuleOrder[0] != "elbow_angle_range" || sum.RuleOrder[1] != "shoulders_level" {
		t.Errorf("RuleOrder = %v, want verdict order", sum.RuleOrder)
	}
}

func TestAggregatorEmpty(t *testing.T) {
	sum := New(form.LateralRaise, form.Right).Finalize()

	if sum.Total != 0 {
		t.Errorf("Total = %d, want 0", sum.Total)
	}
	if rate := sum.ClipPassRate(); rate != 0 || math.IsNaN(rate) {
		t.Errorf("Clip pass rate on empty clip = %v, want 0", rate)
	}
	if len(sum.Rules) != 0 || len(sum.Metrics) != 0 {
		t.Errorf("Empty clip produced rules/metrics: %v / %v", sum.Rules, sum.Metrics)
	}
}

func TestAggregatorMetrics(t *testing.T) {
	agg := New(form.BicepCurl, form.Left)

	// A linear angle ramp survives the quadratic filter untouched
	for i := 0; i < 8; i++ {
		value := 100 + float64(i)*5
		agg.Record(twoRuleReport(i, pass("elbow_angle_range", value), pass("shoulders_level", 2)))
	}

	sum := agg.Finalize()
	stat, ok := sum.Metrics["elbow_angle_range"]
	if !ok {
		t.Fatal("No metrics recorded for elbow_angle_range")
	}
	if math.Abs(stat.Min-100) > 1e-9 || math.Abs(stat.Max-135) > 1e-9 {
		t.Errorf("Min/Max = %v/%v, want 100/135", stat.Min, stat.Max)
	}
	if math.Abs(stat.Mean-117.5) > 1e-9 {
		t.Errorf("Mean = %v, want 117.5", stat.Mean)
	}
}

func TestFinalizeSnapshotIndependence(t *testing.T) {
	agg := New(form.BicepCurl, form.Left)
	agg.Record(twoRuleReport(0, pass("elbow_angle_range", 100), pass("shoulders_level", 2)))

	first := agg.Finalize()

	agg.Record(twoRuleReport(1, fail("elbow_angle_range", 170), fail("shoulders_level", 30)))

	if first.Total != 1 {
		t.Errorf("Earlier snapshot mutated: Total = %d, want 1", first.Total)
	}
	if first.Rules["elbow_angle_range"].Fail != 0 {
		t.Error("Earlier snapshot picked up later fail counts")
	}

	second := agg.Finalize()
	if second.Total != 2 || second.Failed != 1 {
		t.Errorf("Second snapshot = %d total / %d failed, want 2/1", second.Total, second.Failed)
	}
}
