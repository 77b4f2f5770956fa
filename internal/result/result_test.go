package result

import (
	"math"
	"testing"

	"github.com/soochol/eol-force-tester/internal/model"
)

func TestEvaluatePassesWithinRange(t *testing.T) {
	m := model.NewTestMeasurements()
	m.Record(25.0, 10.0, 50.0)
	m.Record(25.0, 20.0, 60.0)

	criteria := model.PassCriteria{ForceMin: 0, ForceMax: 100}
	if !Evaluate(m, []float64{25.0}, []float64{10.0, 20.0}, criteria) {
		t.Error("expected pass, got fail")
	}
}

func TestEvaluateFailsOutOfRange(t *testing.T) {
	m := model.NewTestMeasurements()
	m.Record(25.0, 10.0, 500.0)

	criteria := model.PassCriteria{ForceMin: 0, ForceMax: 100}
	if Evaluate(m, []float64{25.0}, []float64{10.0}, criteria) {
		t.Error("expected fail for out-of-range force")
	}
}

func TestEvaluateFailsMissingSlot(t *testing.T) {
	m := model.NewTestMeasurements()
	m.Record(25.0, 10.0, 50.0)

	criteria := model.PassCriteria{ForceMin: 0, ForceMax: 100}
	if Evaluate(m, []float64{25.0}, []float64{10.0, 20.0}, criteria) {
		t.Error("expected fail for missing (25.0, 20.0) slot")
	}
}

func TestEvaluateFailsNonFinite(t *testing.T) {
	m := model.NewTestMeasurements()
	m.Record(25.0, 10.0, model.ForceSample(math.NaN()))

	criteria := model.PassCriteria{ForceMin: 0, ForceMax: 100}
	if Evaluate(m, []float64{25.0}, []float64{10.0}, criteria) {
		t.Error("expected fail for non-finite force")
	}
}

func TestNewAggregatePassAllCycles(t *testing.T) {
	cycles := []model.CycleResult{{IsPassed: true}, {IsPassed: true}}
	agg := NewAggregate(cycles)
	if !agg.Passed {
		t.Error("expected aggregate pass when all cycles pass")
	}
}

func TestNewAggregateFailsOnAnyCycle(t *testing.T) {
	cycles := []model.CycleResult{{IsPassed: true}, {IsPassed: false}}
	agg := NewAggregate(cycles)
	if agg.Passed {
		t.Error("expected aggregate fail when any cycle fails")
	}
}
