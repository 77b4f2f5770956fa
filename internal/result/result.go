// Package result evaluates pass/fail for a completed cycle and
// aggregates results across repeated cycles (spec §4.11, C11).
package result

import (
	"github.com/soochol/eol-force-tester/internal/model"
)

// Evaluate reports whether every stored force is finite and within
// [criteria.ForceMin, criteria.ForceMax], and no measurement slot named
// by temperatures/positions is missing (spec §4.11).
func Evaluate(m *model.TestMeasurements, temperatures, positions []float64, criteria model.PassCriteria) bool {
	for _, t := range temperatures {
		for _, p := range positions {
			force, ok := m.Force(t, p)
			if !ok {
				return false
			}
			if !force.IsFinite() {
				return false
			}
			v := float64(force)
			if v < criteria.ForceMin || v > criteria.ForceMax {
				return false
			}
		}
	}
	return true
}

// Aggregate is the outcome of one or more test cycles, preserved in
// execution order.
type Aggregate struct {
	Cycles []model.CycleResult
	Passed bool
}

// NewAggregate computes Passed as the conjunction of every cycle's
// IsPassed (spec §4.11: "pass = all cycles passed").
func NewAggregate(cycles []model.CycleResult) Aggregate {
	passed := len(cycles) > 0
	for _, c := range cycles {
		if !c.IsPassed {
			passed = false
			break
		}
	}
	return Aggregate{Cycles: cycles, Passed: passed}
}
