package model

import (
	"fmt"
	"math"
)

// ForceSample is a single peak-force reading in kgf.
type ForceSample float64

// IsFinite reports whether the sample is a usable number.
func (f ForceSample) IsFinite() bool {
	return !math.IsNaN(float64(f)) && !math.IsInf(float64(f), 0)
}

// cell holds the force samples collected for one (temperature, position)
// slot. During collection (repeat_count > 1) len(samples) grows by one per
// repeat; after aggregation it is collapsed to exactly one entry holding
// the arithmetic mean.
type cell struct {
	samples []ForceSample
}

func (c cell) mean() ForceSample {
	var sum float64
	for _, s := range c.samples {
		sum += float64(s)
	}
	return ForceSample(sum / float64(len(c.samples)))
}

// positionRow keys force cells by stroke position, preserving the
// insertion order of TestConfiguration.StrokePositions exactly — Go maps
// give no ordering guarantee, so order is tracked explicitly in a
// parallel key slice (spec §9 "Dynamic-typed mapping → tagged model").
type positionRow struct {
	order []float64
	cells map[float64]*cell
}

func newPositionRow() *positionRow {
	return &positionRow{cells: make(map[float64]*cell)}
}

func (r *positionRow) append(position float64, force ForceSample) {
	c, ok := r.cells[position]
	if !ok {
		c = &cell{}
		r.cells[position] = c
		r.order = append(r.order, position)
	}
	c.samples = append(c.samples, force)
}

// TestMeasurements is the temperature -> position -> force matrix
// accumulated by the orchestrator during the measurement phase.
type TestMeasurements struct {
	temperatureOrder []float64
	rows             map[float64]*positionRow
}

// NewTestMeasurements returns an empty measurement matrix.
func NewTestMeasurements() *TestMeasurements {
	return &TestMeasurements{rows: make(map[float64]*positionRow)}
}

// Record appends one force sample at (temperature, position). Multiple
// calls for the same key (across repeats) accumulate samples; call
// Aggregate to collapse them to means.
func (m *TestMeasurements) Record(temperature, position float64, force ForceSample) {
	row, ok := m.rows[temperature]
	if !ok {
		row = newPositionRow()
		m.rows[temperature] = row
		m.temperatureOrder = append(m.temperatureOrder, temperature)
	}
	row.append(position, force)
}

// Aggregate collapses every cell's sample sequence to its arithmetic mean.
// It is a no-op for cells that already hold exactly one sample.
func (m *TestMeasurements) Aggregate() {
	for _, row := range m.rows {
		for _, c := range row.cells {
			if len(c.samples) > 1 {
				c.samples = []ForceSample{c.mean()}
			}
		}
	}
}

// Temperatures returns the temperature keys in original insertion order.
func (m *TestMeasurements) Temperatures() []float64 {
	out := make([]float64, len(m.temperatureOrder))
	copy(out, m.temperatureOrder)
	return out
}

// Positions returns the stroke-position keys recorded for a temperature,
// in original insertion order.
func (m *TestMeasurements) Positions(temperature float64) []float64 {
	row, ok := m.rows[temperature]
	if !ok {
		return nil
	}
	out := make([]float64, len(row.order))
	copy(out, row.order)
	return out
}

// Force returns the (post-aggregation) force value stored at
// (temperature, position).
func (m *TestMeasurements) Force(temperature, position float64) (ForceSample, bool) {
	row, ok := m.rows[temperature]
	if !ok {
		return 0, false
	}
	c, ok := row.cells[position]
	if !ok || len(c.samples) == 0 {
		return 0, false
	}
	return c.samples[len(c.samples)-1], true
}

// Len returns the number of (temperature, position) slots recorded.
func (m *TestMeasurements) Len() int {
	n := 0
	for _, row := range m.rows {
		n += len(row.order)
	}
	return n
}

// MeasurementRow is one (temperature, position, force) slot of a
// Snapshot, suitable for handing to an external collaborator (CSV
// writer, UI).
type MeasurementRow struct {
	Temperature float64
	Position    float64
	Force       ForceSample
}

// Snapshot returns every recorded slot in canonical (temperature, then
// position) insertion order.
func (m *TestMeasurements) Snapshot() []MeasurementRow {
	var out []MeasurementRow
	for _, t := range m.temperatureOrder {
		row := m.rows[t]
		for _, p := range row.order {
			c := row.cells[p]
			if len(c.samples) == 0 {
				continue
			}
			out = append(out, MeasurementRow{Temperature: t, Position: p, Force: c.samples[len(c.samples)-1]})
		}
	}
	return out
}

func (m *TestMeasurements) String() string {
	return fmt.Sprintf("TestMeasurements{%d temperatures, %d slots}", len(m.temperatureOrder), m.Len())
}
