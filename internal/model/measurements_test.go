package model

import (
	"reflect"
	"testing"
)

func TestTestMeasurementsPreservesInsertionOrder(t *testing.T) {
	m := NewTestMeasurements()
	m.Record(60.0, 20.0, 1)
	m.Record(25.0, 10.0, 2)
	m.Record(60.0, 10.0, 3)

	gotTemps := m.Temperatures()
	wantTemps := []float64{60.0, 25.0}
	if !reflect.DeepEqual(gotTemps, wantTemps) {
		t.Errorf("Temperatures() = %v, want %v", gotTemps, wantTemps)
	}

	gotPositions := m.Positions(60.0)
	wantPositions := []float64{20.0, 10.0}
	if !reflect.DeepEqual(gotPositions, wantPositions) {
		t.Errorf("Positions(60.0) = %v, want %v", gotPositions, wantPositions)
	}
}

func TestTestMeasurementsAggregateMean(t *testing.T) {
	m := NewTestMeasurements()
	m.Record(25.0, 10.0, 10.0)
	m.Record(25.0, 10.0, 11.0)
	m.Aggregate()

	force, ok := m.Force(25.0, 10.0)
	if !ok {
		t.Fatal("Force(25.0, 10.0) not found after Aggregate")
	}
	if float64(force) != 10.5 {
		t.Errorf("aggregated force = %v, want 10.5", force)
	}
}

func TestTestMeasurementsMissingSlot(t *testing.T) {
	m := NewTestMeasurements()
	if _, ok := m.Force(1.0, 1.0); ok {
		t.Error("Force on empty matrix should report ok=false")
	}
}

func TestForceSampleIsFinite(t *testing.T) {
	if !ForceSample(1.0).IsFinite() {
		t.Error("1.0 should be finite")
	}
}
