package simulator

import (
	"context"
	"math"
	"testing"
)

func TestMCUConvergesTowardTarget(t *testing.T) {
	m := NewMCU()
	ctx := context.Background()
	if err := m.SetOperatingTemperature(ctx, 60.0); err != nil {
		t.Fatalf("SetOperatingTemperature: %v", err)
	}

	var last float64
	for i := 0; i < 200; i++ {
		v, err := m.GetTemperature(ctx)
		if err != nil {
			t.Fatalf("GetTemperature: %v", err)
		}
		last = v
	}
	if math.Abs(last-60.0) > 1.0 {
		t.Errorf("temperature did not converge: got %v, want close to 60.0", last)
	}
}

func TestMCUIsSimulator(t *testing.T) {
	m := NewMCU()
	if !m.IsSimulator() {
		t.Error("expected IsSimulator() = true")
	}
}

func TestMCUStandbyCoolingUsesStoredStandbyTemp(t *testing.T) {
	m := NewMCU()
	ctx := context.Background()
	if err := m.StartStandbyHeating(ctx, 60.0, 25.0); err != nil {
		t.Fatalf("StartStandbyHeating: %v", err)
	}
	if err := m.StartStandbyCooling(ctx); err != nil {
		t.Fatalf("StartStandbyCooling: %v", err)
	}
	if m.target != 25.0 {
		t.Errorf("target after StartStandbyCooling = %v, want 25.0", m.target)
	}
}
