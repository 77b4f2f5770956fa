package simulator

import (
	"context"
	"testing"
)

func TestDIOWriteReadOutput(t *testing.T) {
	d := NewDIO()
	ctx := context.Background()

	if err := d.WriteOutput(ctx, 3, true); err != nil {
		t.Fatalf("WriteOutput: %v", err)
	}
	v, err := d.ReadOutput(ctx, 3)
	if err != nil {
		t.Fatalf("ReadOutput: %v", err)
	}
	if !v {
		t.Error("ReadOutput(3) = false, want true")
	}
}

func TestDIOSetAllOutputs(t *testing.T) {
	d := NewDIO()
	ctx := context.Background()
	if err := d.SetAllOutputs(ctx, true); err != nil {
		t.Fatalf("SetAllOutputs: %v", err)
	}
	all, err := d.ReadAllInputs(ctx) // inputs unaffected, sanity check bounds
	if err != nil {
		t.Fatalf("ReadAllInputs: %v", err)
	}
	if len(all) != dioChannels {
		t.Errorf("ReadAllInputs length = %d, want %d", len(all), dioChannels)
	}
	v, _ := d.ReadOutput(ctx, dioChannels-1)
	if !v {
		t.Error("expected last output channel to be set")
	}
}

func TestDIOOutOfRangeChannel(t *testing.T) {
	d := NewDIO()
	if err := d.WriteOutput(context.Background(), dioChannels+1, true); err == nil {
		t.Fatal("expected error for out-of-range channel")
	}
}

func TestDIOResetAllOutputs(t *testing.T) {
	d := NewDIO()
	ctx := context.Background()
	_ = d.SetAllOutputs(ctx, true)
	if err := d.ResetAllOutputs(ctx); err != nil {
		t.Fatalf("ResetAllOutputs: %v", err)
	}
	v, _ := d.ReadOutput(ctx, 0)
	if v {
		t.Error("expected output 0 to be cleared after ResetAllOutputs")
	}
}
