package simulator

import (
	"context"
	"testing"
)

func TestRobotMoveAbsoluteCompletesSynchronously(t *testing.T) {
	r := NewRobot()
	ctx := context.Background()

	if err := r.MoveAbsolute(ctx, 0, 42.0, 50, 200, 200); err != nil {
		t.Fatalf("MoveAbsolute: %v", err)
	}
	pos, err := r.GetPosition(ctx, 0)
	if err != nil {
		t.Fatalf("GetPosition: %v", err)
	}
	if pos != 42.0 {
		t.Errorf("GetPosition() = %v, want 42.0", pos)
	}
}

func TestRobotHomeAxisNeverCompletes(t *testing.T) {
	r := NewRobot()
	r.ForceHomingNeverCompletes(0)
	if err := r.HomeAxis(context.Background(), 0); err == nil {
		t.Fatal("expected HomeAxis to fail when forced into perpetual searching")
	}
}

func TestRobotStatusReportsPositions(t *testing.T) {
	r := NewRobot()
	ctx := context.Background()
	_ = r.MoveAbsolute(ctx, 1, 7.5, 1, 1, 1)

	st, err := r.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.LastPosition[1] != 7.5 {
		t.Errorf("Status().LastPosition[1] = %v, want 7.5", st.LastPosition[1])
	}
}
