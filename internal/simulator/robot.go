// Package simulator provides deterministic in-memory device
// implementations satisfying the capability.* interfaces (spec §4.7,
// C7), always available regardless of what hardware is present.
package simulator

import (
	"context"
	"fmt"
	"sync"

	"github.com/soochol/eol-force-tester/internal/capability"
)

// Robot is a deterministic robot-axis simulator. Motion completes
// synchronously: MoveAbsolute updates the stored position before
// returning, matching spec §4.7 ("move_absolute completes
// synchronously").
type Robot struct {
	mu        sync.Mutex
	connected bool
	servoOn   map[int]bool
	positions map[int]float64
	inMotion  bool

	// forceSearchingAxis, if set, makes HomeAxis never report success
	// for that axis — a test fixture for the "homing never completes"
	// boundary case (spec §8).
	forceSearchingAxis int
	forceSearching     bool
}

// NewRobot returns a ready-to-connect robot simulator.
func NewRobot() *Robot {
	return &Robot{
		servoOn:   make(map[int]bool),
		positions: make(map[int]float64),
	}
}

// ForceHomingNeverCompletes is a test-only hook making every later
// HomeAxis call for axis fail at once with an error, standing in for a
// homing search that never completes.
func (r *Robot) ForceHomingNeverCompletes(axis int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forceSearchingAxis = axis
	r.forceSearching = true
}

func (r *Robot) Connect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected = true
	return nil
}

func (r *Robot) Disconnect(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connected = false
	return nil
}

func (r *Robot) IsConnected() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.connected
}

func (r *Robot) EnableServo(ctx context.Context, axis int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.servoOn[axis] = true
	return nil
}

func (r *Robot) DisableServo(ctx context.Context, axis int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.servoOn[axis] = false
	return nil
}

func (r *Robot) HomeAxis(ctx context.Context, axis int) error {
	r.mu.Lock()
	forceSearching := r.forceSearching && r.forceSearchingAxis == axis
	r.mu.Unlock()
	if forceSearching {
		return fmt.Errorf("simulator: robot: axis %d: homing never completes (test fixture)", axis)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.positions[axis] = 0
	return nil
}

func (r *Robot) MoveAbsolute(ctx context.Context, axis int, position, velocity, accel, decel float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.positions[axis] = position
	return nil
}

func (r *Robot) GetPosition(ctx context.Context, axis int) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.positions[axis], nil
}

func (r *Robot) StopMotion(ctx context.Context, axis int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inMotion = false
	return nil
}

func (r *Robot) EmergencyStop(ctx context.Context, axis int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inMotion = false
	return nil
}

func (r *Robot) Status(ctx context.Context) (capability.RobotStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	positions := make(map[int]float64, len(r.positions))
	for k, v := range r.positions {
		positions[k] = v
	}
	return capability.RobotStatus{Connected: r.connected, LastPosition: positions, InMotion: r.inMotion}, nil
}

var _ capability.Robot = (*Robot)(nil)
