package hardware

import (
	"context"
	"time"

	"github.com/soochol/eol-force-tester/internal/capability"
	"github.com/soochol/eol-force-tester/internal/eolerr"
	"github.com/soochol/eol-force-tester/internal/motionlib"
)

// homingCap bounds how long HomeAxis waits for Success (spec §4.6).
const homingCap = 60 * time.Second

// moveCap bounds how long MoveAbsolute waits for motion completion.
const moveCap = 30 * time.Second

// motionPollInterval is the minimum polling interval for motion
// completion (spec §4.6: "polled at >= 10 ms interval").
const motionPollInterval = 10 * time.Millisecond

// Robot is the hardware robot backend, bound to the shared motion
// library handle (spec §4.5, §4.8).
type Robot struct {
	handle *motionlib.Handle
}

// NewRobot returns a robot hardware backend sharing handle with the DIO
// backend.
func NewRobot(handle *motionlib.Handle) *Robot {
	return &Robot{handle: handle}
}

func (r *Robot) bind() motionlib.Binding { return r.handle.Binding() }

func (r *Robot) Connect(ctx context.Context) error { return nil }

func (r *Robot) Disconnect(ctx context.Context) error { return nil }

func (r *Robot) IsConnected() bool {
	b := r.bind()
	return b != nil && b.IsOpened()
}

func (r *Robot) EnableServo(ctx context.Context, axis int) error {
	if err := r.bind().ServoOn(axis); err != nil {
		return &eolerr.OperationError{Device: "robot", Operation: "enable_servo", Reason: "driver failure", Cause: err}
	}
	return nil
}

func (r *Robot) DisableServo(ctx context.Context, axis int) error {
	if err := r.bind().ServoOff(axis); err != nil {
		return &eolerr.OperationError{Device: "robot", Operation: "disable_servo", Reason: "driver failure", Cause: err}
	}
	return nil
}

// HomeAxis blocks until the motion library reports Success, enforcing
// a 60s wall-clock cap (spec §4.6).
func (r *Robot) HomeAxis(ctx context.Context, axis int) error {
	b := r.bind()
	if err := b.HomeSetStart(axis); err != nil {
		return &eolerr.OperationError{Device: "robot", Operation: "home_axis", Reason: "driver failure", Cause: err}
	}
	deadline := time.Now().Add(homingCap)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if time.Now().After(deadline) {
			return &eolerr.TimeoutError{Device: "robot", Operation: "home_axis"}
		}
		result, err := b.HomeGetResult(axis)
		if err != nil {
			return &eolerr.OperationError{Device: "robot", Operation: "home_axis", Reason: "driver failure", Cause: err}
		}
		switch result {
		case motionlib.HomeSuccess:
			return nil
		case motionlib.HomeSearching:
			if err := sleepOrCancel(ctx, motionPollInterval); err != nil {
				return err
			}
		default:
			return &eolerr.OperationError{Device: "robot", Operation: "home_axis", Reason: "homing reported an error result"}
		}
	}
}

// MoveAbsolute starts motion and awaits completion, polled at >= 10 ms
// intervals with a 30s cap (spec §4.6).
func (r *Robot) MoveAbsolute(ctx context.Context, axis int, position, velocity, accel, decel float64) error {
	b := r.bind()
	if err := b.MoveStartPos(axis, position, velocity, accel, decel); err != nil {
		return &eolerr.OperationError{Device: "robot", Operation: "move_absolute", Reason: "driver failure", Cause: err}
	}
	deadline := time.Now().Add(moveCap)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if time.Now().After(deadline) {
			return &eolerr.TimeoutError{Device: "robot", Operation: "move_absolute"}
		}
		moving, err := b.ReadInMotion(axis)
		if err != nil {
			return &eolerr.OperationError{Device: "robot", Operation: "move_absolute", Reason: "driver failure", Cause: err}
		}
		if !moving {
			return nil
		}
		if err := sleepOrCancel(ctx, motionPollInterval); err != nil {
			return err
		}
	}
}

func (r *Robot) GetPosition(ctx context.Context, axis int) (float64, error) {
	pos, err := r.bind().GetActPos(axis)
	if err != nil {
		return 0, &eolerr.OperationError{Device: "robot", Operation: "get_position", Reason: "driver failure", Cause: err}
	}
	return pos, nil
}

// StopMotion is a best-effort decelerated stop; it never fails.
func (r *Robot) StopMotion(ctx context.Context, axis int) error {
	_ = r.bind().MoveSmoothStop(axis)
	return nil
}

// EmergencyStop must succeed even when servo is off; after success the
// robot is in a safe state for disable_servo/disconnect (spec §4.6).
func (r *Robot) EmergencyStop(ctx context.Context, axis int) error {
	_ = r.bind().MoveEmergencyStop(axis)
	return nil
}

func (r *Robot) Status(ctx context.Context) (capability.RobotStatus, error) {
	b := r.bind()
	positions := make(map[int]float64)
	moving := false
	if b != nil {
		if p, err := b.GetActPos(0); err == nil {
			positions[0] = p
		}
		if m, err := b.ReadInMotion(0); err == nil {
			moving = m
		}
	}
	return capability.RobotStatus{Connected: r.IsConnected(), LastPosition: positions, InMotion: moving}, nil
}

func sleepOrCancel(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ capability.Robot = (*Robot)(nil)
