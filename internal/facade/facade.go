// Package facade is the hardware facade (spec §4.9, C9): it fans out
// connect/disconnect across the five device capabilities and drives the
// one-shot hardware-initialization sequence the orchestrator calls
// before a cycle's standby sequence.
package facade

import (
	"context"
	"sync"
	"time"

	"github.com/soochol/eol-force-tester/internal/capability"
	"github.com/soochol/eol-force-tester/internal/logx"
	"github.com/soochol/eol-force-tester/internal/model"
)

// Facade owns the five device handles for one test station and the
// ensure_homed one-shot flag (spec §4.9: "the robot has no memory of
// homing across reconnects").
type Facade struct {
	Robot    capability.Robot
	MCU      capability.MCU
	Power    capability.Power
	Loadcell capability.Loadcell
	DIO      capability.DIO

	sink logx.Sink

	mu         sync.Mutex
	robotHomed bool
}

// New returns a facade wrapping the given backends (simulator or
// hardware, selected by internal/factory).
func New(robot capability.Robot, mcu capability.MCU, power capability.Power, loadcell capability.Loadcell, dio capability.DIO, sink logx.Sink) *Facade {
	if sink == nil {
		sink = logx.Noop{}
	}
	return &Facade{Robot: robot, MCU: mcu, Power: power, Loadcell: loadcell, DIO: dio, sink: sink}
}

type namedConnector struct {
	name string
	fn   func(ctx context.Context) error
}

// ConnectAll connects every device in parallel; on any individual
// failure it collects all errors, disconnects whatever did connect,
// and fails (spec §4.9).
func (f *Facade) ConnectAll(ctx context.Context) error {
	devices := []namedConnector{
		{"robot", f.Robot.Connect},
		{"mcu", f.MCU.Connect},
		{"power", f.Power.Connect},
		{"loadcell", f.Loadcell.Connect},
		{"dio", f.DIO.Connect},
	}
	errs := make([]error, len(devices))
	var wg sync.WaitGroup
	for i, d := range devices {
		wg.Add(1)
		go func(i int, d namedConnector) {
			defer wg.Done()
			errs[i] = d.fn(ctx)
		}(i, d)
	}
	wg.Wait()

	var failed bool
	var combined []error
	for i, err := range errs {
		if err != nil {
			failed = true
			combined = append(combined, err)
			f.sink.Errorf("facade: connect_all: %s failed: %v", devices[i].name, err)
		}
	}
	if !failed {
		return nil
	}

	var disconnectWg sync.WaitGroup
	for i, d := range devices {
		if errs[i] != nil {
			continue
		}
		disconnectWg.Add(1)
		name := d.name
		disconnector := f.disconnectorFor(name)
		go func() {
			defer disconnectWg.Done()
			if disconnector != nil {
				if derr := disconnector(ctx); derr != nil {
					f.sink.Warnf("facade: connect_all: rollback disconnect of %s failed: %v", name, derr)
				}
			}
		}()
	}
	disconnectWg.Wait()

	return &multiError{errs: combined}
}

func (f *Facade) disconnectorFor(name string) func(ctx context.Context) error {
	switch name {
	case "robot":
		return f.Robot.Disconnect
	case "mcu":
		return f.MCU.Disconnect
	case "power":
		return f.Power.Disconnect
	case "loadcell":
		return f.Loadcell.Disconnect
	case "dio":
		return f.DIO.Disconnect
	default:
		return nil
	}
}

// Shutdown disables the power output (best-effort) then disconnects
// every device in parallel, ignoring individual failures but logging
// them (spec §4.9).
func (f *Facade) Shutdown(ctx context.Context) {
	if err := f.Power.DisableOutput(ctx); err != nil {
		f.sink.Warnf("facade: shutdown: disable_output failed: %v", err)
	}
	disconnectors := []namedConnector{
		{"robot", f.Robot.Disconnect},
		{"mcu", f.MCU.Disconnect},
		{"power", f.Power.Disconnect},
		{"loadcell", f.Loadcell.Disconnect},
		{"dio", f.DIO.Disconnect},
	}
	var wg sync.WaitGroup
	for _, d := range disconnectors {
		wg.Add(1)
		go func(d namedConnector) {
			defer wg.Done()
			if err := d.fn(ctx); err != nil {
				f.sink.Warnf("facade: shutdown: %s disconnect failed: %v", d.name, err)
			}
		}(d)
	}
	wg.Wait()
}

// InitializeHardware runs the one-time hardware bring-up sequence (spec
// §4.9): brake release, power setpoints with stabilization, then
// servo-on/ensure_homed/move-to-initial-position for the robot.
func (f *Facade) InitializeHardware(ctx context.Context, testCfg model.TestConfiguration, hwCfg model.HardwareConfig) error {
	if err := f.DIO.WriteOutput(ctx, hwCfg.PinBrakeRelease, true); err != nil {
		return err
	}

	if err := f.Power.DisableOutput(ctx); err != nil {
		return err
	}
	if err := f.Power.SetVoltage(ctx, testCfg.Voltage); err != nil {
		return err
	}
	if err := wait(ctx, testCfg.PowerCommandStabilization); err != nil {
		return err
	}
	if err := f.Power.SetCurrent(ctx, testCfg.Current); err != nil {
		return err
	}
	if err := wait(ctx, testCfg.PowerCommandStabilization); err != nil {
		return err
	}
	if err := f.Power.SetCurrentLimit(ctx, testCfg.CurrentLimit); err != nil {
		return err
	}
	if err := wait(ctx, testCfg.PowerCommandStabilization); err != nil {
		return err
	}

	if err := f.Robot.EnableServo(ctx, hwCfg.RobotAxis); err != nil {
		return err
	}
	if err := f.ensureHomed(ctx, hwCfg.RobotAxis); err != nil {
		return err
	}
	if err := f.Robot.MoveAbsolute(ctx, hwCfg.RobotAxis, testCfg.InitialPosition, testCfg.Velocity, testCfg.Acceleration, testCfg.Deceleration); err != nil {
		return err
	}
	return wait(ctx, testCfg.RobotMoveStabilization)
}

// ensureHomed is a property of the facade, not the robot: it homes only
// once per facade lifetime (spec §4.9).
func (f *Facade) ensureHomed(ctx context.Context, axis int) error {
	f.mu.Lock()
	if f.robotHomed {
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()

	if err := f.Robot.HomeAxis(ctx, axis); err != nil {
		return err
	}

	f.mu.Lock()
	f.robotHomed = true
	f.mu.Unlock()
	return nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// multiError combines several device errors from a failed ConnectAll.
type multiError struct {
	errs []error
}

func (m *multiError) Error() string {
	s := "facade: connect_all failed: "
	for i, e := range m.errs {
		if i > 0 {
			s += "; "
		}
		s += e.Error()
	}
	return s
}

func (m *multiError) Unwrap() []error { return m.errs }
