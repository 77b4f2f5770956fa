// Package orchestrator implements the test-cycle state machine (spec
// §4.10, C10): setup, standby sequencing, nested repeat/temperature/
// position measurement, teardown, cancellation, and emergency-stop.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/soochol/eol-force-tester/internal/eolerr"
	"github.com/soochol/eol-force-tester/internal/facade"
	"github.com/soochol/eol-force-tester/internal/logx"
	"github.com/soochol/eol-force-tester/internal/model"
	"github.com/soochol/eol-force-tester/internal/result"
)

// peakForceDuration and peakForceSampleInterval are the default
// read_peak_force parameters used for each measurement (spec §4.10).
const (
	peakForceDuration       = 1000 * time.Millisecond
	peakForceSampleInterval = 200 * time.Millisecond
)

// verifyRetryInterval is the wait between temperature-verification
// attempts (spec §4.10.3).
const verifyRetryInterval = 1 * time.Second

// verifyAttempts is the initial attempt plus retries (spec §4.10.3:
// "up to 11 attempts").
const verifyAttempts = 11

// simulatorVerifyDelay is the fixed delay substituted for the full
// verification loop when the MCU backend advertises simulator identity
// (spec §4.10.3).
const simulatorVerifyDelay = 100 * time.Millisecond

// Progress is one opaque progress event (spec §6: "phase, step,
// timestamp, optional extra").
type Progress struct {
	Phase     string
	Step      string
	Timestamp time.Time
	Extra     string
}

// Orchestrator executes test cycles against a single facade. It is not
// safe for concurrent execute_cycle calls; the spec models a single
// logical task driving one station.
type Orchestrator struct {
	facade *facade.Facade
	sink   logx.Sink

	mu              sync.Mutex
	emergencyActive bool

	progress chan<- Progress
}

// New returns an Orchestrator driving f. progress, if non-nil, receives
// every emitted Progress event; the caller is responsible for draining
// it promptly since sends are unbuffered from the orchestrator's point
// of view if the channel isn't itself buffered.
func New(f *facade.Facade, sink logx.Sink, progress chan<- Progress) *Orchestrator {
	if sink == nil {
		sink = logx.Noop{}
	}
	return &Orchestrator{facade: f, sink: sink, progress: progress}
}

func (o *Orchestrator) emit(phase, step, extra string) {
	o.sink.Infof("orchestrator: %s/%s %s", phase, step, extra)
	if o.progress != nil {
		o.progress <- Progress{Phase: phase, Step: step, Timestamp: time.Now(), Extra: extra}
	}
}

// ResetEmergency clears the sticky emergency-active flag. It must be
// called explicitly before another cycle can start after an
// emergency-stop (spec §4.10.2).
func (o *Orchestrator) ResetEmergency() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.emergencyActive = false
}

// EmergencyActive reports whether the sticky flag is set.
func (o *Orchestrator) EmergencyActive() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.emergencyActive
}

// TriggerEmergencyStop issues, best-effort and in order, robot
// emergency-stop then power disable, then sets the sticky flag (spec
// §4.10.2). Both calls are swallowed — emergency-stop must never raise
// out.
func (o *Orchestrator) TriggerEmergencyStop(ctx context.Context, axis int) {
	if err := o.facade.Robot.EmergencyStop(ctx, axis); err != nil {
		o.sink.Warnf("orchestrator: emergency_stop: robot.emergency_stop failed: %v", err)
	}
	if err := o.facade.Power.DisableOutput(ctx); err != nil {
		o.sink.Warnf("orchestrator: emergency_stop: power.disable_output failed: %v", err)
	}
	o.mu.Lock()
	o.emergencyActive = true
	o.mu.Unlock()
}

// ExecuteCycle runs one complete test cycle (spec §4.10). cycleNumber is
// carried through into the resulting CycleResult for multi-cycle
// aggregation.
func (o *Orchestrator) ExecuteCycle(ctx context.Context, cycleNumber int, testCfg model.TestConfiguration, hwCfg model.HardwareConfig, dut model.DUTCommandInfo) model.CycleResult {
	start := time.Now()

	if o.EmergencyActive() {
		return model.CycleResult{
			CycleNumber:  cycleNumber,
			IsPassed:     false,
			Measurements: model.NewTestMeasurements(),
			ErrorMessage: (&eolerr.SafetyViolationError{Reason: "emergency-stop is active; call reset_emergency() before starting another cycle"}).Error(),
			CompletedAt:  time.Now(),
		}
	}

	measurements := model.NewTestMeasurements()
	state := model.StateCreated
	robotState := model.RobotUnknown

	var cycleErr error

	state = model.StateInitialized
	o.emit("Initialized", "begin", "")

	if err := ctx.Err(); err == nil {
		if err := o.setup(ctx, testCfg, hwCfg, &robotState); err != nil {
			cycleErr = err
		} else {
			state = model.StateSetupComplete
			o.emit("SetupComplete", "begin", "")
		}
	} else {
		cycleErr = err
	}

	if cycleErr == nil {
		if err := ctx.Err(); err != nil {
			cycleErr = err
		} else {
			state = model.StateMeasuring
			o.emit("Measuring", "begin", "")
			if err := o.measure(ctx, testCfg, hwCfg, measurements, &robotState); err != nil {
				cycleErr = err
			}
		}
	}

	if testCfg.RepeatCount > 1 {
		measurements.Aggregate()
	}

	o.teardown(ctx, testCfg, hwCfg, &robotState)
	state = model.StateTeardownComplete
	o.emit("TeardownComplete", "begin", "")

	duration := time.Since(start)

	if cycleErr != nil {
		if ctx.Err() != nil {
			state = model.StateCancelled
			o.emit("Cancelled", "end", cycleErr.Error())
		} else {
			state = model.StateFailed
			o.emit("Failed", "end", cycleErr.Error())
		}
		return model.CycleResult{
			CycleNumber:       cycleNumber,
			IsPassed:          false,
			Measurements:      measurements,
			ExecutionDuration: duration,
			CompletedAt:       time.Now(),
			ErrorMessage:      cycleErr.Error(),
			Notes:             fmt.Sprintf("terminal state=%s", state),
		}
	}

	state = model.StateDone
	o.emit("Done", "end", "")

	passed := result.Evaluate(measurements, testCfg.TemperatureList, testCfg.StrokePositions, testCfg.PassCriteria)
	return model.CycleResult{
		CycleNumber:       cycleNumber,
		IsPassed:          passed,
		Measurements:      measurements,
		ExecutionDuration: duration,
		CompletedAt:       time.Now(),
		Notes:             fmt.Sprintf("terminal state=%s", state),
	}
}

func (o *Orchestrator) wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(d):
		return ctx.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// setup runs the setup phase: power-on, MCU boot, test mode, then the
// standby sequence (spec §4.10 setup phase + §4.10.1).
func (o *Orchestrator) setup(ctx context.Context, cfg model.TestConfiguration, hwCfg model.HardwareConfig, robotState *model.RobotState) error {
	o.emit("Initialized", "power_enable_output", "")
	if err := o.facade.Power.EnableOutput(ctx); err != nil {
		return err
	}
	if err := o.wait(ctx, cfg.PowerOnStabilization); err != nil {
		return err
	}

	o.emit("Initialized", "mcu_wait_boot_complete", "")
	if err := o.facade.MCU.WaitBootComplete(ctx, time.Duration(cfg.TimeoutSeconds)*time.Second); err != nil {
		return err
	}
	if err := o.wait(ctx, cfg.MCUBootCompleteStabilization); err != nil {
		return err
	}

	o.emit("Initialized", "mcu_set_test_mode", "")
	if err := o.facade.MCU.SetTestMode(ctx, model.MCUMode1); err != nil {
		return err
	}
	if err := o.wait(ctx, cfg.MCUCommandStabilization); err != nil {
		return err
	}

	return o.standbySequence(ctx, cfg, hwCfg, robotState)
}

// standbySequence is spec §4.10.1.
func (o *Orchestrator) standbySequence(ctx context.Context, cfg model.TestConfiguration, hwCfg model.HardwareConfig, robotState *model.RobotState) error {
	o.emit("SetupComplete", "mcu_set_upper_temperature", "")
	if err := o.facade.MCU.SetUpperTemperature(ctx, cfg.UpperTemp); err != nil {
		return err
	}
	if err := o.wait(ctx, cfg.MCUCommandStabilization); err != nil {
		return err
	}

	o.emit("SetupComplete", "mcu_set_fan_speed", "")
	if err := o.facade.MCU.SetFanSpeed(ctx, cfg.FanSpeed); err != nil {
		return err
	}
	if err := o.wait(ctx, cfg.MCUCommandStabilization); err != nil {
		return err
	}

	o.emit("SetupComplete", "mcu_start_standby_heating", "")
	if err := o.facade.MCU.StartStandbyHeating(ctx, cfg.ActivationTemp, cfg.StandbyTemp); err != nil {
		return err
	}
	if err := o.wait(ctx, cfg.MCUCommandStabilization); err != nil {
		return err
	}

	o.emit("SetupComplete", "verify_activation_temp", "")
	if err := o.verifyTemperature(ctx, cfg.ActivationTemp, cfg.TemperatureTol); err != nil {
		return err
	}

	o.emit("SetupComplete", "robot_move_max_stroke", "")
	if err := o.facade.Robot.MoveAbsolute(ctx, hwCfg.RobotAxis, cfg.OperatingPosition, cfg.Velocity, cfg.Acceleration, cfg.Deceleration); err != nil {
		return err
	}
	if err := o.wait(ctx, cfg.RobotMoveStabilization); err != nil {
		return err
	}
	*robotState = model.RobotMaxStroke

	if err := o.wait(ctx, cfg.RobotStandbyStabilization); err != nil {
		return err
	}

	o.emit("SetupComplete", "robot_move_initial_position", "")
	if err := o.facade.Robot.MoveAbsolute(ctx, hwCfg.RobotAxis, cfg.InitialPosition, cfg.Velocity, cfg.Acceleration, cfg.Deceleration); err != nil {
		return err
	}
	if err := o.wait(ctx, cfg.RobotMoveStabilization); err != nil {
		return err
	}
	*robotState = model.RobotInitialPosition

	o.emit("SetupComplete", "mcu_start_standby_cooling", "")
	if err := o.facade.MCU.StartStandbyCooling(ctx); err != nil {
		return err
	}
	if err := o.wait(ctx, cfg.MCUCommandStabilization); err != nil {
		return err
	}

	o.emit("SetupComplete", "verify_standby_temp", "")
	return o.verifyTemperature(ctx, cfg.StandbyTemp, cfg.TemperatureTol)
}

// measure runs the nested repeat/temperature/position measurement
// phase (spec §4.10 measurement phase).
func (o *Orchestrator) measure(ctx context.Context, cfg model.TestConfiguration, hwCfg model.HardwareConfig, measurements *model.TestMeasurements, robotState *model.RobotState) error {
	for repeat := 1; repeat <= cfg.RepeatCount; repeat++ {
		for _, temperature := range cfg.TemperatureList {
			if err := ctx.Err(); err != nil {
				return err
			}

			o.emit("Measuring", "mcu_set_operating_temperature", fmt.Sprintf("repeat=%d temperature=%.2f", repeat, temperature))
			if err := o.facade.MCU.SetOperatingTemperature(ctx, temperature); err != nil {
				return err
			}
			if err := o.wait(ctx, cfg.MCUCommandStabilization); err != nil {
				return err
			}

			if err := o.verifyTemperature(ctx, temperature, cfg.TemperatureTol); err != nil {
				return err
			}

			for _, position := range cfg.StrokePositions {
				if err := ctx.Err(); err != nil {
					return err
				}

				o.emit("Measuring", "robot_move_to_position", fmt.Sprintf("position=%.2f", position))
				if err := o.facade.Robot.MoveAbsolute(ctx, hwCfg.RobotAxis, position, cfg.Velocity, cfg.Acceleration, cfg.Deceleration); err != nil {
					return err
				}
				if err := o.wait(ctx, cfg.RobotMoveStabilization); err != nil {
					return err
				}
				*robotState = model.RobotMeasurementPosition

				force, err := o.facade.Loadcell.ReadPeakForce(ctx, peakForceDuration, peakForceSampleInterval)
				if err != nil {
					return err
				}
				measurements.Record(temperature, position, model.ForceSample(force))
			}

			if *robotState != model.RobotInitialPosition {
				o.emit("Measuring", "robot_return_to_initial_position", "")
				if err := o.facade.Robot.MoveAbsolute(ctx, hwCfg.RobotAxis, cfg.InitialPosition, cfg.Velocity, cfg.Acceleration, cfg.Deceleration); err != nil {
					return err
				}
				if err := o.wait(ctx, cfg.RobotMoveStabilization); err != nil {
					return err
				}
				*robotState = model.RobotInitialPosition
			}

			o.emit("Measuring", "mcu_start_standby_cooling", "")
			if err := o.facade.MCU.StartStandbyCooling(ctx); err != nil {
				return err
			}
			if err := o.wait(ctx, cfg.MCUCommandStabilization); err != nil {
				return err
			}

			if err := o.verifyTemperature(ctx, cfg.StandbyTemp, cfg.TemperatureTol); err != nil {
				return err
			}
		}
	}
	return nil
}

// teardown returns the robot to its initial position and disables power output. It never
// aborts the cycle: failures are logged and swallowed (spec §4.10
// teardown phase).
func (o *Orchestrator) teardown(ctx context.Context, cfg model.TestConfiguration, hwCfg model.HardwareConfig, robotState *model.RobotState) {
	teardownCtx := context.Background()

	if *robotState != model.RobotInitialPosition {
		if err := o.facade.Robot.MoveAbsolute(teardownCtx, hwCfg.RobotAxis, cfg.InitialPosition, cfg.Velocity, cfg.Acceleration, cfg.Deceleration); err != nil {
			o.sink.Warnf("orchestrator: teardown: move to initial position failed: %v", err)
		} else {
			*robotState = model.RobotInitialPosition
			_ = o.wait(teardownCtx, cfg.TeardownStabilization)
		}
	}

	if err := o.facade.Power.DisableOutput(teardownCtx); err != nil {
		o.sink.Warnf("orchestrator: teardown: power.disable_output failed: %v", err)
	}
}

// verifyTemperature is spec §4.10.3: up to 11 attempts (initial + 10
// retries at 1s intervals). Suppressed to a fixed 100ms delay when the
// MCU backend is a simulator.
func (o *Orchestrator) verifyTemperature(ctx context.Context, expected, tolerance float64) error {
	if o.facade.MCU.IsSimulator() {
		return o.wait(ctx, simulatorVerifyDelay)
	}

	var lastActual float64
	for attempt := 0; attempt < verifyAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		actual, err := o.facade.MCU.GetTemperature(ctx)
		if err != nil {
			return err
		}
		lastActual = actual
		diff := actual - expected
		if diff < 0 {
			diff = -diff
		}
		if diff <= tolerance {
			return nil
		}
		if attempt < verifyAttempts-1 {
			if err := o.wait(ctx, verifyRetryInterval); err != nil {
				return err
			}
		}
	}
	diff := lastActual - expected
	if diff < 0 {
		diff = -diff
	}
	return &eolerr.OperationError{
		Device:    "mcu",
		Operation: "verify_temperature",
		Reason:    fmt.Sprintf("expected=%.2f actual=%.2f diff=%.2f exceeds tolerance=%.2f", expected, lastActual, diff, tolerance),
	}
}
