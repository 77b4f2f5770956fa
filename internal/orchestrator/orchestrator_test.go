package orchestrator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/soochol/eol-force-tester/internal/capability"
	"github.com/soochol/eol-force-tester/internal/facade"
	"github.com/soochol/eol-force-tester/internal/logx"
	"github.com/soochol/eol-force-tester/internal/model"
	"github.com/soochol/eol-force-tester/internal/simulator"
)

func fastTestConfig() model.TestConfiguration {
	return model.TestConfiguration{
		Voltage: 24, Current: 2, CurrentLimit: 3,
		UpperTemp: 60, ActivationTemp: 40, StandbyTemp: 25,
		FanSpeed: 5, TemperatureTol: 5,
		TemperatureList: []float64{25, 40},
		Velocity:        50, Acceleration: 200, Deceleration: 200,
		InitialPosition: 0, OperatingPosition: 30,
		StrokePositions: []float64{10, 20},
		RepeatCount:     1,
		RetryAttempts:   1,
		TimeoutSeconds:  5,
		PassCriteria:    model.PassCriteria{ForceMin: -1000, ForceMax: 1000},
	}
}

func newTestRig() (*Orchestrator, *simulator.Robot, model.HardwareConfig, model.DUTCommandInfo) {
	robot := simulator.NewRobot()
	mcu := simulator.NewMCU()
	power := simulator.NewPower()
	loadcell := simulator.NewLoadcell(func() float64 {
		p, _ := robot.GetPosition(context.Background(), 0)
		return p
	})
	dio := simulator.NewDIO()

	f := facade.New(robot, mcu, power, loadcell, dio, logx.Noop{})
	orch := New(f, logx.Noop{}, nil)

	hwCfg := model.HardwareConfig{RobotAxis: 0, PinBrakeRelease: 1}
	dut := model.DUTCommandInfo{DUTID: "DUT-1", ModelNumber: "M1", SerialNumber: "S1", Manufacturer: "ACME"}
	return orch, robot, hwCfg, dut
}

func connectAndInit(t *testing.T, orch *Orchestrator, hwCfg model.HardwareConfig, cfg model.TestConfiguration) {
	t.Helper()
	ctx := context.Background()
	if err := orch.facade.ConnectAll(ctx); err != nil {
		t.Fatalf("ConnectAll: %v", err)
	}
	if err := orch.facade.InitializeHardware(ctx, cfg, hwCfg); err != nil {
		t.Fatalf("InitializeHardware: %v", err)
	}
}

func TestExecuteCycleHappyPath(t *testing.T) {
	orch, _, hwCfg, dut := newTestRig()
	cfg := fastTestConfig()
	connectAndInit(t, orch, hwCfg, cfg)

	result := orch.ExecuteCycle(context.Background(), 1, cfg, hwCfg, dut)

	if result.ErrorMessage != "" {
		t.Fatalf("unexpected error: %s", result.ErrorMessage)
	}
	if !result.IsPassed {
		t.Error("expected cycle to pass")
	}
	want := len(cfg.TemperatureList) * len(cfg.StrokePositions)
	if got := result.Measurements.Len(); got != want {
		t.Errorf("Measurements.Len() = %d, want %d", got, want)
	}
}

func TestExecuteCycleMultiRepeatAverages(t *testing.T) {
	orch, _, hwCfg, dut := newTestRig()
	cfg := fastTestConfig()
	cfg.RepeatCount = 2
	connectAndInit(t, orch, hwCfg, cfg)

	// Give the second repeat a +1.0 loadcell offset (the first has 0.0).
	// The next progress send blocks until this reader has handled the
	// previous event, so the offset is set before repeat 2's first read.
	lc := orch.facade.Loadcell.(*simulator.Loadcell)
	progress := make(chan Progress)
	orch.progress = progress
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progress {
			if p.Step == "mcu_set_operating_temperature" && strings.HasPrefix(p.Extra, "repeat=2 ") {
				lc.SetRepeatIndex(1)
			}
		}
	}()

	result := orch.ExecuteCycle(context.Background(), 1, cfg, hwCfg, dut)
	close(progress)
	<-done
	if result.ErrorMessage != "" {
		t.Fatalf("unexpected error: %s", result.ErrorMessage)
	}
	want := len(cfg.TemperatureList) * len(cfg.StrokePositions)
	if got := result.Measurements.Len(); got != want {
		t.Errorf("Measurements.Len() after aggregate = %d, want %d", got, want)
	}
	for _, temp := range cfg.TemperatureList {
		for _, pos := range cfg.StrokePositions {
			force, ok := result.Measurements.Force(temp, pos)
			if wantForce := pos + 0.5; !ok || float64(force) != wantForce {
				t.Errorf("Force(%v, %v) = (%v, %v), want mean of %v and %v = %v", temp, pos, force, ok, pos, pos+1, wantForce)
			}
		}
	}
}

func TestExecuteCycleCancellationMidMeasurement(t *testing.T) {
	orch, robot, hwCfg, dut := newTestRig()
	cfg := fastTestConfig()
	connectAndInit(t, orch, hwCfg, cfg)

	// Cancel from inside the loadcell read at the second stroke position,
	// after exactly one (temperature, position) sample has been recorded.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	orch.facade.Loadcell = simulator.NewLoadcell(func() float64 {
		p, _ := robot.GetPosition(context.Background(), hwCfg.RobotAxis)
		if p == cfg.StrokePositions[1] {
			cancel()
		}
		return p
	})

	result := orch.ExecuteCycle(ctx, 1, cfg, hwCfg, dut)
	if result.IsPassed {
		t.Error("expected cancelled cycle to not pass")
	}
	if result.ErrorMessage == "" {
		t.Error("expected an error message for a cancelled cycle")
	}
	if got := result.Measurements.Len(); got != 1 {
		t.Errorf("Measurements.Len() after cancellation = %d, want 1", got)
	}
	if pos, _ := robot.GetPosition(context.Background(), hwCfg.RobotAxis); pos != cfg.InitialPosition {
		t.Errorf("robot position after teardown = %v, want %v", pos, cfg.InitialPosition)
	}
}

func TestExecuteCycleRejectsWhenEmergencyActive(t *testing.T) {
	orch, _, hwCfg, dut := newTestRig()
	cfg := fastTestConfig()
	connectAndInit(t, orch, hwCfg, cfg)

	orch.TriggerEmergencyStop(context.Background(), hwCfg.RobotAxis)
	if !orch.EmergencyActive() {
		t.Fatal("expected EmergencyActive() after TriggerEmergencyStop")
	}

	result := orch.ExecuteCycle(context.Background(), 1, cfg, hwCfg, dut)
	if result.IsPassed {
		t.Error("expected rejected cycle to not pass")
	}
	if result.Measurements.Len() != 0 {
		t.Error("expected no measurements recorded when rejected up front")
	}

	orch.ResetEmergency()
	if orch.EmergencyActive() {
		t.Error("expected ResetEmergency to clear the sticky flag")
	}
}

// fakeHardwareMCU is a non-simulator MCU stand-in used to exercise the
// real verify_temperature retry loop (spec §4.10.3) instead of the
// simulator bypass.
type fakeHardwareMCU struct {
	*simulator.MCU
	fixedTemp float64
}

func (f *fakeHardwareMCU) IsSimulator() bool { return false }

func (f *fakeHardwareMCU) GetTemperature(ctx context.Context) (float64, error) {
	return f.fixedTemp, nil
}

func TestExecuteCycleFailsWhenTemperatureNeverConverges(t *testing.T) {
	robot := simulator.NewRobot()
	mcu := &fakeHardwareMCU{MCU: simulator.NewMCU(), fixedTemp: 999.0}
	power := simulator.NewPower()
	loadcell := simulator.NewLoadcell(func() float64 { return 0 })
	dio := simulator.NewDIO()

	var mcuCap capability.MCU = mcu
	f := facade.New(robot, mcuCap, power, loadcell, dio, logx.Noop{})
	orch := New(f, logx.Noop{}, nil)

	hwCfg := model.HardwareConfig{RobotAxis: 0, PinBrakeRelease: 1}
	dut := model.DUTCommandInfo{DUTID: "DUT-1", ModelNumber: "M1", SerialNumber: "S1", Manufacturer: "ACME"}
	cfg := fastTestConfig()
	cfg.TemperatureTol = 0.5

	ctx := context.Background()
	if err := f.ConnectAll(ctx); err != nil {
		t.Fatalf("ConnectAll: %v", err)
	}
	if err := f.InitializeHardware(ctx, cfg, hwCfg); err != nil {
		t.Fatalf("InitializeHardware: %v", err)
	}

	// A short deadline cuts the 10-retry (~10s) verify_temperature budget
	// short via ctx cancellation instead of waiting it out: the cycle fails
	// with the context's deadline error while inside the retry loop, so the
	// verify_temperature exhaustion error itself is not reached here.
	deadlineCtx, cancel := context.WithTimeout(ctx, 1500*time.Millisecond)
	defer cancel()

	result := orch.ExecuteCycle(deadlineCtx, 1, cfg, hwCfg, dut)

	if result.ErrorMessage == "" {
		t.Fatal("expected the cycle to fail while temperature never converges")
	}
	if result.IsPassed {
		t.Error("expected cycle to fail, not pass")
	}
}
