package factory

import (
	"os"
	"testing"
	"time"

	"github.com/soochol/eol-force-tester/internal/logx"
	"github.com/soochol/eol-force-tester/internal/model"
	"github.com/soochol/eol-force-tester/internal/simulator"
)

func TestSimulatorBackendsReturnSimulatorTypes(t *testing.T) {
	hwCfg := model.HardwareConfig{}

	robot, err := Robot(Simulator, hwCfg)
	if err != nil {
		t.Fatalf("Robot: %v", err)
	}
	if _, ok := robot.(*simulator.Robot); !ok {
		t.Errorf("Robot(Simulator) returned %T, want *simulator.Robot", robot)
	}

	dio, err := DIO(Simulator, hwCfg)
	if err != nil {
		t.Fatalf("DIO: %v", err)
	}
	if _, ok := dio.(*simulator.DIO); !ok {
		t.Errorf("DIO(Simulator) returned %T, want *simulator.DIO", dio)
	}

	mcu, err := MCU(Simulator, hwCfg, logx.Noop{}, 2, time.Second)
	if err != nil {
		t.Fatalf("MCU: %v", err)
	}
	if _, ok := mcu.(*simulator.MCU); !ok {
		t.Errorf("MCU(Simulator) returned %T, want *simulator.MCU", mcu)
	}

	lc, err := Loadcell(Simulator, hwCfg, time.Second, func() float64 { return 0 })
	if err != nil {
		t.Fatalf("Loadcell: %v", err)
	}
	if _, ok := lc.(*simulator.Loadcell); !ok {
		t.Errorf("Loadcell(Simulator) returned %T, want *simulator.Loadcell", lc)
	}

	power, err := Power(Simulator, hwCfg, time.Second)
	if err != nil {
		t.Fatalf("Power: %v", err)
	}
	if _, ok := power.(*simulator.Power); !ok {
		t.Errorf("Power(Simulator) returned %T, want *simulator.Power", power)
	}
}

func TestUnknownBackendKindIsConfigurationError(t *testing.T) {
	hwCfg := model.HardwareConfig{}
	const bogus BackendKind = 99

	if _, err := Robot(bogus, hwCfg); err == nil {
		t.Error("expected Robot(bogus) to return an error")
	}
	if _, err := DIO(bogus, hwCfg); err == nil {
		t.Error("expected DIO(bogus) to return an error")
	}
	if _, err := MCU(bogus, hwCfg, logx.Noop{}, 1, time.Second); err == nil {
		t.Error("expected MCU(bogus) to return an error")
	}
	if _, err := Loadcell(bogus, hwCfg, time.Second, func() float64 { return 0 }); err == nil {
		t.Error("expected Loadcell(bogus) to return an error")
	}
	if _, err := Power(bogus, hwCfg, time.Second); err == nil {
		t.Error("expected Power(bogus) to return an error")
	}
}

// TestHardwareMotionBackendsFailCleanlyWithoutNativeLibrary relies on
// EOL_MOTIONLIB_PATH being unset, matching any CI/dev machine without
// the vendor AXL shared object installed.
func TestHardwareMotionBackendsFailCleanlyWithoutNativeLibrary(t *testing.T) {
	if _, ok := os.LookupEnv("EOL_MOTIONLIB_PATH"); ok {
		t.Skip("EOL_MOTIONLIB_PATH is set; native motion library may actually be present")
	}
	hwCfg := model.HardwareConfig{}

	if _, err := Robot(Hardware, hwCfg); err == nil {
		t.Error("expected Robot(Hardware) to fail without a native motion library")
	}
	if _, err := DIO(Hardware, hwCfg); err == nil {
		t.Error("expected DIO(Hardware) to fail without a native motion library")
	}
}

func TestHardwareSerialAndSCPIBackendsConstructWithoutDialing(t *testing.T) {
	hwCfg := model.HardwareConfig{
		MCUPort: "/dev/ttyUSB0", MCUBaud: 115200,
		LoadcellPort: "/dev/ttyUSB1", LoadcellBaud: 9600, LoadcellIndicatorID: 1,
		PowerHost: "192.0.2.1", PowerPort: 5025,
	}

	if _, err := MCU(Hardware, hwCfg, logx.Noop{}, 2, time.Second); err != nil {
		t.Errorf("MCU(Hardware) construction should not dial, got error: %v", err)
	}
	if _, err := Loadcell(Hardware, hwCfg, time.Second, nil); err != nil {
		t.Errorf("Loadcell(Hardware) construction should not dial, got error: %v", err)
	}
	if _, err := Power(Hardware, hwCfg, time.Second); err != nil {
		t.Errorf("Power(Hardware) construction should not dial, got error: %v", err)
	}
}

func TestParseParity(t *testing.T) {
	cases := map[string]bool{"Even": true, "Odd": true, "Mark": true, "Space": true, "": true, "Bogus": true}
	for s := range cases {
		_ = parseParity(s) // exercises every branch; all inputs must resolve to a valid Parity, never panic
	}
}
