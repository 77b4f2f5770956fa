// Package factory is the backend selector (spec §4.12, C12): given a
// device type tag and a configuration record, it returns either the
// simulator or the corresponding hardware backend. No backend is
// instantiated until selected.
package factory

import (
	"time"

	"github.com/soochol/eol-force-tester/internal/capability"
	"github.com/soochol/eol-force-tester/internal/eolerr"
	"github.com/soochol/eol-force-tester/internal/hardware"
	"github.com/soochol/eol-force-tester/internal/logx"
	"github.com/soochol/eol-force-tester/internal/model"
	"github.com/soochol/eol-force-tester/internal/motionlib"
	"github.com/soochol/eol-force-tester/internal/serialtransport"
	"github.com/soochol/eol-force-tester/internal/simulator"
)

// BackendKind selects between a simulator and a real hardware binding.
type BackendKind int

const (
	Simulator BackendKind = iota
	Hardware
)

// motionIRQ is the interrupt line passed to motionlib.Acquire. The
// vendor library accepts a configurable IRQ; this module only ever
// opens one board, so a fixed value is sufficient.
const motionIRQ = 0

// Robot returns a Robot capability backend of the requested kind.
func Robot(kind BackendKind, hwCfg model.HardwareConfig) (capability.Robot, error) {
	switch kind {
	case Simulator:
		return simulator.NewRobot(), nil
	case Hardware:
		handle, err := motionlib.Acquire(motionIRQ)
		if err != nil {
			return nil, &eolerr.ConfigurationError{Field: "robot.backend", Reason: "hardware requested but motion library unavailable: " + err.Error()}
		}
		return hardware.NewRobot(handle), nil
	default:
		return nil, &eolerr.ConfigurationError{Field: "robot.backend", Reason: "unknown backend kind"}
	}
}

// DIO returns a DIO capability backend of the requested kind.
func DIO(kind BackendKind, hwCfg model.HardwareConfig) (capability.DIO, error) {
	switch kind {
	case Simulator:
		return simulator.NewDIO(), nil
	case Hardware:
		handle, err := motionlib.Acquire(motionIRQ)
		if err != nil {
			return nil, &eolerr.ConfigurationError{Field: "dio.backend", Reason: "hardware requested but motion library unavailable: " + err.Error()}
		}
		return hardware.NewDIO(handle, hwCfg.DIOInputModule, hwCfg.DIOOutputModule), nil
	default:
		return nil, &eolerr.ConfigurationError{Field: "dio.backend", Reason: "unknown backend kind"}
	}
}

// MCU returns an MCU capability backend of the requested kind.
func MCU(kind BackendKind, hwCfg model.HardwareConfig, sink logx.Sink, retryAttempts int, ioTimeout time.Duration) (capability.MCU, error) {
	switch kind {
	case Simulator:
		return simulator.NewMCU(), nil
	case Hardware:
		settings := serialtransport.Settings{
			Port:     hwCfg.MCUPort,
			Baud:     hwCfg.MCUBaud,
			ByteSize: hwCfg.MCUByteSize,
			StopBits: serialtransport.StopBits(hwCfg.MCUStopBits),
			Parity:   parseParity(hwCfg.MCUParity),
		}
		return hardware.NewMCU(settings, sink, retryAttempts, ioTimeout), nil
	default:
		return nil, &eolerr.ConfigurationError{Field: "mcu.backend", Reason: "unknown backend kind"}
	}
}

// Loadcell returns a Loadcell capability backend of the requested kind.
// positionSource is only used by the simulator, to track the robot
// simulator's last commanded position (spec §4.7).
func Loadcell(kind BackendKind, hwCfg model.HardwareConfig, ioTimeout time.Duration, positionSource func() float64) (capability.Loadcell, error) {
	switch kind {
	case Simulator:
		return simulator.NewLoadcell(positionSource), nil
	case Hardware:
		settings := serialtransport.Settings{
			Port:     hwCfg.LoadcellPort,
			Baud:     hwCfg.LoadcellBaud,
			ByteSize: hwCfg.LoadcellByteSize,
			StopBits: serialtransport.StopBits(hwCfg.LoadcellStopBits),
			Parity:   parseParity(hwCfg.LoadcellParity),
		}
		return hardware.NewLoadcell(settings, hwCfg.LoadcellIndicatorID, ioTimeout), nil
	default:
		return nil, &eolerr.ConfigurationError{Field: "loadcell.backend", Reason: "unknown backend kind"}
	}
}

// Power returns a Power capability backend of the requested kind.
func Power(kind BackendKind, hwCfg model.HardwareConfig, ioTimeout time.Duration) (capability.Power, error) {
	switch kind {
	case Simulator:
		return simulator.NewPower(), nil
	case Hardware:
		return hardware.NewPower(hwCfg.PowerHost, hwCfg.PowerPort, ioTimeout), nil
	default:
		return nil, &eolerr.ConfigurationError{Field: "power.backend", Reason: "unknown backend kind"}
	}
}

func parseParity(s string) serialtransport.Parity {
	switch s {
	case "Even":
		return serialtransport.ParityEven
	case "Odd":
		return serialtransport.ParityOdd
	case "Mark":
		return serialtransport.ParityMark
	case "Space":
		return serialtransport.ParitySpace
	default:
		return serialtransport.ParityNone
	}
}
