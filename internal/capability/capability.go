// Package capability defines the device-agnostic instrument contracts
// (spec §4.6, C6) the orchestrator and facade depend on. Every backend
// — simulator or hardware — implements these interfaces; the
// orchestrator never knows which kind of backend it is holding.
package capability

import (
	"context"
	"time"

	"github.com/soochol/eol-force-tester/internal/model"
)

// RobotStatus is the snapshot returned by Robot.Status.
type RobotStatus struct {
	Connected    bool
	LastPosition map[int]float64
	InMotion     bool
}

// Robot is the servo-controlled linear-axis capability.
type Robot interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool

	EnableServo(ctx context.Context, axis int) error
	DisableServo(ctx context.Context, axis int) error

	HomeAxis(ctx context.Context, axis int) error
	MoveAbsolute(ctx context.Context, axis int, position, velocity, accel, decel float64) error
	GetPosition(ctx context.Context, axis int) (float64, error)

	StopMotion(ctx context.Context, axis int) error
	EmergencyStop(ctx context.Context, axis int) error

	Status(ctx context.Context) (RobotStatus, error)
}

// MCU is the thermal-management microcontroller capability.
type MCU interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool

	// IsSimulator reports whether this backend is a simulator, replacing
	// the source's class-name inspection (spec §9, Open Question) with
	// an explicit capability flag.
	IsSimulator() bool

	WaitBootComplete(ctx context.Context, timeout time.Duration) error
	SetTestMode(ctx context.Context, mode model.MCUTestMode) error
	SetUpperTemperature(ctx context.Context, celsius float64) error
	SetFanSpeed(ctx context.Context, level int) error
	SetOperatingTemperature(ctx context.Context, celsius float64) error
	SetCoolingTemperature(ctx context.Context, celsius float64) error
	StartStandbyHeating(ctx context.Context, operatingTemp, standbyTemp float64) error
	StartStandbyCooling(ctx context.Context) error
	GetTemperature(ctx context.Context) (float64, error)
	NotifyStrokeInitComplete(ctx context.Context) error
}

// Power is the programmable DC power-supply capability.
type Power interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool

	SetVoltage(ctx context.Context, volts float64) error
	SetCurrent(ctx context.Context, amps float64) error
	SetCurrentLimit(ctx context.Context, amps float64) error

	GetVoltage(ctx context.Context) (float64, error)
	GetCurrent(ctx context.Context) (float64, error)
	GetAllMeasurements(ctx context.Context) (voltage, current, power float64, err error)

	EnableOutput(ctx context.Context) error
	DisableOutput(ctx context.Context) error
	IsOutputEnabled() bool
}

// Loadcell is the force-sensor capability.
type Loadcell interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool

	ReadForce(ctx context.Context) (float64, error)
	ReadPeakForce(ctx context.Context, duration, sampleInterval time.Duration) (float64, error)

	Hold(ctx context.Context) error
	HoldRelease(ctx context.Context) error
	ZeroCalibration(ctx context.Context) error
}

// DIO is the digital I/O capability.
type DIO interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool

	ReadInput(ctx context.Context, channel int) (bool, error)
	ReadOutput(ctx context.Context, channel int) (bool, error)
	WriteOutput(ctx context.Context, channel int, value bool) error

	ReadAllInputs(ctx context.Context) ([]bool, error)
	WriteOutputs(ctx context.Context, start int, values []bool) error
	SetAllOutputs(ctx context.Context, value bool) error
	ResetAllOutputs(ctx context.Context) error
}
