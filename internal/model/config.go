// Package model holds the value types the orchestrator consumes and
// produces: test configuration, hardware wiring, DUT identity, and the
// measurement/result containers built up during a cycle.
package model

import (
	"fmt"
	"math"
	"time"
)

// TestConfiguration is an immutable set of electrical, thermal, and
// motion setpoints plus the execution parameters for one test cycle.
type TestConfiguration struct {
	Voltage           float64
	Current           float64
	CurrentLimit      float64
	UpperTemp         float64
	ActivationTemp    float64
	StandbyTemp       float64
	FanSpeed          int
	TemperatureTol    float64
	TemperatureList   []float64
	Velocity          float64
	Acceleration      float64
	Deceleration      float64
	InitialPosition   float64
	OperatingPosition float64
	StrokePositions   []float64

	PowerOnStabilization         time.Duration
	PowerCommandStabilization    time.Duration
	MCUBootCompleteStabilization time.Duration
	MCUCommandStabilization      time.Duration
	RobotMoveStabilization       time.Duration
	RobotStandbyStabilization    time.Duration
	TeardownStabilization        time.Duration

	RetryAttempts int
	TimeoutSeconds int
	RepeatCount    int

	PassCriteria PassCriteria
}

// PassCriteria bounds a valid measurement.
type PassCriteria struct {
	ForceMin       float64
	ForceMax       float64
	TemperatureMin float64
	TemperatureMax float64
}

// Validate enforces the invariants from spec §3.
func (c TestConfiguration) Validate() error {
	fields := map[string]float64{
		"voltage":            c.Voltage,
		"current":            c.Current,
		"current_limit":      c.CurrentLimit,
		"upper_temp":         c.UpperTemp,
		"activation_temp":    c.ActivationTemp,
		"standby_temp":       c.StandbyTemp,
		"temperature_tol":    c.TemperatureTol,
		"velocity":           c.Velocity,
		"acceleration":       c.Acceleration,
		"deceleration":       c.Deceleration,
		"initial_position":   c.InitialPosition,
		"operating_position": c.OperatingPosition,
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("model: field %s is not finite: %v", name, v)
		}
	}
	if len(c.TemperatureList) == 0 {
		return fmt.Errorf("model: temperature_list must not be empty")
	}
	if len(c.StrokePositions) == 0 {
		return fmt.Errorf("model: stroke_positions must not be empty")
	}
	for _, t := range c.TemperatureList {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return fmt.Errorf("model: temperature_list contains a non-finite value: %v", t)
		}
	}
	for _, p := range c.StrokePositions {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return fmt.Errorf("model: stroke_positions contains a non-finite value: %v", p)
		}
	}
	if c.FanSpeed < 1 || c.FanSpeed > 10 {
		return fmt.Errorf("model: fan_speed must be in 1..10, got %d", c.FanSpeed)
	}
	if !(c.StandbyTemp <= c.ActivationTemp && c.ActivationTemp <= c.UpperTemp) {
		return fmt.Errorf("model: expected standby_temp <= activation_temp <= upper_temp, got %v <= %v <= %v",
			c.StandbyTemp, c.ActivationTemp, c.UpperTemp)
	}
	for _, d := range []time.Duration{
		c.PowerOnStabilization, c.PowerCommandStabilization, c.MCUBootCompleteStabilization,
		c.MCUCommandStabilization, c.RobotMoveStabilization, c.RobotStandbyStabilization,
		c.TeardownStabilization,
	} {
		if d < 0 {
			return fmt.Errorf("model: stabilization delays must be >= 0, got %v", d)
		}
	}
	if c.RepeatCount < 1 {
		return fmt.Errorf("model: repeat_count must be >= 1, got %d", c.RepeatCount)
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("model: retry_attempts must be >= 0, got %d", c.RetryAttempts)
	}
	if c.TimeoutSeconds <= 0 {
		return fmt.Errorf("model: timeout_seconds must be > 0, got %d", c.TimeoutSeconds)
	}
	return nil
}

// HardwareConfig is the immutable per-device connection descriptor.
type HardwareConfig struct {
	RobotAxis int

	LoadcellPort        string
	LoadcellBaud        int
	LoadcellParity      string
	LoadcellStopBits    float64
	LoadcellByteSize    int
	LoadcellIndicatorID int

	MCUPort     string
	MCUBaud     int
	MCUParity   string
	MCUStopBits float64
	MCUByteSize int

	PowerHost    string
	PowerPort    int
	PowerChannel int

	DIOInputModule  int
	DIOOutputModule int

	PinBrakeRelease int
	PinTowerRed     int
	PinTowerYellow  int
	PinTowerGreen   int
	PinBuzzer       int
}

// Validate enforces that output pin assignments are distinct (spec §3).
func (h HardwareConfig) Validate() error {
	pins := map[string]int{
		"brake_release": h.PinBrakeRelease,
		"tower_red":     h.PinTowerRed,
		"tower_yellow":  h.PinTowerYellow,
		"tower_green":   h.PinTowerGreen,
		"buzzer":        h.PinBuzzer,
	}
	seen := make(map[int]string, len(pins))
	for name, pin := range pins {
		if other, ok := seen[pin]; ok {
			return fmt.Errorf("model: output pin %d assigned to both %s and %s", pin, other, name)
		}
		seen[pin] = name
	}
	return nil
}

// DUTCommandInfo identifies the device under test for a cycle.
type DUTCommandInfo struct {
	DUTID        string
	ModelNumber  string
	SerialNumber string
	Manufacturer string
}

// Validate checks that the required identity fields are non-empty.
func (d DUTCommandInfo) Validate() error {
	required := map[string]string{
		"dut_id":        d.DUTID,
		"model_number":  d.ModelNumber,
		"serial_number": d.SerialNumber,
		"manufacturer":  d.Manufacturer,
	}
	for name, v := range required {
		if v == "" {
			return fmt.Errorf("model: DUTCommandInfo.%s must not be empty", name)
		}
	}
	return nil
}
