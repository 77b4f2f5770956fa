package model

import "testing"

func validTestConfiguration() TestConfiguration {
	return TestConfiguration{
		Voltage: 24, Current: 2, CurrentLimit: 3,
		UpperTemp: 80, ActivationTemp: 60, StandbyTemp: 25,
		FanSpeed: 5, TemperatureTol: 5,
		TemperatureList: []float64{25, 40, 60},
		Velocity:        50, Acceleration: 200, Deceleration: 200,
		InitialPosition: 0, OperatingPosition: 100,
		StrokePositions: []float64{10, 20, 30},
		RepeatCount:     1, RetryAttempts: 3, TimeoutSeconds: 60,
		PassCriteria: PassCriteria{ForceMin: 0, ForceMax: 200},
	}
}

func TestTestConfigurationValidateOK(t *testing.T) {
	if err := validTestConfiguration().Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
}

func TestTestConfigurationValidateTemperatureOrdering(t *testing.T) {
	cfg := validTestConfiguration()
	cfg.StandbyTemp, cfg.ActivationTemp = cfg.ActivationTemp, cfg.StandbyTemp
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when standby_temp > activation_temp")
	}
}

func TestTestConfigurationValidateFanSpeedRange(t *testing.T) {
	cfg := validTestConfiguration()
	cfg.FanSpeed = 11
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for fan_speed out of range")
	}
}

func TestTestConfigurationValidateEmptyLists(t *testing.T) {
	cfg := validTestConfiguration()
	cfg.TemperatureList = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty temperature_list")
	}
}

func TestHardwareConfigValidateDuplicatePins(t *testing.T) {
	hw := HardwareConfig{PinBrakeRelease: 1, PinTowerRed: 1, PinTowerYellow: 2, PinTowerGreen: 3, PinBuzzer: 4}
	if err := hw.Validate(); err == nil {
		t.Fatal("expected error for duplicate output pins")
	}
}

func TestDUTCommandInfoValidateRequiresFields(t *testing.T) {
	d := DUTCommandInfo{DUTID: "x"}
	if err := d.Validate(); err == nil {
		t.Fatal("expected error for missing fields")
	}
}
