package simulator

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/soochol/eol-force-tester/internal/capability"
	"github.com/soochol/eol-force-tester/internal/model"
)

// MCU is a deterministic thermal-controller simulator. Each
// GetTemperature call moves the current temperature 10% of the
// remaining distance toward the last commanded target and
// superimposes uniform noise in [-0.2, +0.2] °C (spec §4.7).
type MCU struct {
	mu          sync.Mutex
	connected   bool
	current     float64
	target      float64
	standbyTemp float64
	mode        model.MCUTestMode
	rng         *rand.Rand
}

// NewMCU returns an MCU simulator starting at ambient temperature.
func NewMCU() *MCU {
	return &MCU{
		current: 25.0,
		target:  25.0,
		rng:     rand.New(rand.NewSource(1)),
	}
}

func (m *MCU) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = true
	return nil
}

func (m *MCU) Disconnect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connected = false
	return nil
}

func (m *MCU) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// IsSimulator always reports true: this replaces the source's
// class-name-inspection bypass for temperature verification (spec §9,
// Open Question) with an explicit flag.
func (m *MCU) IsSimulator() bool { return true }

func (m *MCU) WaitBootComplete(ctx context.Context, timeout time.Duration) error {
	return nil
}

func (m *MCU) SetTestMode(ctx context.Context, mode model.MCUTestMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mode = mode
	return nil
}

func (m *MCU) SetUpperTemperature(ctx context.Context, celsius float64) error { return nil }

func (m *MCU) SetFanSpeed(ctx context.Context, level int) error { return nil }

func (m *MCU) SetOperatingTemperature(ctx context.Context, celsius float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.target = celsius
	return nil
}

func (m *MCU) SetCoolingTemperature(ctx context.Context, celsius float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.target = celsius
	return nil
}

func (m *MCU) StartStandbyHeating(ctx context.Context, operatingTemp, standbyTemp float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.target = operatingTemp
	m.standbyTemp = standbyTemp
	return nil
}

func (m *MCU) StartStandbyCooling(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.target = m.standbyTemp
	return nil
}

func (m *MCU) GetTemperature(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current += 0.1 * (m.target - m.current)
	noise := (m.rng.Float64()*2 - 1) * 0.2
	return m.current + noise, nil
}

func (m *MCU) NotifyStrokeInitComplete(ctx context.Context) error { return nil }

var _ capability.MCU = (*MCU)(nil)
