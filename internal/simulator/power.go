package simulator

import (
	"context"
	"sync"

	"github.com/soochol/eol-force-tester/internal/capability"
)

// Power is a deterministic DC power-supply simulator.
type Power struct {
	mu            sync.Mutex
	connected     bool
	voltage       float64
	current       float64
	currentLimit  float64
	outputEnabled bool
}

func NewPower() *Power {
	return &Power{}
}

func (p *Power) Connect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = true
	return nil
}

func (p *Power) Disconnect(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.connected = false
	return nil
}

func (p *Power) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *Power) SetVoltage(ctx context.Context, volts float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.voltage = volts
	return nil
}

func (p *Power) SetCurrent(ctx context.Context, amps float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = amps
	return nil
}

func (p *Power) SetCurrentLimit(ctx context.Context, amps float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.currentLimit = amps
	return nil
}

func (p *Power) GetVoltage(ctx context.Context) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.outputEnabled {
		return 0, nil
	}
	return p.voltage, nil
}

func (p *Power) GetCurrent(ctx context.Context) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.outputEnabled {
		return 0, nil
	}
	return p.current, nil
}

func (p *Power) GetAllMeasurements(ctx context.Context) (voltage, current, power float64, err error) {
	v, _ := p.GetVoltage(ctx)
	c, _ := p.GetCurrent(ctx)
	return v, c, v * c, nil
}

func (p *Power) EnableOutput(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outputEnabled = true
	return nil
}

func (p *Power) DisableOutput(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.outputEnabled = false
	return nil
}

func (p *Power) IsOutputEnabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outputEnabled
}

var _ capability.Power = (*Power)(nil)
