package simulator

import (
	"context"
	"fmt"
	"sync"

	"github.com/soochol/eol-force-tester/internal/capability"
)

// dioChannels is the channel count for the simulated DIO module; wide
// enough to cover every named output pin in HardwareConfig with room
// to spare.
const dioChannels = 32

// DIO is a deterministic digital I/O simulator.
type DIO struct {
	mu        sync.Mutex
	connected bool
	inputs    [dioChannels]bool
	outputs   [dioChannels]bool
}

func NewDIO() *DIO {
	return &DIO{}
}

func (d *DIO) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = true
	return nil
}

func (d *DIO) Disconnect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.connected = false
	return nil
}

func (d *DIO) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

func (d *DIO) ReadInput(ctx context.Context, channel int) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if channel < 0 || channel >= dioChannels {
		return false, fmt.Errorf("simulator: dio: input channel %d out of range", channel)
	}
	return d.inputs[channel], nil
}

func (d *DIO) ReadOutput(ctx context.Context, channel int) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if channel < 0 || channel >= dioChannels {
		return false, fmt.Errorf("simulator: dio: output channel %d out of range", channel)
	}
	return d.outputs[channel], nil
}

func (d *DIO) WriteOutput(ctx context.Context, channel int, value bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if channel < 0 || channel >= dioChannels {
		return fmt.Errorf("simulator: dio: output channel %d out of range", channel)
	}
	d.outputs[channel] = value
	return nil
}

func (d *DIO) ReadAllInputs(ctx context.Context) ([]bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]bool, dioChannels)
	copy(out, d.inputs[:])
	return out, nil
}

func (d *DIO) WriteOutputs(ctx context.Context, start int, values []bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if start < 0 || start+len(values) > dioChannels {
		return fmt.Errorf("simulator: dio: output range [%d,%d) out of range", start, start+len(values))
	}
	for i, v := range values {
		d.outputs[start+i] = v
	}
	return nil
}

func (d *DIO) SetAllOutputs(ctx context.Context, value bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.outputs {
		d.outputs[i] = value
	}
	return nil
}

func (d *DIO) ResetAllOutputs(ctx context.Context) error {
	return d.SetAllOutputs(ctx, false)
}

// SetInput is a test fixture for driving simulated input state.
func (d *DIO) SetInput(channel int, value bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if channel >= 0 && channel < dioChannels {
		d.inputs[channel] = value
	}
}

var _ capability.DIO = (*DIO)(nil)
