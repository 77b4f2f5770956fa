package hardware

import (
	"context"

	"github.com/soochol/eol-force-tester/internal/capability"
	"github.com/soochol/eol-force-tester/internal/eolerr"
	"github.com/soochol/eol-force-tester/internal/motionlib"
)

// DIO is the hardware digital-I/O backend, bound to the shared motion
// library handle (spec §4.5, §4.8).
type DIO struct {
	handle       *motionlib.Handle
	inputModule  int
	outputModule int
}

// NewDIO returns a DIO hardware backend addressing inputModule for
// reads and outputModule for writes, sharing handle with the robot
// backend.
func NewDIO(handle *motionlib.Handle, inputModule, outputModule int) *DIO {
	return &DIO{handle: handle, inputModule: inputModule, outputModule: outputModule}
}

func (d *DIO) bind() motionlib.Binding { return d.handle.Binding() }

func (d *DIO) Connect(ctx context.Context) error { return nil }

func (d *DIO) Disconnect(ctx context.Context) error { return nil }

func (d *DIO) IsConnected() bool {
	b := d.bind()
	return b != nil && b.IsOpened()
}

func (d *DIO) ReadInput(ctx context.Context, channel int) (bool, error) {
	v, err := d.bind().ReadInputBit(d.inputModule, channel)
	if err != nil {
		return false, &eolerr.OperationError{Device: "dio", Operation: "read_input", Reason: "driver failure", Cause: err}
	}
	return v, nil
}

// ReadOutput reads back the output bit. Not all vendor libraries expose
// output readback directly; this implementation reads it through the
// same bit-level path as inputs, addressed on the output module.
func (d *DIO) ReadOutput(ctx context.Context, channel int) (bool, error) {
	v, err := d.bind().ReadInputBit(d.outputModule, channel)
	if err != nil {
		return false, &eolerr.OperationError{Device: "dio", Operation: "read_output", Reason: "driver failure", Cause: err}
	}
	return v, nil
}

func (d *DIO) WriteOutput(ctx context.Context, channel int, value bool) error {
	if err := d.bind().WriteOutputBit(d.outputModule, channel, value); err != nil {
		return &eolerr.OperationError{Device: "dio", Operation: "write_output", Reason: "driver failure", Cause: err}
	}
	return nil
}

// ReadAllInputs returns every input bit, preferring batched reads where
// the driver allows (spec §4.5, motionlib.ReadInputBits).
func (d *DIO) ReadAllInputs(ctx context.Context) ([]bool, error) {
	b := d.bind()
	count, err := b.GetInputCount(d.inputModule)
	if err != nil {
		return nil, &eolerr.OperationError{Device: "dio", Operation: "read_all_inputs", Reason: "driver failure", Cause: err}
	}
	bits, err := motionlib.ReadInputBits(b, d.inputModule, 0, count)
	if err != nil {
		return nil, &eolerr.OperationError{Device: "dio", Operation: "read_all_inputs", Reason: "driver failure", Cause: err}
	}
	return bits, nil
}

func (d *DIO) WriteOutputs(ctx context.Context, start int, values []bool) error {
	for i, v := range values {
		if err := d.WriteOutput(ctx, start+i, v); err != nil {
			return err
		}
	}
	return nil
}

func (d *DIO) SetAllOutputs(ctx context.Context, value bool) error {
	b := d.bind()
	count, err := b.GetOutputCount(d.outputModule)
	if err != nil {
		return &eolerr.OperationError{Device: "dio", Operation: "set_all_outputs", Reason: "driver failure", Cause: err}
	}
	values := make([]bool, count)
	for i := range values {
		values[i] = value
	}
	return d.WriteOutputs(ctx, 0, values)
}

func (d *DIO) ResetAllOutputs(ctx context.Context) error {
	return d.SetAllOutputs(ctx, false)
}

var _ capability.DIO = (*DIO)(nil)
