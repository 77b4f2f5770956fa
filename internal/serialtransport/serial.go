// Package serialtransport is the async byte-stream transport contract
// from spec §4.3/C3, backed by go.bug.st/serial — the library the
// teacher (wut4/exer/{cex,go}) depends on for exactly this purpose.
package serialtransport

import (
	"context"
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/soochol/eol-force-tester/internal/eolerr"
)

// Parity mirrors spec §4.3's enumerated parity settings.
type Parity int

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
	ParityMark
	ParitySpace
)

// StopBits mirrors spec §4.3's enumerated stop-bit settings.
type StopBits float64

const (
	StopBits1   StopBits = 1
	StopBits1_5 StopBits = 1.5
	StopBits2   StopBits = 2
)

func toLibParity(p Parity) serial.Parity {
	switch p {
	case ParityEven:
		return serial.EvenParity
	case ParityOdd:
		return serial.OddParity
	case ParityMark:
		return serial.MarkParity
	case ParitySpace:
		return serial.SpaceParity
	default:
		return serial.NoParity
	}
}

func toLibStopBits(s StopBits) serial.StopBits {
	switch s {
	case StopBits1_5:
		return serial.OnePointFiveStopBits
	case StopBits2:
		return serial.TwoStopBits
	default:
		return serial.OneStopBit
	}
}

// Settings configures a serial connection.
type Settings struct {
	Port     string
	Baud     int
	ByteSize int
	StopBits StopBits
	Parity   Parity
}

// pollInterval bounds how often a blocked read checks for cancellation;
// suspension points must be cooperative (spec §5).
const pollInterval = 50 * time.Millisecond

// Connection is an open serial port.
type Connection struct {
	port   serial.Port
	device string
}

// Connect opens the port with the given settings. Failures are
// reported as *eolerr.ConnectionError.
func Connect(settings Settings) (*Connection, error) {
	mode := &serial.Mode{
		BaudRate: settings.Baud,
		DataBits: settings.ByteSize,
		Parity:   toLibParity(settings.Parity),
		StopBits: toLibStopBits(settings.StopBits),
	}
	port, err := serial.Open(settings.Port, mode)
	if err != nil {
		return nil, &eolerr.ConnectionError{Device: settings.Port, Reason: "open failed", Cause: err}
	}
	return &Connection{port: port, device: settings.Port}, nil
}

// Disconnect closes the port. It is idempotent.
func (c *Connection) Disconnect() error {
	if c.port == nil {
		return nil
	}
	err := c.port.Close()
	c.port = nil
	if err != nil {
		return &eolerr.ConnectionError{Device: c.device, Reason: "close failed", Cause: err}
	}
	return nil
}

// Write flushes b to the wire before returning.
func (c *Connection) Write(ctx context.Context, b []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.port.Write(b); err != nil {
		return &eolerr.OperationError{Device: c.device, Operation: "write", Reason: "write failed", Cause: err}
	}
	return nil
}

// FlushInput discards any buffered input.
func (c *Connection) FlushInput() error {
	if err := c.port.ResetInputBuffer(); err != nil {
		return &eolerr.OperationError{Device: c.device, Operation: "flush_input", Reason: "reset failed", Cause: err}
	}
	return nil
}

// Read returns exactly n bytes, or on timeout the bytes read so far
// together with a *eolerr.TimeoutError. Cancellation via ctx is checked
// at each poll interval (a cooperative suspension point, spec §5).
func (c *Connection) Read(ctx context.Context, n int, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	buf := make([]byte, n)
	read := 0
	for read < n {
		if err := ctx.Err(); err != nil {
			return buf[:read], err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return buf[:read], &eolerr.TimeoutError{Device: c.device, Operation: "read"}
		}
		step := pollInterval
		if remaining < step {
			step = remaining
		}
		if err := c.port.SetReadTimeout(step); err != nil {
			return buf[:read], &eolerr.OperationError{Device: c.device, Operation: "read", Reason: "set timeout failed", Cause: err}
		}
		got, err := c.port.Read(buf[read:])
		if err != nil {
			return buf[:read], &eolerr.OperationError{Device: c.device, Operation: "read", Reason: "read failed", Cause: err}
		}
		read += got
	}
	return buf, nil
}

// ReadUntil returns bytes up to and including sep, or times out.
func (c *Connection) ReadUntil(ctx context.Context, sep byte, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	var out []byte
	one := make([]byte, 1)
	for {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return out, &eolerr.TimeoutError{Device: c.device, Operation: "read_until"}
		}
		step := pollInterval
		if remaining < step {
			step = remaining
		}
		if err := c.port.SetReadTimeout(step); err != nil {
			return out, &eolerr.OperationError{Device: c.device, Operation: "read_until", Reason: "set timeout failed", Cause: err}
		}
		n, err := c.port.Read(one)
		if err != nil {
			return out, &eolerr.OperationError{Device: c.device, Operation: "read_until", Reason: "read failed", Cause: err}
		}
		if n == 0 {
			continue
		}
		out = append(out, one[0])
		if one[0] == sep {
			return out, nil
		}
		if len(out) > 1<<16 {
			return out, fmt.Errorf("serialtransport: read_until: separator not found within 64KiB")
		}
	}
}
