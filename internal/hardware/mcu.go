// Package hardware binds each capability interface to its wire
// codec/transport (spec §4.8, C8): MCU and Loadcell over C1/C2+C3,
// Power over C4, Robot and DIO over C5. Transport and codec errors are
// translated to the capability error taxonomy (spec §7).
package hardware

import (
	"context"
	"time"

	"github.com/soochol/eol-force-tester/internal/capability"
	"github.com/soochol/eol-force-tester/internal/eolerr"
	"github.com/soochol/eol-force-tester/internal/logx"
	"github.com/soochol/eol-force-tester/internal/mcuproto"
	"github.com/soochol/eol-force-tester/internal/model"
	"github.com/soochol/eol-force-tester/internal/serialtransport"
)

// bootCompleteWait caps how long the codec waits for the boot-complete
// status on first connection (spec §4.1). Non-receipt is a warning, not
// a connection failure.
const bootCompleteWait = 60 * time.Second

// readChunk is the per-Read size requested while pumping bytes into the
// frame decoder.
const readChunk = 64

// MCU is the hardware MCU backend: mcuproto framing over a serial
// connection.
type MCU struct {
	settings      serialtransport.Settings
	conn          *serialtransport.Connection
	dec           *mcuproto.Decoder
	sink          logx.Sink
	retryAttempts int
	ioTimeout     time.Duration

	lastStatus      byte
	lastTemperature float64
	lastStandbyTemp float64
}

// NewMCU returns an MCU hardware backend. retryAttempts and ioTimeout
// bound the request/response discipline from spec §4.1.
func NewMCU(settings serialtransport.Settings, sink logx.Sink, retryAttempts int, ioTimeout time.Duration) *MCU {
	if sink == nil {
		sink = logx.Noop{}
	}
	return &MCU{settings: settings, sink: sink, retryAttempts: retryAttempts, ioTimeout: ioTimeout, dec: mcuproto.NewDecoder(sink)}
}

// Connect opens the serial port and consumes frames for up to 60s
// waiting for boot-complete; non-receipt is a warning, not a failure
// (spec §4.1).
func (m *MCU) Connect(ctx context.Context) error {
	conn, err := serialtransport.Connect(m.settings)
	if err != nil {
		return err
	}
	m.conn = conn
	deadline := time.Now().Add(bootCompleteWait)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, ok, err := m.readFrame(ctx, pollChunk)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		m.updateCache(frame)
		if frame.Code == mcuproto.StatusBootComplete {
			return nil
		}
	}
	m.sink.Warnf("mcu: boot-complete status not observed within %s (non-fatal)", bootCompleteWait)
	return nil
}

func (m *MCU) Disconnect(ctx context.Context) error {
	if m.conn == nil {
		return nil
	}
	return m.conn.Disconnect()
}

func (m *MCU) IsConnected() bool {
	return m.conn != nil
}

// IsSimulator is always false for the hardware backend.
func (m *MCU) IsSimulator() bool { return false }

func (m *MCU) WaitBootComplete(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, ok, err := m.readFrame(ctx, pollChunk)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		m.updateCache(frame)
		if frame.Code == mcuproto.StatusBootComplete {
			return nil
		}
	}
	return nil
}

func (m *MCU) SetTestMode(ctx context.Context, mode model.MCUTestMode) error {
	return m.command(ctx, "set_test_mode", mcuproto.CmdEnterTestMode, uint32(mode))
}

func (m *MCU) SetUpperTemperature(ctx context.Context, celsius float64) error {
	return m.command(ctx, "set_upper_temperature", mcuproto.CmdSetUpperTemp, mcuproto.EncodeTempTenths(celsius))
}

func (m *MCU) SetFanSpeed(ctx context.Context, level int) error {
	return m.command(ctx, "set_fan_speed", mcuproto.CmdSetFanSpeed, uint32(level))
}

func (m *MCU) SetOperatingTemperature(ctx context.Context, celsius float64) error {
	return m.command(ctx, "set_operating_temperature", mcuproto.CmdSetOperatingTemp, mcuproto.EncodeTempTenths(celsius))
}

func (m *MCU) SetCoolingTemperature(ctx context.Context, celsius float64) error {
	return m.command(ctx, "set_cooling_temperature", mcuproto.CmdSetCoolingTemp, mcuproto.EncodeTempTenths(celsius))
}

// StartStandbyHeating is init(op, standby, hold_ms=0) (spec §4.6).
func (m *MCU) StartStandbyHeating(ctx context.Context, operatingTemp, standbyTemp float64) error {
	m.lastStandbyTemp = standbyTemp
	return m.command(ctx, "start_standby_heating", mcuproto.CmdInit,
		mcuproto.EncodeTempTenths(operatingTemp), mcuproto.EncodeTempTenths(standbyTemp), 0)
}

// StartStandbyCooling has no dedicated command in the wire protocol;
// per spec §4.6 the orchestrator never depends on which code is sent,
// only that the MCU begins driving toward standby. We reuse
// set-cooling-temp with the last cached standby target, matching the
// vendor-defined fallback the spec calls out.
func (m *MCU) StartStandbyCooling(ctx context.Context) error {
	return m.command(ctx, "start_standby_cooling", mcuproto.CmdSetCoolingTemp, mcuproto.EncodeTempTenths(m.lastStandbyTemp))
}

func (m *MCU) GetTemperature(ctx context.Context) (float64, error) {
	if err := m.send(ctx, mcuproto.CmdRequestTemp); err != nil {
		return 0, err
	}
	deadline := time.Now().Add(m.ioTimeout)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		frame, ok, err := m.readFrame(ctx, pollChunk)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		m.updateCache(frame)
		if frame.Code == mcuproto.StatusTemperatureResponse && len(frame.Data) >= 1 {
			return mcuproto.DecodeTempTenths(frame.Data[0]), nil
		}
	}
	return 0, &eolerr.TimeoutError{Device: "mcu", Operation: "get_temperature"}
}

func (m *MCU) NotifyStrokeInitComplete(ctx context.Context) error {
	return m.command(ctx, "notify_stroke_init_complete", mcuproto.CmdStrokeInitComplete)
}

func (m *MCU) updateCache(f mcuproto.Frame) {
	m.lastStatus = f.Code
	if f.Code == mcuproto.StatusTemperatureResponse && len(f.Data) >= 1 {
		m.lastTemperature = mcuproto.DecodeTempTenths(f.Data[0])
	}
}

const pollChunk = readChunk

func (m *MCU) send(ctx context.Context, cmd byte, fields ...uint32) error {
	frame, err := mcuproto.Encode(cmd, fields...)
	if err != nil {
		return &eolerr.ProtocolError{Device: "mcu", Reason: "encode failed", Cause: err}
	}
	return m.conn.Write(ctx, frame)
}

// readFrame pumps up to n bytes from the serial connection into the
// decoder and returns the next decoded frame, if any.
func (m *MCU) readFrame(ctx context.Context, n int) (mcuproto.Frame, bool, error) {
	if f, ok := m.dec.Next(); ok {
		return f, true, nil
	}
	b, err := m.conn.Read(ctx, n, m.ioTimeout)
	if len(b) > 0 {
		m.dec.Feed(b)
	}
	if err != nil {
		if _, ok := err.(*eolerr.TimeoutError); ok {
			return mcuproto.Frame{}, false, nil
		}
		return mcuproto.Frame{}, false, err
	}
	f, ok := m.dec.Next()
	return f, ok, nil
}

// command issues cmd, clears the reassembly state, and waits for its
// matching ACK, retrying up to retryAttempts times on timeout (spec
// §4.1's request/response discipline). Unrelated status frames update
// the cache but do not satisfy the ACK wait.
func (m *MCU) command(ctx context.Context, op string, cmd byte, fields ...uint32) error {
	expectedAck, hasAck := mcuproto.AckFor(cmd)
	attempts := m.retryAttempts + 1
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		m.dec.Reset()
		if err := m.send(ctx, cmd, fields...); err != nil {
			lastErr = err
			continue
		}
		if !hasAck {
			return nil
		}
		ok, err := m.awaitAck(ctx, expectedAck)
		if err != nil {
			lastErr = err
			continue
		}
		if ok {
			return nil
		}
		lastErr = &eolerr.TimeoutError{Device: "mcu", Operation: op}
	}
	return &eolerr.OperationError{Device: "mcu", Operation: op, Reason: "ack not received after retries", Cause: lastErr}
}

func (m *MCU) awaitAck(ctx context.Context, expected byte) (bool, error) {
	deadline := time.Now().Add(m.ioTimeout)
	for time.Now().Before(deadline) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		frame, ok, err := m.readFrame(ctx, pollChunk)
		if err != nil {
			return false, err
		}
		if !ok {
			continue
		}
		m.updateCache(frame)
		if frame.Code == expected {
			return true, nil
		}
	}
	return false, nil
}

var _ capability.MCU = (*MCU)(nil)
