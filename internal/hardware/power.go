package hardware

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/soochol/eol-force-tester/internal/capability"
	"github.com/soochol/eol-force-tester/internal/eolerr"
	"github.com/soochol/eol-force-tester/internal/scpi"
)

// Power is the hardware power-supply backend: SCPI over TCP (spec §4.4,
// §4.6).
type Power struct {
	host    string
	port    int
	timeout time.Duration
	conn    *scpi.Connection
	enabled bool
}

// NewPower returns a power-supply backend dialing host:port.
func NewPower(host string, port int, timeout time.Duration) *Power {
	return &Power{host: host, port: port, timeout: timeout}
}

func (p *Power) Connect(ctx context.Context) error {
	conn, err := scpi.Connect(ctx, p.host, p.port, p.timeout)
	if err != nil {
		return err
	}
	p.conn = conn
	return nil
}

func (p *Power) Disconnect(ctx context.Context) error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Disconnect()
}

func (p *Power) IsConnected() bool { return p.conn != nil }

func (p *Power) SetVoltage(ctx context.Context, volts float64) error {
	return p.conn.SendCommand(ctx, fmt.Sprintf("VOLT %.2f", volts))
}

func (p *Power) SetCurrent(ctx context.Context, amps float64) error {
	return p.conn.SendCommand(ctx, fmt.Sprintf("CURR %.2f", amps))
}

func (p *Power) SetCurrentLimit(ctx context.Context, amps float64) error {
	return p.conn.SendCommand(ctx, fmt.Sprintf("CURR %.2f", amps))
}

func (p *Power) GetVoltage(ctx context.Context) (float64, error) {
	reply, err := p.conn.Query(ctx, "MEAS:VOLT?", p.timeout)
	if err != nil {
		return 0, err
	}
	return parseFloatReply(reply, "voltage")
}

func (p *Power) GetCurrent(ctx context.Context) (float64, error) {
	reply, err := p.conn.Query(ctx, "MEAS:CURR?", p.timeout)
	if err != nil {
		return 0, err
	}
	return parseFloatReply(reply, "current")
}

// GetAllMeasurements prefers a single MEAS:ALL? query (CSV of two
// floats), falling back to individual VOLT/CURR queries on parse
// failure (spec §4.6).
func (p *Power) GetAllMeasurements(ctx context.Context) (voltage, current, power float64, err error) {
	reply, qerr := p.conn.Query(ctx, "MEAS:ALL?", p.timeout)
	if qerr == nil {
		parts := strings.Split(reply, ",")
		if len(parts) == 2 {
			v, verr := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
			c, cerr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
			if verr == nil && cerr == nil {
				return v, c, v * c, nil
			}
		}
	}
	v, err := p.GetVoltage(ctx)
	if err != nil {
		return 0, 0, 0, err
	}
	c, err := p.GetCurrent(ctx)
	if err != nil {
		return 0, 0, 0, err
	}
	return v, c, v * c, nil
}

func (p *Power) EnableOutput(ctx context.Context) error {
	if err := p.conn.SendCommand(ctx, "OUTP ON"); err != nil {
		return err
	}
	p.enabled = true
	return nil
}

func (p *Power) DisableOutput(ctx context.Context) error {
	if err := p.conn.SendCommand(ctx, "OUTP OFF"); err != nil {
		return err
	}
	p.enabled = false
	return nil
}

func (p *Power) IsOutputEnabled() bool { return p.enabled }

func parseFloatReply(reply, field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(reply), 64)
	if err != nil {
		return 0, &eolerr.ProtocolError{Device: "power", Reason: fmt.Sprintf("could not parse %s reply %q", field, reply), Cause: err}
	}
	return v, nil
}

var _ capability.Power = (*Power)(nil)
