package hardware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/soochol/eol-force-tester/internal/capability"
	"github.com/soochol/eol-force-tester/internal/eolerr"
	"github.com/soochol/eol-force-tester/internal/loadcellproto"
	"github.com/soochol/eol-force-tester/internal/serialtransport"
)

// requestPacing is the minimum interval between consecutive commands on
// one loadcell connection (spec §4.2).
const requestPacing = 200 * time.Millisecond

// responseSize is the fixed total length of a response frame this
// implementation reads: STX, ID, SIGN, up to 6 value bytes, ETX.
const responseSize = 10

// Loadcell is the hardware loadcell backend: loadcellproto framing over
// a serial connection, with the command-pacing mutex spec §4.2
// requires.
type Loadcell struct {
	mu          sync.Mutex
	settings    serialtransport.Settings
	conn        *serialtransport.Connection
	indicatorID int
	ioTimeout   time.Duration
	lastSend    time.Time
}

// NewLoadcell returns a loadcell hardware backend addressing indicatorID
// over the serial port described by settings.
func NewLoadcell(settings serialtransport.Settings, indicatorID int, ioTimeout time.Duration) *Loadcell {
	return &Loadcell{settings: settings, indicatorID: indicatorID, ioTimeout: ioTimeout}
}

func (l *Loadcell) Connect(ctx context.Context) error {
	conn, err := serialtransport.Connect(l.settings)
	if err != nil {
		return err
	}
	l.mu.Lock()
	l.conn = conn
	l.mu.Unlock()
	return nil
}

func (l *Loadcell) Disconnect(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	return l.conn.Disconnect()
}

func (l *Loadcell) IsConnected() bool { return l.conn != nil }

// pace enforces the minimum 200ms gap between requests and serializes
// callers so concurrent requests queue rather than interleave on the
// wire (spec §4.2).
func (l *Loadcell) pace(ctx context.Context) error {
	if since := time.Since(l.lastSend); since < requestPacing {
		select {
		case <-time.After(requestPacing - since):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	l.lastSend = time.Now()
	return nil
}

func (l *Loadcell) roundTrip(ctx context.Context, command byte) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.pace(ctx); err != nil {
		return nil, err
	}
	req := loadcellproto.EncodeRequest(l.indicatorID, command)
	if err := l.conn.Write(ctx, req); err != nil {
		return nil, err
	}
	resp, err := l.conn.Read(ctx, responseSize, l.ioTimeout)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (l *Loadcell) ReadForce(ctx context.Context) (float64, error) {
	resp, err := l.roundTrip(ctx, loadcellproto.CmdRead)
	if err != nil {
		return 0, err
	}
	weight, err := loadcellproto.ParseWeight(resp)
	if err != nil {
		return 0, &eolerr.ProtocolError{Device: "loadcell", Reason: "parse failed", Cause: err}
	}
	return weight, nil
}

// ReadPeakForce samples at >= max(200ms, sampleInterval) until duration
// elapses, returning the sample with maximum absolute value (spec
// §4.6). If every sample fails, it fails with an error reporting
// attempt and failure counts.
func (l *Loadcell) ReadPeakForce(ctx context.Context, duration, sampleInterval time.Duration) (float64, error) {
	interval := sampleInterval
	if interval < requestPacing {
		interval = requestPacing
	}
	deadline := time.Now().Add(duration)
	var (
		attempts, failures int
		havePeak           bool
		peak               float64
	)
	for time.Now().Before(deadline) {
		attempts++
		v, err := l.ReadForce(ctx)
		if err != nil {
			failures++
		} else if !havePeak || absf(v) > absf(peak) {
			peak = v
			havePeak = true
		}
		select {
		case <-time.After(interval):
		case <-ctx.Done():
			if !havePeak {
				return 0, ctx.Err()
			}
			return peak, nil
		}
	}
	if !havePeak {
		return 0, &eolerr.OperationError{
			Device:    "loadcell",
			Operation: "read_peak_force",
			Reason:    fmt.Sprintf("all %d attempts failed (%d failures)", attempts, failures),
		}
	}
	return peak, nil
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func (l *Loadcell) Hold(ctx context.Context) error {
	_, err := l.roundTrip(ctx, loadcellproto.CmdHold)
	return err
}

func (l *Loadcell) HoldRelease(ctx context.Context) error {
	_, err := l.roundTrip(ctx, loadcellproto.CmdRelease)
	return err
}

// ZeroCalibration sends 'Z' then waits 1s (spec §4.6).
func (l *Loadcell) ZeroCalibration(ctx context.Context) error {
	if _, err := l.roundTrip(ctx, loadcellproto.CmdZero); err != nil {
		return err
	}
	select {
	case <-time.After(1 * time.Second):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

var _ capability.Loadcell = (*Loadcell)(nil)
