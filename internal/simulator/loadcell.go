package simulator

import (
	"context"
	"sync"
	"time"

	"github.com/soochol/eol-force-tester/internal/capability"
)

// Loadcell is a deterministic force-sensor simulator. Force is a
// function of the most recently commanded robot position (spec §4.7:
// "force reading is a deterministic function of the most recent
// commanded position"), plus a per-repeat offset test fixtures can use
// to exercise multi-repeat averaging without randomness.
//
// Unlike the source's loadcell simulator this never superimposes
// random noise: the arithmetic-mean assertions in the multi-repeat
// scenario need to be checkable exactly, and the noise the hardware
// backend's wire codec already tolerates has no analogue here.
type Loadcell struct {
	mu           sync.Mutex
	connected    bool
	held         bool
	repeatOffset float64

	// position reports the last commanded robot position; nil reads as
	// position 0. Injected at construction so the loadcell simulator can
	// track the robot simulator without a direct dependency between them.
	position func() float64
}

// NewLoadcell returns a loadcell simulator that reads commanded
// position through positionSource (typically a Robot simulator's
// GetPosition for the measurement axis).
func NewLoadcell(positionSource func() float64) *Loadcell {
	return &Loadcell{position: positionSource}
}

// SetRepeatIndex is a test fixture giving the simulator a deterministic
// per-repeat offset (0.0, +1.0, +2.0, ...), matching the "deterministic
// per-repeat offset" scenario used to verify multi-repeat averaging.
func (l *Loadcell) SetRepeatIndex(repeat int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.repeatOffset = float64(repeat)
}

func (l *Loadcell) Connect(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connected = true
	return nil
}

func (l *Loadcell) Disconnect(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.connected = false
	return nil
}

func (l *Loadcell) IsConnected() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.connected
}

func (l *Loadcell) currentPosition() float64 {
	if l.position == nil {
		return 0
	}
	return l.position()
}

func (l *Loadcell) ReadForce(ctx context.Context) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.currentPosition() + l.repeatOffset, nil
}

// ReadPeakForce samples ReadForce every sampleInterval until duration
// elapses and returns the sample with the largest absolute value. Since
// the simulated force is a static function of position rather than a
// time series, every sample has the same value; the call still takes the
// full duration and honors ctx cancellation.
func (l *Loadcell) ReadPeakForce(ctx context.Context, duration, sampleInterval time.Duration) (float64, error) {
	peak, err := l.ReadForce(ctx)
	if err != nil {
		return 0, err
	}
	deadline := time.Now().Add(duration)
	ticker := time.NewTicker(sampleInterval)
	defer ticker.Stop()
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return peak, ctx.Err()
		case <-ticker.C:
			v, err := l.ReadForce(ctx)
			if err != nil {
				return peak, err
			}
			if absf(v) > absf(peak) {
				peak = v
			}
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
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = true
	return nil
}

func (l *Loadcell) HoldRelease(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = false
	return nil
}

func (l *Loadcell) ZeroCalibration(ctx context.Context) error {
	return nil
}

var _ capability.Loadcell = (*Loadcell)(nil)
