// Package motionlib binds the vendor motion/DIO native library (spec
// §4.5, C5). It is platform-gated: where the native shared object can
// be loaded without cgo via github.com/ebitengine/purego (the dynamic
// library binder the corpus already depends on — user-none-eMkIII's
// go.mod pulls it in for ebitengine's own platform bindings), the real
// binding is available; elsewhere Acquire fails with ErrUnavailable and
// internal/factory reports a configuration error for the hardware robot
// and DIO backends (spec C12).
//
// The native library is modeled as a process-wide resource but owned
// through a ref-counted Handle (spec §9, "Global singletons → explicit
// ownership") so the robot and DIO hardware backends can share one
// underlying Open() call without either one owning the lifetime.
package motionlib

import (
	"errors"
	"sync"
)

// ErrUnavailable is returned, possibly wrapped, by Acquire when the
// native motion/DIO library cannot be bound.
var ErrUnavailable = errors.New("motionlib: native motion library unavailable on this platform")

// HomeResult is the outcome of polling HomeGetResult.
type HomeResult int

const (
	HomeSearching HomeResult = iota
	HomeSuccess
	HomeError
)

// Binding is the enumerated native-library surface spec §4.5 requires.
type Binding interface {
	Close() error
	IsOpened() bool

	GetBoardCount() (int, error)
	GetAxisCount() (int, error)

	ServoOn(axis int) error
	ServoOff(axis int) error
	IsServoOn(axis int) (bool, error)

	HomeSetStart(axis int) error
	HomeGetResult(axis int) (HomeResult, error)

	MoveStartPos(axis int, pos, vel, accel, decel float64) error
	ReadInMotion(axis int) (bool, error)
	GetActPos(axis int) (float64, error)
	MoveSmoothStop(axis int) error
	MoveEmergencyStop(axis int) error

	LoadParaAll(path string) error

	GetInputCount(module int) (int, error)
	GetOutputCount(module int) (int, error)
	ReadInputBit(module, offset int) (bool, error)
	WriteOutputBit(module, offset int, value bool) error
	ReadInputByte(module, startByte int) (byte, error)
	ReadInputWord(module, startWord int) (uint16, error)
	ReadInputDword(module, startDword int) (uint32, error)
}

// Handle is a ref-counted, shared Binding. The facade acquires it once
// for the robot backend and once for the DIO backend; the underlying
// native Open() call only happens on the first acquisition, and Close()
// only happens when the last holder releases.
type Handle struct {
	mu    sync.Mutex
	refs  int
	bind  Binding
	openF func(irq int) (Binding, error)
	irq   int
}

var (
	sharedMu sync.Mutex
	shared   *Handle
)

// Acquire returns the process-wide shared Handle, opening the native
// library on the first call and incrementing the reference count on
// every call thereafter.
func Acquire(irq int) (*Handle, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if shared == nil {
		shared = &Handle{openF: openBinding, irq: irq}
	}
	if err := shared.retain(); err != nil {
		return nil, err
	}
	return shared, nil
}

func (h *Handle) retain() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.refs == 0 {
		b, err := h.openF(h.irq)
		if err != nil {
			return err
		}
		h.bind = b
	}
	h.refs++
	return nil
}

// Binding returns the underlying native binding.
func (h *Handle) Binding() Binding {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bind
}

// Release decrements the reference count, closing the native library
// when the last holder releases.
func (h *Handle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.refs == 0 {
		return nil
	}
	h.refs--
	if h.refs == 0 && h.bind != nil {
		err := h.bind.Close()
		h.bind = nil
		return err
	}
	return nil
}

// ReadInputBits reads count input bits starting at (module, start),
// preferring batched byte/word/dword reads when the range is aligned
// and large enough, falling back to a per-bit loop on any batching
// error (spec §4.5).
func ReadInputBits(b Binding, module, start, count int) ([]bool, error) {
	out := make([]bool, count)
	i := 0
	for i < count {
		remaining := count - i
		offset := start + i
		switch {
		case offset%32 == 0 && remaining >= 32:
			if dw, err := b.ReadInputDword(module, offset/32); err == nil {
				for bit := 0; bit < 32; bit++ {
					out[i+bit] = dw&(1<<uint(bit)) != 0
				}
				i += 32
				continue
			}
		case offset%16 == 0 && remaining >= 16:
			if w, err := b.ReadInputWord(module, offset/16); err == nil {
				for bit := 0; bit < 16; bit++ {
					out[i+bit] = w&(1<<uint(bit)) != 0
				}
				i += 16
				continue
			}
		case offset%8 == 0 && remaining >= 8:
			if by, err := b.ReadInputByte(module, offset/8); err == nil {
				for bit := 0; bit < 8; bit++ {
					out[i+bit] = by&(1<<uint(bit)) != 0
				}
				i += 8
				continue
			}
		}
		v, err := b.ReadInputBit(module, offset)
		if err != nil {
			return out, err
		}
		out[i] = v
		i++
	}
	return out, nil
}
