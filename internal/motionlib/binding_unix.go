//go:build linux || darwin

package motionlib

import (
	"fmt"
	"os"

	"github.com/ebitengine/purego"
)

// libraryPathEnv names the environment variable pointing at the vendor
// motion/DIO shared object (e.g. libaxl.so, matching the Ajinextek AXL
// library the original implementation binds via ctypes —
// original_source/src/infrastructure/implementation/hardware/robot/ajinextek/axl_wrapper.py).
const libraryPathEnv = "EOL_MOTIONLIB_PATH"

// axlBinding binds the AXL native library through purego, which loads a
// shared object and resolves symbols without cgo. Every function the
// vendor library reports a value through takes a pointer out-parameter
// and returns only a status code, matching axl_wrapper.py's ctypes
// argtypes (e.g. AxmStatusGetActPos.argtypes = [c_long, POINTER(c_double)]).
type axlBinding struct {
	lib    uintptr
	opened bool

	axlOpen           func(irq int32) int32
	axlClose          func() int32
	axlIsOpened       func() int32
	axlGetBoardCount  func(count *int32) int32
	axlGetAxisCount   func(count *int32) int32
	axlServoOn        func(axis int32, on int32) int32
	axlServoOff       func(axis int32) int32
	axlIsServoOn      func(axis int32, on *int32) int32
	axlHomeSetStart   func(axis int32) int32
	axlHomeGetResult  func(axis int32, result *uint32) int32
	axlMoveStartPos   func(axis int32, pos, vel, accel, decel float64) int32
	axlReadInMotion   func(axis int32, inMotion *int32) int32
	axlGetActPos      func(axis int32, pos *float64) int32
	axlMoveSmoothStop func(axis int32, decel float64) int32
	axlMoveEStop      func(axis int32) int32
	axlLoadParaAll    func(path string) int32
	axlDioInCount     func(module int32, count *int32) int32
	axlDioOutCount    func(module int32, count *int32) int32
	axlDioReadBit     func(module, offset int32, value *uint32) int32
	axlDioWriteBit    func(module, offset, value int32) int32
	axlDioReadByte    func(module, start int32, value *uint32) int32
	axlDioReadWord    func(module, start int32, value *uint32) int32
	axlDioReadDword   func(module, start int32, value *uint32) int32
}

func openBinding(irq int) (Binding, error) {
	path := os.Getenv(libraryPathEnv)
	if path == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrUnavailable, libraryPathEnv)
	}
	lib, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("%w: dlopen %s: %v", ErrUnavailable, path, err)
	}

	b := &axlBinding{lib: lib}
	purego.RegisterLibFunc(&b.axlOpen, lib, "AxlOpen")
	purego.RegisterLibFunc(&b.axlClose, lib, "AxlClose")
	purego.RegisterLibFunc(&b.axlIsOpened, lib, "AxlIsOpened")
	purego.RegisterLibFunc(&b.axlGetBoardCount, lib, "AxlGetBoardCount")
	purego.RegisterLibFunc(&b.axlGetAxisCount, lib, "AxlGetAxisCount")
	purego.RegisterLibFunc(&b.axlServoOn, lib, "AxmSignalServoOn")
	purego.RegisterLibFunc(&b.axlServoOff, lib, "AxmSignalServoOff")
	purego.RegisterLibFunc(&b.axlIsServoOn, lib, "AxmSignalIsServoOn")
	purego.RegisterLibFunc(&b.axlHomeSetStart, lib, "AxmHomeSetStart")
	purego.RegisterLibFunc(&b.axlHomeGetResult, lib, "AxmHomeGetResult")
	purego.RegisterLibFunc(&b.axlMoveStartPos, lib, "AxmMoveStartPos")
	purego.RegisterLibFunc(&b.axlReadInMotion, lib, "AxmStatusReadInMotion")
	purego.RegisterLibFunc(&b.axlGetActPos, lib, "AxmStatusGetActPos")
	purego.RegisterLibFunc(&b.axlMoveSmoothStop, lib, "AxmMoveStop")
	purego.RegisterLibFunc(&b.axlMoveEStop, lib, "AxmMoveEStop")
	purego.RegisterLibFunc(&b.axlLoadParaAll, lib, "AxmMotLoadParaAll")
	purego.RegisterLibFunc(&b.axlDioInCount, lib, "AxdInfoGetInputCount")
	purego.RegisterLibFunc(&b.axlDioOutCount, lib, "AxdInfoGetOutputCount")
	purego.RegisterLibFunc(&b.axlDioReadBit, lib, "AxdiReadInportBit")
	purego.RegisterLibFunc(&b.axlDioWriteBit, lib, "AxdoWriteOutportBit")
	purego.RegisterLibFunc(&b.axlDioReadByte, lib, "AxdiReadInportByte")
	purego.RegisterLibFunc(&b.axlDioReadWord, lib, "AxdiReadInportWord")
	purego.RegisterLibFunc(&b.axlDioReadDword, lib, "AxdiReadInportDword")

	if rc := b.axlOpen(int32(irq)); rc != 0 {
		return nil, fmt.Errorf("motionlib: AxlOpen(irq=%d) returned %d", irq, rc)
	}
	b.opened = true
	return b, nil
}

func (b *axlBinding) Close() error {
	if !b.opened {
		return nil
	}
	b.opened = false
	if rc := b.axlClose(); rc != 0 {
		return fmt.Errorf("motionlib: AxlClose returned %d", rc)
	}
	return nil
}

func (b *axlBinding) IsOpened() bool { return b.axlIsOpened() == 1 }

func (b *axlBinding) GetBoardCount() (int, error) {
	var count int32
	if err := rc(b.axlGetBoardCount(&count)); err != nil {
		return 0, err
	}
	return int(count), nil
}

func (b *axlBinding) GetAxisCount() (int, error) {
	var count int32
	if err := rc(b.axlGetAxisCount(&count)); err != nil {
		return 0, err
	}
	return int(count), nil
}

func (b *axlBinding) ServoOn(axis int) error  { return rc(b.axlServoOn(int32(axis), 1)) }
func (b *axlBinding) ServoOff(axis int) error { return rc(b.axlServoOff(int32(axis))) }

func (b *axlBinding) IsServoOn(axis int) (bool, error) {
	var on int32
	if err := rc(b.axlIsServoOn(int32(axis), &on)); err != nil {
		return false, err
	}
	return on == 1, nil
}

func (b *axlBinding) HomeSetStart(axis int) error { return rc(b.axlHomeSetStart(int32(axis))) }

func (b *axlBinding) HomeGetResult(axis int) (HomeResult, error) {
	var result uint32
	if err := rc(b.axlHomeGetResult(int32(axis), &result)); err != nil {
		return HomeError, err
	}
	switch result {
	case 0:
		return HomeSuccess, nil
	case 1:
		return HomeSearching, nil
	default:
		return HomeError, nil
	}
}

func (b *axlBinding) MoveStartPos(axis int, pos, vel, accel, decel float64) error {
	return rc(b.axlMoveStartPos(int32(axis), pos, vel, accel, decel))
}

func (b *axlBinding) ReadInMotion(axis int) (bool, error) {
	var inMotion int32
	if err := rc(b.axlReadInMotion(int32(axis), &inMotion)); err != nil {
		return false, err
	}
	return inMotion == 1, nil
}

func (b *axlBinding) GetActPos(axis int) (float64, error) {
	var pos float64
	if err := rc(b.axlGetActPos(int32(axis), &pos)); err != nil {
		return 0, err
	}
	return pos, nil
}

// MoveSmoothStop calls AxmMoveStop, whose vendor signature takes a
// deceleration rate alongside the axis; zero requests the library's
// own default deceleration profile.
func (b *axlBinding) MoveSmoothStop(axis int) error {
	return rc(b.axlMoveSmoothStop(int32(axis), 0))
}
func (b *axlBinding) MoveEmergencyStop(axis int) error { return rc(b.axlMoveEStop(int32(axis))) }
func (b *axlBinding) LoadParaAll(path string) error    { return rc(b.axlLoadParaAll(path)) }

func (b *axlBinding) GetInputCount(module int) (int, error) {
	var count int32
	if err := rc(b.axlDioInCount(int32(module), &count)); err != nil {
		return 0, err
	}
	return int(count), nil
}

func (b *axlBinding) GetOutputCount(module int) (int, error) {
	var count int32
	if err := rc(b.axlDioOutCount(int32(module), &count)); err != nil {
		return 0, err
	}
	return int(count), nil
}

func (b *axlBinding) ReadInputBit(module, offset int) (bool, error) {
	var value uint32
	if err := rc(b.axlDioReadBit(int32(module), int32(offset), &value)); err != nil {
		return false, err
	}
	return value != 0, nil
}

func (b *axlBinding) WriteOutputBit(module, offset int, value bool) error {
	v := int32(0)
	if value {
		v = 1
	}
	return rc(b.axlDioWriteBit(int32(module), int32(offset), v))
}

func (b *axlBinding) ReadInputByte(module, startByte int) (byte, error) {
	var value uint32
	if err := rc(b.axlDioReadByte(int32(module), int32(startByte), &value)); err != nil {
		return 0, err
	}
	return byte(value), nil
}

func (b *axlBinding) ReadInputWord(module, startWord int) (uint16, error) {
	var value uint32
	if err := rc(b.axlDioReadWord(int32(module), int32(startWord), &value)); err != nil {
		return 0, err
	}
	return uint16(value), nil
}

func (b *axlBinding) ReadInputDword(module, startDword int) (uint32, error) {
	var value uint32
	if err := rc(b.axlDioReadDword(int32(module), int32(startDword), &value)); err != nil {
		return 0, err
	}
	return value, nil
}

func rc(code int32) error {
	if code != 0 {
		return fmt.Errorf("motionlib: native call returned %d", code)
	}
	return nil
}
