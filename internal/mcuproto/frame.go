// Package mcuproto implements the MCU framed request/response protocol
// (spec §4.1): STX(2)=0xFF 0xFF | CMD(1) | LEN(1) | DATA(LEN) | ETX(2)=0xFE 0xFE,
// with DATA made of zero or more little-endian u32 fields.
package mcuproto

import (
	"encoding/binary"
	"fmt"
)

var (
	stx = [2]byte{0xFF, 0xFF}
	etx = [2]byte{0xFE, 0xFE}
)

// Command codes, PC -> MCU.
const (
	CmdEnterTestMode      byte = 0x01
	CmdSetUpperTemp       byte = 0x02
	CmdSetFanSpeed        byte = 0x03
	CmdInit               byte = 0x04
	CmdSetOperatingTemp   byte = 0x05
	CmdSetCoolingTemp     byte = 0x06
	CmdRequestTemp        byte = 0x07
	CmdStrokeInitComplete byte = 0x08
)

// Status codes, MCU -> PC.
const (
	StatusBootComplete            byte = 0x00
	StatusAckEnterTestMode        byte = 0x01
	StatusAckSetUpperTemp         byte = 0x02
	StatusAckSetFanSpeed          byte = 0x03
	StatusAckInit                 byte = 0x04
	StatusAckSetOperatingTemp     byte = 0x05
	StatusAckSetCoolingTemp       byte = 0x06
	StatusTemperatureResponse     byte = 0x07
	StatusAckStrokeInitComplete   byte = 0x08
	StatusTemperatureRiseStart    byte = 0x09
	StatusTemperatureFallStart    byte = 0x0A
	StatusOperatingTempReached    byte = 0x0B
	StatusStandbyTempReached      byte = 0x0C
	StatusCoolingTempReached      byte = 0x0D
	StatusInitComplete            byte = 0x0E
)

// AckFor returns the status code that acknowledges cmd, and whether cmd
// is one of the commands that expects a single specific ACK (every
// command except request-temp, spec §4.1).
func AckFor(cmd byte) (byte, bool) {
	switch cmd {
	case CmdEnterTestMode:
		return StatusAckEnterTestMode, true
	case CmdSetUpperTemp:
		return StatusAckSetUpperTemp, true
	case CmdSetFanSpeed:
		return StatusAckSetFanSpeed, true
	case CmdInit:
		return StatusAckInit, true
	case CmdSetOperatingTemp:
		return StatusAckSetOperatingTemp, true
	case CmdSetCoolingTemp:
		return StatusAckSetCoolingTemp, true
	case CmdStrokeInitComplete:
		return StatusAckStrokeInitComplete, true
	case CmdRequestTemp:
		return 0, false
	default:
		return 0, false
	}
}

// Frame is a decoded or to-be-encoded MCU protocol frame.
type Frame struct {
	Code byte
	Data []uint32
}

// EncodeTempTenths rounds a Celsius value to the MCU's fixed-point
// encoding: round(°C * 10) packed as one little-endian u32 field.
func EncodeTempTenths(celsius float64) uint32 {
	v := celsius*10 + 0.5
	if v < 0 {
		v = celsius*10 - 0.5
	}
	return uint32(int64(v))
}

// DecodeTempTenths reverses EncodeTempTenths.
func DecodeTempTenths(v uint32) float64 {
	return float64(int32(v)) / 10.0
}

// Encode serializes a frame to the wire format. LEN must come out to
// 0, 4, 8, or 12 bytes (spec §4.1); callers are responsible for only
// ever constructing frames with 0..3 u32 fields.
func Encode(code byte, fields ...uint32) ([]byte, error) {
	if len(fields) > 3 {
		return nil, fmt.Errorf("mcuproto: encode: too many fields (%d), LEN would exceed 12", len(fields))
	}
	data := make([]byte, 4*len(fields))
	for i, f := range fields {
		binary.LittleEndian.PutUint32(data[i*4:], f)
	}
	out := make([]byte, 0, 6+len(data))
	out = append(out, stx[:]...)
	out = append(out, code, byte(len(data)))
	out = append(out, data...)
	out = append(out, etx[:]...)
	return out, nil
}

// fieldsFromData unpacks DATA into little-endian u32 fields. len(data)
// must already be a multiple of 4.
func fieldsFromData(data []byte) []uint32 {
	out := make([]uint32, len(data)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(data[i*4 : i*4+4])
	}
	return out
}
