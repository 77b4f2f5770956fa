package mcuproto

import "github.com/soochol/eol-force-tester/internal/logx"

// maxBufferedBytes caps the reassembly buffer (spec §4.1). On overrun
// the newest half is retained and the drop is logged — never fatal to
// the connection.
const maxBufferedBytes = 1024

// Decoder reassembles MCU frames from an arbitrarily chunked byte
// stream. It is not safe for concurrent use; callers serialize access
// (the MCU hardware backend owns one Decoder per connection).
type Decoder struct {
	buf  []byte
	sink logx.Sink
}

// NewDecoder returns a Decoder that logs overflow/malformed-frame
// conditions to sink. A nil sink is replaced with logx.Noop.
func NewDecoder(sink logx.Sink) *Decoder {
	if sink == nil {
		sink = logx.Noop{}
	}
	return &Decoder{sink: sink}
}

// Reset discards any buffered bytes, including a partially-received
// frame. The MCU backend calls this before issuing a new command (spec
// §4.1) so a stale frame left over from an interrupted exchange can't
// be mistaken for the new command's ACK.
func (d *Decoder) Reset() {
	d.buf = d.buf[:0]
}

// Feed appends newly-read bytes to the reassembly buffer.
func (d *Decoder) Feed(b []byte) {
	d.buf = append(d.buf, b...)
	if len(d.buf) > maxBufferedBytes {
		overflow := len(d.buf) - maxBufferedBytes/2
		d.sink.Warnf("mcuproto: decode buffer overflow (%d bytes), discarding oldest %d bytes", len(d.buf), overflow)
		d.buf = append([]byte(nil), d.buf[overflow:]...)
	}
}

// Next attempts to decode one frame from the buffered bytes. It returns
// ok=false when no complete, valid frame is available yet; it never
// blocks and never errors — malformed frames (bad ETX) are dropped
// internally with a warning and the search resumes at the next STX, per
// spec §4.1 ("no resynchronization heuristic beyond seek next STX").
func (d *Decoder) Next() (Frame, bool) {
	for {
		i := d.seekSTX()
		if i < 0 {
			// No STX found at all; drop everything before a potential
			// trailing partial STX byte.
			if len(d.buf) > 0 && d.buf[len(d.buf)-1] == 0xFF {
				d.buf = d.buf[len(d.buf)-1:]
			} else {
				d.buf = d.buf[:0]
			}
			return Frame{}, false
		}
		if i > 0 {
			d.buf = d.buf[i:]
		}
		// Need at least STX(2)+CMD(1)+LEN(1) to know the frame length.
		if len(d.buf) < 4 {
			return Frame{}, false
		}
		length := int(d.buf[3])
		total := 6 + length
		if len(d.buf) < total {
			return Frame{}, false
		}
		if d.buf[total-2] != etx[0] || d.buf[total-1] != etx[1] {
			d.sink.Warnf("mcuproto: dropped frame with malformed ETX at cmd=0x%02X len=%d", d.buf[2], length)
			// Resynchronize: skip the STX we just consumed and keep
			// searching from the next byte.
			d.buf = d.buf[2:]
			continue
		}
		code := d.buf[2]
		data := append([]byte(nil), d.buf[4:4+length]...)
		d.buf = d.buf[total:]
		return Frame{Code: code, Data: fieldsFromData(data)}, true
	}
}

// seekSTX returns the index of the next 0xFF 0xFF marker, or -1.
func (d *Decoder) seekSTX() int {
	for i := 0; i+1 < len(d.buf); i++ {
		if d.buf[i] == stx[0] && d.buf[i+1] == stx[1] {
			return i
		}
	}
	return -1
}
