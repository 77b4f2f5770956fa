package mcuproto

import "testing"

func TestDecoderReassemblyAcrossChunks(t *testing.T) {
	raw, err := Encode(CmdRequestTemp)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	dec := NewDecoder(nil)

	// Feed the frame split into three arbitrary chunks.
	dec.Feed(raw[:2])
	if _, ok := dec.Next(); ok {
		t.Fatal("Next() = true before frame complete")
	}
	dec.Feed(raw[2:5])
	if _, ok := dec.Next(); ok {
		t.Fatal("Next() = true before frame complete")
	}
	dec.Feed(raw[5:])
	frame, ok := dec.Next()
	if !ok {
		t.Fatal("Next() = false after full frame fed")
	}
	if frame.Code != CmdRequestTemp {
		t.Errorf("frame.Code = %#x, want %#x", frame.Code, CmdRequestTemp)
	}
}

func TestDecoderMalformedETXResyncs(t *testing.T) {
	good, err := Encode(CmdSetFanSpeed, 5)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	bad := append([]byte{}, good...)
	bad[len(bad)-1] = 0x00 // corrupt ETX

	dec := NewDecoder(nil)
	dec.Feed(bad)
	dec.Feed(good)

	frame, ok := dec.Next()
	if !ok {
		t.Fatal("Next() = false, want the well-formed frame to be found after resync")
	}
	if frame.Code != CmdSetFanSpeed {
		t.Errorf("frame.Code = %#x, want %#x", frame.Code, CmdSetFanSpeed)
	}
}

func TestDecoderOverflowRetainsNewestHalf(t *testing.T) {
	dec := NewDecoder(nil)
	dec.Feed(make([]byte, maxBufferedBytes+100))
	if len(dec.buf) > maxBufferedBytes {
		t.Errorf("buffer not trimmed on overflow: len=%d", len(dec.buf))
	}
	if len(dec.buf) != maxBufferedBytes/2 {
		t.Errorf("buffer after overflow: len=%d, want %d (newest half)", len(dec.buf), maxBufferedBytes/2)
	}
}

func TestDecoderNoFrameReturnsFalse(t *testing.T) {
	dec := NewDecoder(nil)
	dec.Feed([]byte{0x00, 0x01, 0x02})
	if _, ok := dec.Next(); ok {
		t.Fatal("Next() = true on garbage input")
	}
}
