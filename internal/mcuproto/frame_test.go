package mcuproto

import "testing"

func TestEncodeTempTenths(t *testing.T) {
	cases := []struct {
		celsius float64
		want    uint32
	}{
		{25.0, 250},
		{0.0, 0},
		{99.95, 1000}, // rounds up
		{-5.0, 0xFFFFFFCE}, // -50 as a 32-bit two's-complement field
	}
	for _, c := range cases {
		got := EncodeTempTenths(c.celsius)
		if got != c.want {
			t.Errorf("EncodeTempTenths(%v) = %d, want %d", c.celsius, got, c.want)
		}
	}
}

func TestTempTenthsRoundTrip(t *testing.T) {
	for _, celsius := range []float64{25.0, 60.5, 80.0, 0.0} {
		got := DecodeTempTenths(EncodeTempTenths(celsius))
		if got != celsius {
			t.Errorf("round-trip(%v) = %v, want %v", celsius, got, celsius)
		}
	}
}

func TestEncodeTooManyFields(t *testing.T) {
	if _, err := Encode(CmdInit, 1, 2, 3, 4); err == nil {
		t.Fatal("expected error for 4 fields (LEN would exceed 12)")
	}
}

func TestEncodeDecodeFrame(t *testing.T) {
	raw, err := Encode(CmdSetUpperTemp, EncodeTempTenths(80.0))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0xFF, 0xFF, CmdSetUpperTemp, 4, 0, 0, 0, 0, 0xFE, 0xFE}
	want[4] = byte(EncodeTempTenths(80.0))
	want[5] = byte(EncodeTempTenths(80.0) >> 8)
	if len(raw) != len(want) {
		t.Fatalf("Encode length = %d, want %d", len(raw), len(want))
	}
	for i := range want {
		if raw[i] != want[i] {
			t.Errorf("Encode()[%d] = %#x, want %#x", i, raw[i], want[i])
		}
	}

	dec := NewDecoder(nil)
	dec.Feed(raw)
	frame, ok := dec.Next()
	if !ok {
		t.Fatal("Next() = false, want true")
	}
	if frame.Code != CmdSetUpperTemp {
		t.Errorf("frame.Code = %#x, want %#x", frame.Code, CmdSetUpperTemp)
	}
	if len(frame.Data) != 1 || frame.Data[0] != EncodeTempTenths(80.0) {
		t.Errorf("frame.Data = %v, want [%d]", frame.Data, EncodeTempTenths(80.0))
	}
}

func TestAckFor(t *testing.T) {
	cases := []struct {
		cmd     byte
		wantAck byte
		wantOK  bool
	}{
		{CmdEnterTestMode, StatusAckEnterTestMode, true},
		{CmdRequestTemp, 0, false},
		{CmdStrokeInitComplete, StatusAckStrokeInitComplete, true},
	}
	for _, c := range cases {
		ack, ok := AckFor(c.cmd)
		if ok != c.wantOK || (ok && ack != c.wantAck) {
			t.Errorf("AckFor(%#x) = (%#x, %v), want (%#x, %v)", c.cmd, ack, ok, c.wantAck, c.wantOK)
		}
	}
}
