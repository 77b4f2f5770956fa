package loadcellproto

import "testing"

func TestParseWeight(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
		want float64
	}{
		{"stx etx positive", []byte{stx, '+', '0', '0', '0', '1', '2', '3', '.', '4', etx}, 123.4},
		{"leading dot negative", []byte{stx, '-', '.', '5', etx}, -0.5},
		{"bare ascii with crlf", []byte("+042.0\r\n"), 42.0},
		{"space inside value", []byte{stx, '+', '1', ' ', '2', etx}, 12.0},
		{"trailing crlf on stx frame", []byte{stx, '+', '5', etx, cr, lf}, 5.0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := ParseWeight(c.raw)
			if err != nil {
				t.Fatalf("ParseWeight(%q): %v", c.raw, err)
			}
			if got != c.want {
				t.Errorf("ParseWeight(%q) = %v, want %v", c.raw, got, c.want)
			}
		})
	}
}

func TestParseWeightErrors(t *testing.T) {
	cases := []struct {
		name string
		raw  []byte
	}{
		{"no sign", []byte{stx, '1', '2', '3', etx}},
		{"no numeric body", []byte{stx, '+', etx}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := ParseWeight(c.raw); err == nil {
				t.Fatalf("ParseWeight(%q): expected error", c.raw)
			}
		})
	}
}

func TestEncodeRequest(t *testing.T) {
	got := EncodeRequest(1, CmdRead)
	want := []byte{0x31, 'R', 0x0D, 0x0A}
	if len(got) != len(want) {
		t.Fatalf("EncodeRequest length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("EncodeRequest()[%d] = %#x, want %#x", i, got[i], want[i])
		}
	}
}

func TestCodecRoundTrip(t *testing.T) {
	// The bare ASCII body "+000123.4" parses to 123.4.
	if v, err := ParseWeight([]byte("+000123.4")); err != nil || v != 123.4 {
		t.Errorf("round-trip +000123.4 = (%v, %v), want (123.4, nil)", v, err)
	}
	// "- .5" (a space and a leading '.') parses to -0.5.
	if v, err := ParseWeight([]byte("- .5")); err != nil || v != -0.5 {
		t.Errorf("round-trip \"- .5\" = (%v, %v), want (-0.5, nil)", v, err)
	}
}
