// Package loadcellproto implements the loadcell framed protocol (spec
// §4.2): 4-byte ASCII requests and an STX/ETX response carrying a
// sign-magnitude ASCII weight.
package loadcellproto

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	stx byte = 0x02
	etx byte = 0x03
	cr  byte = 0x0D
	lf  byte = 0x0A
)

// Commands.
const (
	CmdRead    byte = 'R'
	CmdZero    byte = 'Z'
	CmdHold    byte = 'H'
	CmdRelease byte = 'L'
)

// EncodeRequest builds the normal 4-byte request frame:
// id_byte, command, CR, LF.
func EncodeRequest(indicatorID int, command byte) []byte {
	return []byte{byte(0x30 + indicatorID), command, cr, lf}
}

// EncodeASCIIFallback builds the 2-byte fallback request used only
// during auto-probing (spec §4.2): command, CR.
func EncodeASCIIFallback(command byte) []byte {
	return []byte{command, cr}
}

var numericRun = regexp.MustCompile(`\d+(\.\d+)?`)

// ParseWeight decodes a loadcell response into a signed weight,
// tolerating the variations spec §4.2 calls out: an STX/ETX envelope or
// a bare ASCII body, leading/trailing CR/LF, spaces inside the value,
// and a leading '.'.
func ParseWeight(raw []byte) (float64, error) {
	body := trimCRLF(raw)

	if i := indexByte(body, stx); i >= 0 {
		if j := indexByte(body[i+1:], etx); j >= 0 {
			body = body[i+1 : i+1+j]
		} else {
			body = body[i+1:]
		}
	}

	s := string(body)
	signIdx := strings.IndexAny(s, "+-")
	if signIdx < 0 {
		return 0, fmt.Errorf("loadcellproto: no sign found in response %q", string(raw))
	}
	sign := s[signIdx]
	numeric := s[signIdx+1:]

	// Strip whitespace, then strip anything that isn't a digit or '.'.
	numeric = strings.ReplaceAll(numeric, " ", "")
	var b strings.Builder
	for _, r := range numeric {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	numeric = b.String()

	if numeric == "" {
		return 0, fmt.Errorf("loadcellproto: no numeric body found in response %q", string(raw))
	}
	if numeric[0] == '.' {
		numeric = "0" + numeric
	}

	value, err := strconv.ParseFloat(numeric, 64)
	if err != nil {
		m := numericRun.FindString(numeric)
		if m == "" {
			return 0, fmt.Errorf("loadcellproto: could not parse numeric body %q: %w", numeric, err)
		}
		value, err = strconv.ParseFloat(m, 64)
		if err != nil {
			return 0, fmt.Errorf("loadcellproto: could not parse extracted numeric %q: %w", m, err)
		}
	}

	if sign == '-' {
		value = -value
	}
	return value, nil
}

func trimCRLF(b []byte) []byte {
	start, end := 0, len(b)
	for start < end && (b[start] == cr || b[start] == lf) {
		start++
	}
	for end > start && (b[end-1] == cr || b[end-1] == lf) {
		end--
	}
	return b[start:end]
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
