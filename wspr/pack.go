package wspr

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// upper case-folds a raw callsign or grid string at the API boundary,
// before it ever reaches the packing tables above.
func upper(s string) string {
	return cases.Upper(language.Und).String(s)
}

// Two distinct 0..N alphabets are used by the callsign packer. Space
// means something different in each: symbol 36 in the general
// alphabet used for the c0/c1/d slots, symbol 26 in the suffix
// alphabet used for the s0/s1/s2 slots. Collapsing them into one
// shared table would silently corrupt any callsign whose suffix is
// shorter than three characters.
func generalSymbol(b byte) (uint32, bool) {
	switch {
	case b >= '0' && b <= '9':
		return uint32(b - '0'), true
	case b == ' ':
		return 36, true
	case b >= 'A' && b <= 'Z':
		return uint32(b-'A') + 10, true
	default:
		return 0, false
	}
}

func suffixSymbol(b byte) (uint32, bool) {
	switch {
	case b == ' ':
		return 26, true
	case b >= 'A' && b <= 'Z':
		return uint32(b - 'A'), true
	default:
		return 0, false
	}
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }

// alignCallsign left-pads callsign into the canonical 6-character
// layout [c0][c1][d][s0][s1][s2], where d is the callsign's unique
// digit, required at position 1 or 2 of the (unpadded) input.
func alignCallsign(callsign string) (string, error) {
	if len(callsign) == 0 || len(callsign) > 6 {
		return "", fmt.Errorf("%w: callsign length %d out of range 1-6", ErrInvalidInput, len(callsign))
	}

	aligned := callsign
	if len(aligned) > 1 && isDigit(aligned[1]) {
		aligned = " " + aligned
	}
	if len(aligned) > 6 {
		return "", fmt.Errorf("%w: callsign too long after alignment", ErrInvalidInput)
	}
	for len(aligned) < 6 {
		aligned += " "
	}

	if len(aligned) < 3 || !isDigit(aligned[2]) {
		return "", fmt.Errorf("%w: callsign must have a digit at position 1 or 2", ErrInvalidInput)
	}
	if !isUpper(aligned[1]) {
		return "", fmt.Errorf("%w: callsign must have a letter before its digit", ErrInvalidInput)
	}
	c0 := aligned[0]
	if !(isDigit(c0) || isUpper(c0) || c0 == ' ') {
		return "", fmt.Errorf("%w: invalid character at callsign start", ErrInvalidInput)
	}
	for i := 3; i < 6; i++ {
		if !(isUpper(aligned[i]) || aligned[i] == ' ') {
			return "", fmt.Errorf("%w: callsign suffix must be letters or blank", ErrInvalidInput)
		}
	}

	return aligned, nil
}

// packCallsign implements the C1 callsign-packing procedure of spec
// section 4.1, returning a value that fits in 28 bits.
func packCallsign(callsign string) (uint32, error) {
	aligned, err := alignCallsign(upper(callsign))
	if err != nil {
		return 0, err
	}

	c0, ok := generalSymbol(aligned[0])
	if !ok {
		return 0, fmt.Errorf("%w: invalid callsign character %q", ErrInvalidInput, aligned[0])
	}
	c1, ok := generalSymbol(aligned[1])
	if !ok {
		return 0, fmt.Errorf("%w: invalid callsign character %q", ErrInvalidInput, aligned[1])
	}
	d, ok := generalSymbol(aligned[2])
	if !ok {
		return 0, fmt.Errorf("%w: invalid callsign character %q", ErrInvalidInput, aligned[2])
	}
	s0, ok := suffixSymbol(aligned[3])
	if !ok {
		return 0, fmt.Errorf("%w: invalid callsign character %q", ErrInvalidInput, aligned[3])
	}
	s1, ok := suffixSymbol(aligned[4])
	if !ok {
		return 0, fmt.Errorf("%w: invalid callsign character %q", ErrInvalidInput, aligned[4])
	}
	s2, ok := suffixSymbol(aligned[5])
	if !ok {
		return 0, fmt.Errorf("%w: invalid callsign character %q", ErrInvalidInput, aligned[5])
	}

	n := ((((c0*36+c1)*10+d)*27+s0)*27+s1)*27 + s2
	return n & 0x0FFFFFFF, nil
}

// unpackCallsign reverses packCallsign, trimming the leading and
// trailing padding spaces left over from alignment.
func unpackCallsign(n uint32) string {
	n &= 0x0FFFFFFF

	s2 := n % 27
	n /= 27
	s1 := n % 27
	n /= 27
	s0 := n % 27
	n /= 27
	d := n % 10
	n /= 10
	c1 := n % 36
	n /= 36
	c0 := n

	toGeneral := func(v uint32) byte {
		switch {
		case v == 36:
			return ' '
		case v < 10:
			return byte('0' + v)
		default:
			return byte('A' + (v - 10))
		}
	}
	toSuffix := func(v uint32) byte {
		if v == 26 {
			return ' '
		}
		return byte('A' + v)
	}

	buf := []byte{toGeneral(c0), toGeneral(c1), byte('0' + d), toSuffix(s0), toSuffix(s1), toSuffix(s2)}
	return strings.Trim(string(buf), " ")
}

// packGrid implements the grid+power half of C1: field1/field2/sq1/sq2
// extraction, the 180-radix locator formula, power-correction snapping
// and the Type 1 combination into a 22-bit value.
func packGrid(grid string, powerDBm int) (uint32, int, error) {
	grid = upper(grid)
	if len(grid) != 4 {
		return 0, 0, fmt.Errorf("%w: grid must be exactly 4 characters", ErrInvalidInput)
	}
	if grid[0] < 'A' || grid[0] > 'R' || grid[1] < 'A' || grid[1] > 'R' {
		return 0, 0, fmt.Errorf("%w: grid field letters must be A-R", ErrInvalidInput)
	}
	if !isDigit(grid[2]) || !isDigit(grid[3]) {
		return 0, 0, fmt.Errorf("%w: grid square digits must be 0-9", ErrInvalidInput)
	}
	if powerDBm < 0 || powerDBm > 60 {
		return 0, 0, fmt.Errorf("%w: power %d out of range 0-60", ErrInvalidInput, powerDBm)
	}

	field1 := uint32(grid[0] - 'A')
	field2 := uint32(grid[1] - 'A')
	sq1 := uint32(grid[2] - '0')
	sq2 := uint32(grid[3] - '0')

	m := 180*(179-10*field1-sq1) + 10*field2 + sq2

	correctedPower := snapPower(powerDBm)
	ng := 128*m + uint32(correctedPower) + 64

	return ng & 0x003FFFFF, correctedPower, nil
}

// snapPower applies the power-correction table of spec section 4.1.
// Applying it twice is idempotent: correction values are themselves
// already congruent to a valid power mod 10.
func snapPower(p int) int {
	idx := ((p % 10) + 10) % 10
	return p + powerCorrection[idx]
}

// unpackGrid reverses the 180-radix locator formula.
func unpackGrid(m uint32) string {
	field1 := (179 - m/180) / 10
	sq1 := (179 - m/180) - 10*field1
	field2 := (m % 180) / 10
	sq2 := (m % 180) % 10

	return string([]byte{
		byte('A' + field1),
		byte('A' + field2),
		byte('0' + sq1),
		byte('0' + sq2),
	})
}

// packInfoBits concatenates the 28-bit callsign field and the 22-bit
// grid/power field into an 11-byte, left-aligned, 88-bit buffer whose
// trailing 38 bits are the zero convolutional-encoder flush tail.
func packInfoBits(callsignBits, ng uint32) [infoBytes]byte {
	var c [infoBytes]byte
	c[0] = byte((0x0FF00000 & callsignBits) >> 20)
	c[1] = byte((0x000FF000 & callsignBits) >> 12)
	c[2] = byte((0x00000FF0 & callsignBits) >> 4)
	c[3] = byte((0x0000000F&callsignBits)<<4) | byte((0x003C0000&ng)>>18)
	c[4] = byte((0x0003FC00 & ng) >> 10)
	c[5] = byte((0x000003FC & ng) >> 2)
	c[6] = byte((0x00000003 & ng) << 6)
	// c[7..10] stay zero: the flush tail.
	return c
}

// packMessage runs the full C1 pipeline over a validated Message.
func packMessage(msg Message) ([infoBytes]byte, int, error) {
	callsignBits, err := packCallsign(msg.Callsign)
	if err != nil {
		return [infoBytes]byte{}, 0, err
	}
	ng, correctedPower, err := packGrid(msg.Grid, msg.PowerDBm)
	if err != nil {
		return [infoBytes]byte{}, 0, err
	}
	return packInfoBits(callsignBits, ng), correctedPower, nil
}
