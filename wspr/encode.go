package wspr

import "fmt"

// PCMByteLength is the exact length in bytes of the PCM buffer
// produced by Encode: 2 bytes/sample * symbolCount * samplesPerSym.
const PCMByteLength = 2 * symbolCount * samplesPerSym

// validateMessage checks the Type 1 grammar by running packMessage and
// discarding the packed bits; Encode and EncodeToSymbols both rely on
// packMessage to do the actual, authoritative validation, so this
// exists only to give ValidateMessage a name callers can use ahead of
// time.
func validateMessage(msg Message) error {
	_, _, err := packMessage(msg)
	return err
}

// ValidateMessage reports whether msg satisfies the Type 1 grammar of
// spec section 4.1, without encoding it.
func ValidateMessage(msg Message) error {
	return validateMessage(msg)
}

// EncodeToSymbols runs C1 and C2, returning the 162-symbol vector
// (values in 0..3) for msg. The returned power is msg.PowerDBm after
// power-correction snapping.
func EncodeToSymbols(msg Message) (symbols [symbolCount]byte, snappedPower int, err error) {
	info, snappedPower, err := packMessage(msg)
	if err != nil {
		return symbols, 0, err
	}
	symbols = convolve(info)
	return symbols, snappedPower, nil
}

// EncodeToFrequencies runs C1-C3 without audio synthesis, returning
// the 162 tone frequencies in centihertz (Hz * 100), suitable for a
// hardware transmitter that consumes symbols directly. offsetHz is
// added to every tone; in LSB mode symbol values are mirrored
// (3-symbol) before the frequency is computed, reversing spectral
// orientation.
func EncodeToFrequencies(msg Message, offsetHz int, lsbMode bool) ([symbolCount]int64, error) {
	symbols, _, err := EncodeToSymbols(msg)
	if err != nil {
		return [symbolCount]int64{}, err
	}

	var freqs [symbolCount]int64
	for i, sym := range symbols {
		s := float64(sym)
		if lsbMode {
			s = 3 - s
		}
		hz := toneCenterHz + float64(offsetHz) + s*toneSpacingHz
		freqs[i] = int64(hz * 100)
	}
	return freqs, nil
}

// Encode runs the full C1-C3 pipeline, returning a little-endian
// signed 16-bit mono PCM buffer at 12 kHz, exactly PCMByteLength bytes
// long.
func Encode(msg Message, offsetHz int, lsbMode bool) ([]byte, error) {
	symbols, _, err := EncodeToSymbols(msg)
	if err != nil {
		return nil, err
	}
	return synthesize(symbols, offsetHz, lsbMode), nil
}

func (t MessageType) String() string {
	switch t {
	case Type1:
		return "Type1"
	case Type2:
		return "Type2"
	case Type3:
		return "Type3"
	default:
		return fmt.Sprintf("MessageType(%d)", int(t))
	}
}
