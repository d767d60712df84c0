// Package wspr implements the WSPR (Weak Signal Propagation Reporter)
// message codec: packing a station report into 50 information bits,
// convolutional encoding, 4-FSK modulation, and the reverse path of
// spectrogram analysis, candidate search, soft-metric extraction and
// sequential decoding.
//
// The package is a pure library: it never logs and never touches a
// clock, a file, or the network. Encoding is a pure function of its
// inputs; decoding is a pure function of a PCM buffer plus a caller
// supplied HashTable for compound-callsign resolution.
package wspr

import "errors"

// Sentinel errors, matching the error taxonomy of the codec contract.
var (
	// ErrInvalidInput is returned when a callsign, grid or power value
	// does not satisfy the Type 1 grammar.
	ErrInvalidInput = errors.New("wspr: invalid input")

	// ErrInsufficientData is returned when Decode is called with less
	// than one full 114 second window of PCM.
	ErrInsufficientData = errors.New("wspr: insufficient data")

	// ErrArithmeticDomain is returned by latitude/longitude conversions
	// given a pole or a NaN coordinate.
	ErrArithmeticDomain = errors.New("wspr: arithmetic domain error")
)

// unresolvedCallsign is substituted for a Type 2/3 callsign whose hash
// is not present in the caller's hash table.
const unresolvedCallsign = "<...>"

// MessageType distinguishes the three WSPR payload shapes. Only Type1
// can be produced by Encode; all three may appear in Decode results.
type MessageType int

const (
	// Type1 carries a standard callsign, a 4-character grid and power.
	Type1 MessageType = iota + 1
	// Type2 carries a compound (prefix/suffix) callsign, a hashed
	// counterpart callsign and power, no grid.
	Type2
	// Type3 carries a 6-character grid and a hashed callsign, no
	// separately transmitted callsign.
	Type3
)

// Message is a station report: the encoder's input and the decoder's
// output. Callsign is 1-6 printable characters (uppercase letters and
// digits, exactly one digit at position 1 or 2 for Type 1). Grid is a
// 4-character Maidenhead locator. PowerDBm is 0-60 and is snapped to
// the nearest representable value on encode.
type Message struct {
	Callsign string
	Grid     string
	PowerDBm int
}

// DecodeResult is one decoded WSPR spot.
type DecodeResult struct {
	SNRdB         float64
	SyncScore     float64
	FreqOffsetHz  float64
	TimeOffsetSec float64
	DriftHzPerSec float64
	MessageText   string
	Callsign      string
	Grid          string
	PowerDBm      int
	MessageType   MessageType

	// CallHash is the 15-bit callsign hash computed or read by C8. For
	// a Type 2/3 decode this is the hash that was looked up, whether or
	// not it resolved; for a Type 1 decode this is the hash of Callsign
	// that was inserted into the hash table.
	CallHash uint32
}
