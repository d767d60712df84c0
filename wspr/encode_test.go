package wspr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage() Message {
	return Message{Callsign: "K1ABC", Grid: "FN20", PowerDBm: 37}
}

func TestEncodeToSymbolsCount(t *testing.T) {
	symbols, _, err := EncodeToSymbols(testMessage())
	require.NoError(t, err)
	assert.Len(t, symbols, symbolCount)
	for _, s := range symbols {
		assert.LessOrEqual(t, s, byte(3))
	}
}

func TestEncodeToSymbolsSyncBitLaw(t *testing.T) {
	// spec section 4.2/4.8: the low bit of every transmitted symbol is
	// the fixed sync vector, independent of message content.
	symbols, _, err := EncodeToSymbols(testMessage())
	require.NoError(t, err)
	for i, s := range symbols {
		assert.Equal(t, syncVector[i], s&1, "symbol %d sync bit mismatch", i)
	}

	symbols2, _, err := EncodeToSymbols(Message{Callsign: "W1AW", Grid: "JO65", PowerDBm: 23})
	require.NoError(t, err)
	for i, s := range symbols2 {
		assert.Equal(t, syncVector[i], s&1, "symbol %d sync bit mismatch for second message", i)
	}
}

func TestEncodePCMLength(t *testing.T) {
	pcm, err := Encode(testMessage(), 1500, false)
	require.NoError(t, err)
	assert.Len(t, pcm, PCMByteLength)
}

func TestEncodeToFrequenciesOffsetLinear(t *testing.T) {
	base, err := EncodeToFrequencies(testMessage(), 0, false)
	require.NoError(t, err)
	shifted, err := EncodeToFrequencies(testMessage(), 100, false)
	require.NoError(t, err)

	for i := range base {
		assert.Equal(t, base[i]+100*100, shifted[i], "symbol %d: a fixed Hz offset must shift every tone by the same centihertz amount", i)
	}
}

func TestEncodeToFrequenciesLSBMirrors(t *testing.T) {
	symbols, _, err := EncodeToSymbols(testMessage())
	require.NoError(t, err)

	usb, err := EncodeToFrequencies(testMessage(), 0, false)
	require.NoError(t, err)
	lsb, err := EncodeToFrequencies(testMessage(), 0, true)
	require.NoError(t, err)

	for i, sym := range symbols {
		mirrored := 3 - float64(sym)
		expectedLSB := int64((toneCenterHz + mirrored*toneSpacingHz) * 100)
		assert.Equal(t, expectedLSB, lsb[i])
		assert.NotEqual(t, usb[i], lsb[i], "LSB mode must invert tone order")
	}
}

func TestValidateMessage(t *testing.T) {
	assert.NoError(t, ValidateMessage(testMessage()))
	assert.Error(t, ValidateMessage(Message{Callsign: "", Grid: "FN20", PowerDBm: 37}))
	assert.Error(t, ValidateMessage(Message{Callsign: "K1ABC", Grid: "FN20", PowerDBm: 99}))
}

func TestMessageTypeString(t *testing.T) {
	assert.Equal(t, "Type1", Type1.String())
	assert.Equal(t, "Type2", Type2.String())
	assert.Equal(t, "Type3", Type3.String())
}
