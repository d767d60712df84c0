package wspr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMetricsNoiseFreeDecodesCorrectly(t *testing.T) {
	msg := testMessage()
	info, _, err := packMessage(msg)
	require.NoError(t, err)
	symbols := convolve(info)

	binHz := toneSpacingHz / 4
	numBins := int(3000.0/binHz) + 10
	w := newSyntheticWaterfall(symbolCount+5, numBins, binHz)

	for i, sym := range symbols {
		freqs := candidateToneFreqs(0, 0, i)
		bin := w.binOfFreq(freqs[sym])
		w.Power[i][bin] = 1.0
	}

	c := candidate{FreqOffsetHz: 0, DriftHzS: 0, timeFrame0: 0}
	metrics := extractMetrics(w, c)

	bits, ok := sequentialDecode(metrics)
	require.True(t, ok)
	assert.True(t, verifyConsistency(bits, metrics))

	callsignBits, ng := fieldsFromBits(bits)
	result := unpackMessage(callsignBits, ng, NewMemHashTable())
	assert.Equal(t, msg.Callsign, result.Callsign)
	assert.Equal(t, msg.Grid, result.Grid)
	assert.Equal(t, snapPower(msg.PowerDBm), result.PowerDBm)
}

func TestLogRatioMonotonic(t *testing.T) {
	assert.Greater(t, logRatio(10, 1), logRatio(1, 1))
	assert.Less(t, logRatio(1, 10), logRatio(1, 1))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 5.0, clamp(5, 0, 10))
	assert.Equal(t, 0.0, clamp(-5, 0, 10))
	assert.Equal(t, 10.0, clamp(15, 0, 10))
}
