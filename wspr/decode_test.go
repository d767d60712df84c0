package wspr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEncodeDecodeRoundTrip exercises the full C1-C8 pipeline
// end-to-end: Encode produces real PCM, which is run through the real
// FFT/candidate-search/Fano-decode path Decode implements, per spec.md
// section 9 scenario 1 (noise-free round trip) and scenario 5
// (K1ABC/FN20/37 accuracy).
func TestEncodeDecodeRoundTrip(t *testing.T) {
	msg := testMessage()
	pcm, err := Encode(msg, 0, false)
	require.NoError(t, err)
	require.Len(t, pcm, PCMByteLength)

	// Encode's output covers exactly 162 symbols (~110.6 s); Decode
	// requires a full 114 s window, so pad with trailing silence the
	// way a real collector would if the transmission ends before its
	// window closes.
	padded := make([]byte, 2*minWindowLen)
	copy(padded, pcm)

	results, candidates, err := Decode(padded, NewMemHashTable())
	require.NoError(t, err)
	require.NotEmpty(t, results, "noise-free encode should yield at least one decode")
	assert.GreaterOrEqual(t, candidates, len(results), "candidate count must cover every surviving decode")

	r := results[0]
	assert.Equal(t, msg.Callsign, r.Callsign)
	assert.Equal(t, msg.Grid, r.Grid)
	assert.Equal(t, msg.PowerDBm, r.PowerDBm)
	assert.Equal(t, Type1, r.MessageType)
	assert.InDelta(t, 0, r.FreqOffsetHz, 5.0)
}

func TestDecodeInsufficientData(t *testing.T) {
	short := make([]byte, 100)
	_, _, err := Decode(short, NewMemHashTable())
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestDecodeNoCandidatesReturnsEmptyNotError(t *testing.T) {
	silence := make([]byte, 2*minWindowLen)
	results, candidates, err := Decode(silence, NewMemHashTable())
	assert.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, candidates)
}

func TestFieldsFromBitsRoundTrip(t *testing.T) {
	msg := testMessage()
	info, _, err := packMessage(msg)
	assert.NoError(t, err)

	bits := infoBitsMSBFirst(info, infoDecodedBits)
	var arr [infoDecodedBits]byte
	copy(arr[:], bits)

	callsignBits, ng := fieldsFromBits(arr)

	wantCallsignBits, err := packCallsign(msg.Callsign)
	assert.NoError(t, err)
	wantNg, _, err := packGrid(msg.Grid, msg.PowerDBm)
	assert.NoError(t, err)

	assert.Equal(t, wantCallsignBits, callsignBits)
	assert.Equal(t, wantNg, ng)
}

func TestDedupeResultsOrderingAndDedup(t *testing.T) {
	results := []DecodeResult{
		{Callsign: "K1ABC", SyncScore: 1, FreqOffsetHz: 5},
		{Callsign: "K1ABC", SyncScore: 3, FreqOffsetHz: -1},
		{Callsign: "W1AW", SyncScore: 5, FreqOffsetHz: 20},
	}
	out := dedupeResults(results)

	assert.Len(t, out, 2)
	assert.Equal(t, "W1AW", out[0].Callsign)
	assert.Equal(t, "K1ABC", out[1].Callsign)
	assert.InDelta(t, 3, out[1].SyncScore, 1e-9, "the higher-score duplicate must survive")
}

func TestDedupeResultsOrdersByFrequencyAscendingOnTie(t *testing.T) {
	results := []DecodeResult{
		{Callsign: "K1ABC", SyncScore: 2, FreqOffsetHz: 5},
		{Callsign: "W1AW", SyncScore: 2, FreqOffsetHz: -30},
	}
	out := dedupeResults(results)

	assert.Len(t, out, 2)
	assert.Equal(t, "W1AW", out[0].Callsign, "equal score breaks by ascending frequency, not |frequency|")
	assert.Equal(t, "K1ABC", out[1].Callsign)
}

func TestDedupeResultsSameCallsignDistinctGridSurvive(t *testing.T) {
	results := []DecodeResult{
		{Callsign: "K1ABC", Grid: "FN20", PowerDBm: 37, SNRdB: -10, SyncScore: 3, FreqOffsetHz: 5},
		{Callsign: "K1ABC", Grid: "FN21", PowerDBm: 37, SNRdB: -10, SyncScore: 2, FreqOffsetHz: -1},
	}
	out := dedupeResults(results)
	assert.Len(t, out, 2, "same callsign but different grid is a distinct tuple and must not be collapsed")
}

func TestDedupeResultsUnresolvedDistinctHashesSurvive(t *testing.T) {
	results := []DecodeResult{
		{Callsign: unresolvedCallsign, CallHash: 1, FreqOffsetHz: 10, SyncScore: 2},
		{Callsign: unresolvedCallsign, CallHash: 2, FreqOffsetHz: -30, SyncScore: 2},
	}
	out := dedupeResults(results)
	assert.Len(t, out, 2)
}

func TestSnrFromPower(t *testing.T) {
	snr := snrFromPower(1.0, 1.0, noiseRefBandwidthHz)
	assert.InDelta(t, 0, snr, 1e-6)

	louder := snrFromPower(100.0, 1.0, noiseRefBandwidthHz)
	assert.Greater(t, louder, snr)
}

func TestMedianPower(t *testing.T) {
	w := newSyntheticWaterfall(3, 3, 1.0)
	w.Power[1][1] = 100.0
	m := medianPower(w)
	assert.Greater(t, m, 0.0)
	assert.Less(t, m, 100.0)
}
