package wspr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsertCandidateOrdering(t *testing.T) {
	var found []candidate
	found = insertCandidate(found, candidate{Score: 1.0, FreqOffsetHz: 5})
	found = insertCandidate(found, candidate{Score: 3.0, FreqOffsetHz: -2})
	found = insertCandidate(found, candidate{Score: 2.0, FreqOffsetHz: 0})

	require := []float64{3.0, 2.0, 1.0}
	for i, want := range require {
		assert.Equal(t, want, found[i].Score)
	}
}

func TestInsertCandidateTieBreakByFrequency(t *testing.T) {
	var found []candidate
	found = insertCandidate(found, candidate{Score: 1.0, FreqOffsetHz: 10})
	found = insertCandidate(found, candidate{Score: 1.0, FreqOffsetHz: -2})

	assert.InDelta(t, -2, found[0].FreqOffsetHz, 1e-9, "smaller |offset| wins a score tie")
}

func TestInsertCandidateCap(t *testing.T) {
	var found []candidate
	for i := 0; i < maxCandidates+10; i++ {
		found = insertCandidate(found, candidate{Score: float64(i), FreqOffsetHz: 0})
	}
	assert.Len(t, found, maxCandidates)
	assert.Equal(t, float64(maxCandidates+9), found[0].Score)
}

func TestCandidateToneFreqsSpacing(t *testing.T) {
	freqs := candidateToneFreqs(0, 0, 0)
	for i := 1; i < 4; i++ {
		assert.InDelta(t, toneSpacingHz, freqs[i]-freqs[i-1], 1e-9)
	}
	assert.InDelta(t, toneCenterHz, freqs[0], 1e-9)
}

func TestCandidateToneFreqsDriftSymmetricAtMidpoint(t *testing.T) {
	mid := symbolCount / 2
	freqsNoDrift := candidateToneFreqs(0, 0, mid)
	freqsDrift := candidateToneFreqs(0, 2.0, mid)
	// drift correction is defined relative to the midpoint of the
	// transmission, so at the midpoint symbol it should vanish.
	for i := range freqsNoDrift {
		assert.InDelta(t, freqsNoDrift[i], freqsDrift[i], 0.05)
	}
}

func newSyntheticWaterfall(numFrames, numBins int, binHz float64) *waterfall {
	power := make([][]float64, numFrames)
	for i := range power {
		row := make([]float64, numBins)
		for b := range row {
			row[b] = 1e-6
		}
		power[i] = row
	}
	return &waterfall{
		Power:     power,
		NumFrames: numFrames,
		NumBins:   numBins,
		BinHz:     binHz,
		HopSec:    float64(frameHop) / sampleRateHz,
		MinBin:    0,
	}
}

func TestSyncScoreFavorsTrueAlignment(t *testing.T) {
	binHz := toneSpacingHz / 4
	numBins := int(3000.0/binHz) + 10
	w := newSyntheticWaterfall(symbolCount+5, numBins, binHz)

	for i := 0; i < symbolCount; i++ {
		freqs := candidateToneFreqs(0, 0, i)
		// tone value whose low bit equals the sync bit at this position.
		tone := syncVector[i]
		bin := w.binOfFreq(freqs[tone])
		w.Power[i][bin] = 1.0
	}

	trueScore := syncScore(w, 0, 0, 0)
	wrongScore := syncScore(w, 50, 0, 0)
	assert.Greater(t, trueScore, wrongScore)
	assert.Greater(t, trueScore, 0.0)
}
