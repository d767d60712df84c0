package wspr

import (
	"math"
	"sort"
)

const (
	freqSearchHz   = 150.0 // sub-band half-width around 1500 Hz
	freqStepHz     = 0.5   // spec section 4.9's ~0.5 Hz frequency-offset scan step
	timeSearchMinS = -1.0
	timeSearchMaxS = 2.0
	timeStepSec    = 0.5 // spec section 4.9's ~0.5 s time-offset scan step
	driftMinHzS    = -4.0
	driftMaxHzS    = 4.0
	driftStepHzS   = 0.25
	maxCandidates  = 200
	minSyncScore   = 1.0
)

// candidate is a coarse (frequency, time, drift) estimate from C5,
// carrying enough state for C6/C7 to re-derive tone positions.
type candidate struct {
	FreqOffsetHz  float64
	TimeOffsetSec float64
	DriftHzS      float64
	Score         float64

	timeFrame0 int // waterfall frame index where symbol 0 begins
}

// findCandidates implements C5: scans centre frequency, time offset
// and drift, scoring each combination by how strongly its expected
// sync-tone bins stand out over the other tone bins across all 162
// symbols. Time offset is scanned in timeStepSec steps, finer than one
// waterfall frame (one symbol period), by interpolating the waterfall
// between adjacent frames; timeFrame0 still rounds to the nearest
// whole frame for C6/C7, which extract against real FFT frames only.
// The top maxCandidates surviving minSyncScore are returned, sorted by
// score descending then by |frequency offset| ascending.
func findCandidates(w *waterfall) []candidate {
	var found []candidate

	for freqOffset := -freqSearchHz; freqOffset <= freqSearchHz; freqOffset += freqStepHz {
		for tOffset := timeSearchMinS; tOffset <= timeSearchMaxS; tOffset += timeStepSec {
			frame0 := tOffset / w.HopSec
			for drift := driftMinHzS; drift <= driftMaxHzS; drift += driftStepHzS {
				score := syncScore(w, freqOffset, frame0, drift)
				if score < minSyncScore {
					continue
				}
				found = insertCandidate(found, candidate{
					FreqOffsetHz:  freqOffset,
					TimeOffsetSec: tOffset,
					DriftHzS:      drift,
					Score:         score,
					timeFrame0:    int(math.Round(frame0)),
				})
			}
		}
	}
	return found
}

// syncScore sums, over all 162 symbol positions, the difference
// between the power in the tone pair the sync vector predicts and the
// power in the other tone pair. frame0 is a frame index, not
// necessarily integral; fractional frames are linearly interpolated.
func syncScore(w *waterfall, freqOffsetHz float64, frame0 float64, driftHzS float64) float64 {
	var score float64
	for i := 0; i < symbolCount; i++ {
		frame := frame0 + float64(i)
		freqs := candidateToneFreqs(freqOffsetHz, driftHzS, i)

		var lowPower, highPower float64
		for tone := 0; tone < 4; tone++ {
			bin := w.binOfFreq(freqs[tone])
			p := w.atFrac(frame, bin)
			if tone%2 == 0 {
				lowPower += p
			} else {
				highPower += p
			}
		}

		if syncVector[i] == 1 {
			score += highPower - lowPower
		} else {
			score += lowPower - highPower
		}
	}
	return score
}

// candidateToneFreqs returns the four expected tone frequencies (Hz)
// for symbol i of a candidate at freqOffsetHz/driftHzS.
func candidateToneFreqs(freqOffsetHz, driftHzS float64, symbolIndex int) [4]float64 {
	var freqs [4]float64
	center := toneCenterHz + freqOffsetHz
	for tone := 0; tone < 4; tone++ {
		freqs[tone] = toneFrequency(center, driftHzS, symbolIndex, tone)
	}
	return freqs
}

// insertCandidate keeps found sorted by score descending, capped to
// maxCandidates, matching the tie-break rule of spec section 4.5:
// higher score wins, then lower |frequency offset|.
func insertCandidate(found []candidate, c candidate) []candidate {
	i := sort.Search(len(found), func(i int) bool {
		if found[i].Score != c.Score {
			return found[i].Score < c.Score
		}
		return absF(found[i].FreqOffsetHz) > absF(c.FreqOffsetHz)
	})
	found = append(found, candidate{})
	copy(found[i+1:], found[i:])
	found[i] = c
	if len(found) > maxCandidates {
		found = found[:maxCandidates]
	}
	return found
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
