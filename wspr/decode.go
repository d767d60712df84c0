package wspr

import (
	"fmt"
	"math"
	"sort"
)

// noiseRefBandwidthHz is the WSPR convention's reference bandwidth for
// reporting SNR, matching WSJT-X's 2500 Hz noise-equivalent bandwidth
// regardless of the narrower band actually analyzed here.
const noiseRefBandwidthHz = 2500.0

// Decode implements the full C4-C8 reverse path: build a spectrogram
// from pcm, search it for WSPR candidates, and attempt a sequential
// decode of each. table resolves and accumulates Type 2/3 compound
// callsigns; pass a fresh NewMemHashTable per independent run, or share
// one across consecutive windows to let later windows resolve hashes
// seen earlier.
//
// A pcm buffer shorter than one 114 second window is an error. Beyond
// that, finding no valid decodes is not an error: the result is an
// empty, non-nil slice. The returned int is the number of candidates
// C5's search surfaced in this window, before C6-C8 whittle them down
// to decodes; callers that report a candidates-searched metric
// alongside a decodes-succeeded one (distinguishing a quiet band from
// a noisy one that still yields nothing) want this, not len(results).
func Decode(pcm []byte, table HashTable) ([]DecodeResult, int, error) {
	samples := pcmToInt16(pcm)
	w, err := buildWaterfall(samples)
	if err != nil {
		return nil, 0, err
	}

	flatFloor := medianPower(w)
	baseline := noiseBaseline(w)
	candidates := findCandidates(w)

	results := make([]DecodeResult, 0, len(candidates))
	for _, c := range candidates {
		metrics := extractMetrics(w, c)
		bits, ok := sequentialDecode(metrics)
		if !ok {
			continue
		}
		if !verifyConsistency(bits, metrics) {
			continue
		}

		callsignBits, ng := fieldsFromBits(bits)
		result := unpackMessage(callsignBits, ng, table)
		noiseFloor := noiseFloorAtBin(baseline, w.binOfFreq(candidateToneFreqs(c.FreqOffsetHz, c.DriftHzS, 0)[0]))
		if noiseFloor <= 0 {
			noiseFloor = flatFloor
		}
		result.SNRdB = snrFromPower(candidateSignalPower(w, c), noiseFloor, w.BinHz)
		result.SyncScore = c.Score
		result.FreqOffsetHz = c.FreqOffsetHz
		result.TimeOffsetSec = c.TimeOffsetSec
		result.DriftHzPerSec = c.DriftHzS
		results = append(results, result)
	}

	return dedupeResults(results), len(candidates), nil
}

// fieldsFromBits splits the decoded 81 information+flush bits into the
// 28-bit callsign field and 22-bit grid/power field, MSB first, per
// the packInfoBits layout of spec section 4.1.
func fieldsFromBits(bits [infoDecodedBits]byte) (callsignBits, ng uint32) {
	for i := 0; i < 28; i++ {
		callsignBits = (callsignBits << 1) | uint32(bits[i])
	}
	for i := 28; i < payloadBits; i++ {
		ng = (ng << 1) | uint32(bits[i])
	}
	return callsignBits, ng
}

// candidateSignalPower averages the in-band power of a candidate's
// four tones across all 162 symbols.
func candidateSignalPower(w *waterfall, c candidate) float64 {
	var sum float64
	n := 0
	for i := 0; i < symbolCount; i++ {
		frame := c.timeFrame0 + i
		freqs := candidateToneFreqs(c.FreqOffsetHz, c.DriftHzS, i)
		for _, f := range freqs {
			sum += w.at(frame, w.binOfFreq(f))
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// medianPower estimates the noise floor as the median power across
// the whole waterfall, robust to the handful of bins a strong signal
// occupies.
func medianPower(w *waterfall) float64 {
	all := make([]float64, 0, w.NumFrames*w.NumBins)
	for _, row := range w.Power {
		all = append(all, row...)
	}
	if len(all) == 0 {
		return 1e-12
	}
	sort.Float64s(all)
	return all[len(all)/2]
}

// snrFromPower converts a signal/noise power ratio measured in bins of
// width binHz into the 2500 Hz reference-bandwidth dB figure WSPR
// reports conventionally use.
func snrFromPower(signal, noisePerBin, binHz float64) float64 {
	if noisePerBin <= 0 {
		noisePerBin = 1e-12
	}
	noiseInRef := noisePerBin * (noiseRefBandwidthHz / binHz)
	if noiseInRef <= 0 {
		noiseInRef = 1e-12
	}
	return 10 * math.Log10(signal/noiseInRef)
}

// dedupeResults implements spec sections 5 and 8's ordering and
// equality rule: sort by sync score descending, then by frequency
// offset ascending, keeping only the first decode seen for each
// distinct (callsign, grid, power, SNR-to-0.1dB) tuple. Two decodes
// sharing a callsign but differing in grid, power, or SNR are genuinely
// distinct stations (or the same station reported twice at different
// fidelity) and must both survive. An unresolved callsign is
// deduplicated by its hash and frequency instead of the tuple, since
// several distinct unknown stations would otherwise collide on the
// shared placeholder text.
func dedupeResults(results []DecodeResult) []DecodeResult {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].SyncScore != results[j].SyncScore {
			return results[i].SyncScore > results[j].SyncScore
		}
		return results[i].FreqOffsetHz < results[j].FreqOffsetHz
	})

	seen := make(map[string]bool, len(results))
	out := make([]DecodeResult, 0, len(results))
	for _, r := range results {
		key := dedupeKeyUnresolved(r)
		if r.Callsign != unresolvedCallsign {
			key = fmt.Sprintf("%s:%s:%d:%.1f", r.Callsign, r.Grid, r.PowerDBm, r.SNRdB)
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	return out
}

func dedupeKeyUnresolved(r DecodeResult) string {
	return fmt.Sprintf("%s:%d:%.0f", unresolvedCallsign, r.CallHash, r.FreqOffsetHz)
}
