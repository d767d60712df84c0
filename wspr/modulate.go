package wspr

import (
	"encoding/binary"
	"math"
)

// synthesize implements C3: each of the 162 symbols becomes
// samplesPerSym samples of a sine tone at the symbol's frequency,
// phase reset to zero at every symbol boundary. This matches the
// reference encoder (both the native JNI implementation and the
// ftl/digimodes port); continuous phase across symbol boundaries
// would also satisfy the round-trip law but is not required.
func synthesize(symbols [symbolCount]byte, offsetHz int, lsbMode bool) []byte {
	pcm := make([]byte, PCMByteLength)

	pos := 0
	for _, sym := range symbols {
		s := float64(sym)
		if lsbMode {
			s = 3 - s
		}
		freq := toneCenterHz + float64(offsetHz) + s*toneSpacingHz

		for n := 0; n < samplesPerSym; n++ {
			sample := fskAmplitude * math.Sin(2*math.Pi*freq*float64(n)/sampleRateHz)
			binary.LittleEndian.PutUint16(pcm[pos:pos+2], uint16(int16(sample)))
			pos += 2
		}
	}
	return pcm
}

// toneFrequency returns the frequency in Hz of tone value sym (0..3)
// given a centre offset and drift, at symbol index i. Used by the
// decoder's soft-metric extractor to know where in the spectrogram to
// look for each candidate tone.
func toneFrequency(centerHz, driftHzPerSec float64, symbolIndex int, tone int) float64 {
	// Drift is linear across the transmission; the correction at
	// symbol i is proportional to how far through the 162-symbol,
	// ~110.6s transmission that symbol falls.
	t := float64(symbolIndex) * (float64(samplesPerSym) / sampleRateHz)
	total := float64(symbolCount) * (float64(samplesPerSym) / sampleRateHz)
	driftOffset := driftHzPerSec * (t - total/2)
	return centerHz + driftOffset + float64(tone)*toneSpacingHz
}
