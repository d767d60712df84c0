package wspr

import "math"

const metricClamp = 30.0

// extractMetrics implements C6: for each of the 162 symbol positions,
// de-rotate the window by the candidate's (t0, f0, drift) estimate and
// compute the log-ratio of the summed power of the two tones whose
// high bit (the parity bit, per spec section 4.2's symbol formula) is
// 1 against the two tones whose high bit is 0. The result is scaled so
// one standard deviation equals metricClamp and then clamped to
// ±metricClamp, the range fanoBias in fano.go is derived from, giving
// branch costs C7 can accumulate without overflow.
func extractMetrics(w *waterfall, c candidate) [symbolCount]float64 {
	var metrics [symbolCount]float64

	for i := 0; i < symbolCount; i++ {
		frame := c.timeFrame0 + i
		freqs := candidateToneFreqs(c.FreqOffsetHz, c.DriftHzS, i)

		var lowPower, highPower float64
		for tone := 0; tone < 4; tone++ {
			bin := w.binOfFreq(freqs[tone])
			p := w.at(frame, bin)
			if tone < 2 {
				lowPower += p
			} else {
				highPower += p
			}
		}

		metrics[i] = logRatio(highPower, lowPower)
	}

	normalizeMetrics(&metrics)
	for i := range metrics {
		metrics[i] = clamp(metrics[i], -metricClamp, metricClamp)
	}
	return metrics
}

func logRatio(a, b float64) float64 {
	const floor = 1e-12
	if a < floor {
		a = floor
	}
	if b < floor {
		b = floor
	}
	return math.Log(a) - math.Log(b)
}

func normalizeMetrics(metrics *[symbolCount]float64) {
	var sum, sumSq float64
	for _, m := range metrics {
		sum += m
		sumSq += m * m
	}
	n := float64(symbolCount)
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance <= 0 {
		return
	}
	scale := metricClamp / math.Sqrt(variance)
	for i := range metrics {
		metrics[i] *= scale
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
