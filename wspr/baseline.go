package wspr

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// baselineSegments/baselinePercentile/baselineTerms mirror the teacher's
// calculateBaseline tuning (audio_extensions/ft8/baseline.go): ten
// segments, the 10th percentile of each as the lower-envelope sample
// set, fit with a quartic.
const (
	baselineSegments   = 10
	baselinePercentile = 10
	baselineTerms      = 5
)

// spectrumAverage collapses a waterfall to one power value per
// frequency bin, averaged across all time frames.
func spectrumAverage(w *waterfall) []float64 {
	avg := make([]float64, w.NumBins)
	if w.NumFrames == 0 {
		return avg
	}
	for _, row := range w.Power {
		for b, p := range row {
			avg[b] += p
		}
	}
	for b := range avg {
		avg[b] /= float64(w.NumFrames)
	}
	return avg
}

// noiseBaseline fits a smooth lower-envelope baseline to the
// waterfall's frequency-averaged power spectrum, in dB, one value per
// bin. It is far less sensitive than a flat median to a band that is
// mostly quiet with a few strong or sloped interferers.
func noiseBaseline(w *waterfall) []float64 {
	s := spectrumAverage(w)
	npts := len(s)
	base := make([]float64, npts)
	if npts == 0 {
		return base
	}

	sDB := make([]float64, npts)
	for i, v := range s {
		if v > 0 {
			sDB[i] = 10 * math.Log10(v)
		} else {
			sDB[i] = -200.0
		}
	}

	nlen := npts / baselineSegments
	if nlen < 1 {
		nlen = 1
	}
	mid := npts / 2

	var xs, ys []float64
	for seg := 0; seg < baselineSegments; seg++ {
		ja := seg * nlen
		jb := ja + nlen - 1
		if jb >= npts {
			jb = npts - 1
		}
		if ja > jb {
			continue
		}
		threshold := percentile(sDB[ja:jb+1], baselinePercentile)
		for i := ja; i <= jb; i++ {
			if sDB[i] <= threshold {
				xs = append(xs, float64(i-mid))
				ys = append(ys, sDB[i])
			}
		}
	}

	coeffs := polyfitLstsq(xs, ys, baselineTerms)
	for i := 0; i < npts; i++ {
		t := float64(i - mid)
		v := 0.0
		for j := len(coeffs) - 1; j >= 0; j-- {
			v = v*t + coeffs[j]
		}
		base[i] = v
	}
	return base
}

func percentile(data []float64, pct int) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	idx := len(sorted) * pct / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// polyfitLstsq fits a degree-(terms-1) polynomial to (x, y) by solving
// the normal equations with gonum, replacing the hand-rolled Gaussian
// elimination the teacher's ft8 sibling uses for the same fit.
func polyfitLstsq(x, y []float64, terms int) []float64 {
	coeffs := make([]float64, terms)
	n := len(x)
	if n == 0 || len(y) != n {
		return coeffs
	}

	design := mat.NewDense(n, terms, nil)
	for i := 0; i < n; i++ {
		xi := 1.0
		for j := 0; j < terms; j++ {
			design.Set(i, j, xi)
			xi *= x[i]
		}
	}
	target := mat.NewVecDense(n, y)

	var ata mat.Dense
	ata.Mul(design.T(), design)
	var aty mat.VecDense
	aty.MulVec(design.T(), target)

	var solution mat.VecDense
	if err := solution.SolveVec(&ata, &aty); err != nil {
		return coeffs
	}
	for j := 0; j < terms; j++ {
		coeffs[j] = solution.AtVec(j)
	}
	return coeffs
}

// noiseFloorAtBin converts a baseline dB value back to linear power.
func noiseFloorAtBin(baseline []float64, bin int) float64 {
	if bin < 0 || bin >= len(baseline) {
		return 1e-12
	}
	return math.Pow(10, baseline[bin]/10)
}
