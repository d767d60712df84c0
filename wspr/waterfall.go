package wspr

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	fftSize      = 16384 // 1.365 s frame -> 0.732 Hz bins
	frameHop     = samplesPerSym
	bandLowHz    = 1350.0
	bandHighHz   = 1650.0
	minWindowSec = 114.0
	minWindowLen = int(minWindowSec * sampleRateHz)
)

// waterfall is the C4 time-frequency power grid: NumFrames rows of
// NumBins real-valued power samples covering the ±150 Hz WSPR
// sub-band. Bin 0 corresponds to bandLowHz.
type waterfall struct {
	Power     [][]float64 // [frame][bin]
	NumFrames int
	NumBins   int
	BinHz     float64
	HopSec    float64
	MinBin    int // index into the full FFT this waterfall's bin 0 came from
}

// buildWaterfall implements C4: overlapping Hann-windowed FFTs of a
// 12 kHz PCM window, retaining only the WSPR sub-band and masking the
// DC/Nyquist bins of the underlying FFT (which fall outside the
// retained band here regardless, since the band is far from either).
func buildWaterfall(pcm []int16) (*waterfall, error) {
	if len(pcm) < minWindowLen {
		return nil, ErrInsufficientData
	}
	pcm = pcm[:minWindowLen]

	window := make([]float64, fftSize)
	for i := range window {
		window[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(fftSize-1))
	}

	binHz := sampleRateHz / float64(fftSize)
	minBin := int(math.Floor(bandLowHz / binHz))
	maxBin := int(math.Ceil(bandHighHz / binHz))
	numBins := maxBin - minBin + 1

	numFrames := (len(pcm)-fftSize)/frameHop + 1
	if numFrames < 1 {
		return nil, ErrInsufficientData
	}

	fft := fourier.NewFFT(fftSize)
	power := make([][]float64, numFrames)

	frameBuf := make([]float64, fftSize)
	for f := 0; f < numFrames; f++ {
		start := f * frameHop
		for i := 0; i < fftSize; i++ {
			frameBuf[i] = float64(pcm[start+i]) * window[i]
		}
		coeffs := fft.Coefficients(nil, frameBuf)

		row := make([]float64, numBins)
		for b := 0; b < numBins; b++ {
			c := coeffs[minBin+b]
			row[b] = real(c)*real(c) + imag(c)*imag(c)
		}
		power[f] = row
	}

	return &waterfall{
		Power:     power,
		NumFrames: numFrames,
		NumBins:   numBins,
		BinHz:     binHz,
		HopSec:    float64(frameHop) / sampleRateHz,
		MinBin:    minBin,
	}, nil
}

// binOfFreq returns the (possibly fractional-rounded) bin index for a
// frequency in Hz, relative to this waterfall's band.
func (w *waterfall) binOfFreq(hz float64) int {
	return int(math.Round(hz/w.BinHz)) - w.MinBin
}

// at returns the power at (frame, bin), or 0 if out of range.
func (w *waterfall) at(frame, bin int) float64 {
	if frame < 0 || frame >= w.NumFrames || bin < 0 || bin >= w.NumBins {
		return 0
	}
	return w.Power[frame][bin]
}

// atFrac returns the power at (frame, bin) for a possibly fractional
// frame index, linearly interpolating between the two surrounding
// frames. This gives C5's time-offset search sub-frame resolution
// without rebuilding the waterfall at a finer FFT hop.
func (w *waterfall) atFrac(frame float64, bin int) float64 {
	f0 := math.Floor(frame)
	frac := frame - f0
	lo := w.at(int(f0), bin)
	hi := w.at(int(f0)+1, bin)
	return lo*(1-frac) + hi*frac
}

// pcmToInt16 decodes a little-endian signed 16-bit mono PCM buffer.
func pcmToInt16(pcm []byte) []int16 {
	out := make([]int16, len(pcm)/2)
	for i := range out {
		out[i] = int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8)
	}
	return out
}
