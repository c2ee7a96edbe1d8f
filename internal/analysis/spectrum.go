package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// PowerSpectrum returns the magnitude of the first len(data)/2 FFT bins of
// data with its mean removed.
func PowerSpectrum(data []float64) []float64 {
	if len(data) < 2 {
		return nil
	}

	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	centered := make([]float64, len(data))
	for i, v := range data {
		centered[i] = v - mean
	}

	spectrum := fft.FFTReal(centered)
	ps := make([]float64, len(spectrum)/2)
	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}
	return ps
}

// DominantFrequency returns the frequency in Hz of the strongest non-DC bin
// of data sampled at sampleRate, or 0 when there is none.
func DominantFrequency(data []float64, sampleRate float64) float64 {
	ps := PowerSpectrum(data)
	best, bin := 0.0, 0
	for i := 1; i < len(ps); i++ {
		if ps[i] > best {
			best, bin = ps[i], i
		}
	}
	if bin == 0 {
		return 0
	}
	return float64(bin) * sampleRate / float64(len(data))
}
