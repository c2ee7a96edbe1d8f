package analysis

import "math"

// Peaks returns the indices of strict local maxima of data.
func Peaks(data []float64) []int {
	var peaks []int
	for i := 1; i+1 < len(data); i++ {
		if data[i] > data[i-1] && data[i] >= data[i+1] {
			peaks = append(peaks, i)
		}
	}
	return peaks
}

// LogDecrement estimates the logarithmic decrement of an oscillation about
// its mean: the average of ln(a_k / a_k+1) over successive peak amplitudes.
// It returns NaN when fewer than two positive peaks exist.
func LogDecrement(data []float64) float64 {
	if len(data) == 0 {
		return math.NaN()
	}
	mean := 0.0
	for _, v := range data {
		mean += v
	}
	mean /= float64(len(data))

	var amps []float64
	for _, i := range Peaks(data) {
		if a := data[i] - mean; a > 0 {
			amps = append(amps, a)
		}
	}
	if len(amps) < 2 {
		return math.NaN()
	}

	sum := 0.0
	for k := 0; k+1 < len(amps); k++ {
		sum += math.Log(amps[k] / amps[k+1])
	}
	return sum / float64(len(amps)-1)
}

// DampingRatio converts a logarithmic decrement to a damping ratio.
func DampingRatio(delta float64) float64 {
	return delta / math.Sqrt(4*math.Pi*math.Pi+delta*delta)
}
