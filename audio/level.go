package audio

import "github.com/chewxy/math32"

// RMS calculates the root mean square of non-interlaced samples. An empty
// slice has an RMS of 0.
func RMS(samples []float32) float32 {
	if len(samples) == 0 {
		return 0
	}

	var sum float32
	for _, s := range samples {
		sum += s * s
	}

	return math32.Sqrt(sum / float32(len(samples)))
}

// Peak returns the largest absolute sample value.
func Peak(samples []float32) float32 {
	var peak float32
	for _, s := range samples {
		peak = math32.Max(peak, math32.Abs(s))
	}
	return peak
}
