package core

import "math"

// Clamp limits value to the inclusive range [lo, hi]. NaN maps to lo.
func Clamp(value, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}

	if math.IsNaN(value) || value < lo {
		return lo
	}

	if value > hi {
		return hi
	}

	return value
}

// Finite reports whether x is neither NaN nor infinite.
func Finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// ValidSampleRate reports whether sampleRate is positive and finite.
func ValidSampleRate(sampleRate float64) bool {
	return sampleRate > 0 && Finite(sampleRate)
}

// Lerp interpolates linearly from a to b; t is not clamped.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// ExpLerp interpolates geometrically from a to b, so equal steps of t give
// equal frequency ratios. a and b must be positive.
func ExpLerp(a, b, t float64) float64 {
	return a * math.Pow(b/a, t)
}

// DBToLinear converts dB to linear amplitude (20*log10 convention).
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}
