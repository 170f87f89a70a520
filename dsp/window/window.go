package window

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
)

// String returns the lower-case window name.
func (t Type) String() string {
	switch t {
	case TypeRectangular:
		return "rectangular"
	case TypeHann:
		return "hann"
	default:
		return "unknown"
	}
}

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
}

// WithPeriodic configures periodic form (overlap-add and FFT framing)
// instead of the symmetric form.
//
// A periodic Hann window of length N sums to a constant N/(2H) when
// overlapped at hop H = N/k for integer k >= 2.
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// Generate returns window coefficients of the given length.
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	var cfg config

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	out := make([]float64, length)
	if length == 1 {
		out[0] = 1
		return out
	}

	denom := float64(length - 1)
	if cfg.periodic {
		denom = float64(length)
	}

	for i := range out {
		out[i] = evalWindow(t, float64(i)/denom)
	}

	return out
}

// Hann returns Hann window coefficients.
func Hann(size int, opts ...Option) ([]float64, error) {
	if err := validateLength(size); err != nil {
		return nil, err
	}

	return Generate(TypeHann, size, opts...), nil
}

// RemoveMean subtracts the arithmetic mean from buf in place and returns it.
func RemoveMean(buf []float64) float64 {
	if len(buf) == 0 {
		return 0
	}

	mean := vecmath.Sum(buf) / float64(len(buf))
	for i := range buf {
		buf[i] -= mean
	}

	return mean
}

// PrepareFrame removes the DC offset of frame and applies coeffs in place.
// This is the standard conditioning step before narrowband analysis.
func PrepareFrame(frame, coeffs []float64) error {
	if len(frame) != len(coeffs) {
		return errMismatchedLength
	}

	RemoveMean(frame)
	vecmath.MulBlockInPlace(frame, coeffs)

	return nil
}

func evalWindow(t Type, x float64) float64 {
	switch t {
	case TypeHann:
		return 0.5 - 0.5*math.Cos(2*math.Pi*x)
	default:
		return 1
	}
}
