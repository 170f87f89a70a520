package interp

import "math"

// Mode selects an interpolation algorithm.
type Mode int

const (
	// Linear is 2-point linear interpolation.
	Linear Mode = iota
	// Hermite is 4-point cubic Hermite interpolation.
	Hermite
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case Linear:
		return "linear"
	case Hermite:
		return "hermite"
	default:
		return "unknown"
	}
}

// Linear2 interpolates between x0 and x1 at t in [0,1].
func Linear2(t, x0, x1 float64) float64 {
	return x0 + t*(x1-x0)
}

// Hermite4 computes cubic 4-point interpolation.
// It interpolates from x0 to x1 using neighbor points xm1 and x2.
func Hermite4(t, xm1, x0, x1, x2 float64) float64 {
	c0 := x0
	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)

	return ((c3*t+c2)*t+c1)*t + c0
}

// Wrap maps an integer index onto [0, size). Negative indices wrap from the
// end. size must be > 0.
func Wrap(i, size int) int {
	i %= size
	if i < 0 {
		i += size
	}

	return i
}

// RingLinear reads buf as a circular buffer at fractional position pos.
// pos may be negative or exceed len(buf); it is wrapped. An empty buffer
// reads as 0.
func RingLinear(buf []float64, pos float64) float64 {
	size := len(buf)
	if size == 0 {
		return 0
	}

	base := math.Floor(pos)
	t := pos - base
	i := Wrap(int(base), size)

	j := i + 1
	if j == size {
		j = 0
	}

	return Linear2(t, buf[i], buf[j])
}

// RingHermite reads buf as a circular buffer at fractional position pos using
// 4-point Hermite interpolation around floor(pos).
func RingHermite(buf []float64, pos float64) float64 {
	size := len(buf)
	if size == 0 {
		return 0
	}

	base := math.Floor(pos)
	t := pos - base
	i := int(base)

	return Hermite4(t,
		buf[Wrap(i-1, size)],
		buf[Wrap(i, size)],
		buf[Wrap(i+1, size)],
		buf[Wrap(i+2, size)],
	)
}

// Ring reads buf at pos with the given mode.
func Ring(mode Mode, buf []float64, pos float64) float64 {
	if mode == Hermite {
		return RingHermite(buf, pos)
	}

	return RingLinear(buf, pos)
}
