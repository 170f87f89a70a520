package shaper

import (
	"fmt"
	"math"
)

const (
	// DefaultCurveSize is the number of curve points used when none is given.
	DefaultCurveSize = 2048

	minCurveSize = 2
	// linearDriveThreshold is the drive below which a curve is treated as
	// linear; tanh(d*x)/tanh(d) is within 1e-8 of x there.
	linearDriveThreshold = 1e-4
)

// SoftClipCurve returns a size-point curve y = tanh(drive*x)/tanh(drive) over
// x in [-1, 1]. The curve is odd-symmetric, monotonic and maps ±1 to ±1.
// Drive values near zero yield the identity curve.
func SoftClipCurve(drive float64, size int) ([]float64, error) {
	if size < minCurveSize {
		return nil, fmt.Errorf("shaper curve size must be >= %d: %d", minCurveSize, size)
	}

	if drive < 0 || math.IsNaN(drive) || math.IsInf(drive, 0) {
		return nil, fmt.Errorf("shaper drive must be >= 0 and finite: %f", drive)
	}

	curve := make([]float64, size)
	last := float64(size - 1)

	if drive < linearDriveThreshold {
		for i := range curve {
			curve[i] = 2*float64(i)/last - 1
		}

		return curve, nil
	}

	norm := 1 / math.Tanh(drive)
	for i := range curve {
		x := 2*float64(i)/last - 1
		curve[i] = math.Tanh(drive*x) * norm
	}

	return curve, nil
}
