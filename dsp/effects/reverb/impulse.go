package reverb

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-approx"
)

const (
	minImpulseSeconds = 0.01
	maxImpulseSeconds = 10.0

	// expFloor is the exponent below which the envelope is treated as zero.
	expFloor = -80
)

var errImpulseChannels = errors.New("reverb: impulse channels must be non-empty and equal length")

// Impulse is a stereo impulse response.
type Impulse struct {
	Left  []float64
	Right []float64
}

// Len returns the length in samples.
func (i Impulse) Len() int { return len(i.Left) }

func (i Impulse) validate() error {
	if len(i.Left) == 0 || len(i.Left) != len(i.Right) {
		return errImpulseChannels
	}

	return nil
}

// NoiseBurst synthesizes a stereo impulse of the given duration. Each channel
// is uniform white noise shaped by the envelope (1 - t/T)^decay, so larger
// decay values die away faster. Left and right use independent noise
// streams derived from seed; equal arguments yield identical impulses.
func NoiseBurst(sampleRate, seconds, decay float64, seed int64) (Impulse, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return Impulse{}, fmt.Errorf("reverb sample rate must be > 0 and finite: %f", sampleRate)
	}

	if !(seconds >= minImpulseSeconds && seconds <= maxImpulseSeconds) {
		return Impulse{}, fmt.Errorf("reverb impulse duration must be in [%g, %g] s: %f",
			minImpulseSeconds, maxImpulseSeconds, seconds)
	}

	if decay < 0 || math.IsNaN(decay) || math.IsInf(decay, 0) {
		return Impulse{}, fmt.Errorf("reverb decay must be >= 0 and finite: %f", decay)
	}

	n := int(math.Round(seconds * sampleRate))
	env := envelope(n, decay)

	imp := Impulse{Left: make([]float64, n), Right: make([]float64, n)}

	left := rand.New(rand.NewSource(seed))
	right := rand.New(rand.NewSource(seed ^ 0x5deece66d))

	for i, g := range env {
		imp.Left[i] = (left.Float64()*2 - 1) * g
		imp.Right[i] = (right.Float64()*2 - 1) * g
	}

	return imp, nil
}

func envelope(n int, decay float64) []float64 {
	env := make([]float64, n)

	for i := range env {
		// (1-t)^decay = exp(decay*ln(1-t)); t < 1 for every sample.
		arg := decay * math.Log1p(-float64(i)/float64(n))
		if arg < expFloor {
			continue
		}

		env[i] = min(1, max(0, float64(approx.FastExp(float32(arg)))))
	}

	return env
}
