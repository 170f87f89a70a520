package chord

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-stemfx/dsp/core"
	"github.com/cwbudde/algo-stemfx/dsp/spectrum"
	"github.com/cwbudde/algo-vecmath"
)

const (
	minMIDI = 36 // C2
	maxMIDI = 83 // B5

	harmonicCeiling = 0.45
	tiltReferenceHz = 1760.0
	bassCutoffHz    = 200.0
	bassWeight      = 1.5
	compressionGain = 100.0

	// amplitudeFloor drops resonator outputs below -80 dBFS, so window
	// leakage never turns into a pitch-class or bass distribution.
	amplitudeFloor = 1e-4
)

var harmonicWeights = [...]float64{1.0, 0.5, 0.33, 0.25}

// Spectrum is the per-frame pitch-class summary. Both vectors are
// non-negative and either sum to 1 or are all zero.
type Spectrum struct {
	PitchClass [12]float64
	Bass       [12]float64
	// Clarity is the share of the three strongest compressed pitch classes
	// in the total, before sharpening. 0 for silence.
	Clarity float64
}

// Silent reports whether the pitch-class vector carries no energy.
func (s Spectrum) Silent() bool {
	for _, v := range s.PitchClass {
		if v > 0 {
			return false
		}
	}

	return true
}

type estimatorTerm struct {
	pitchClass int
	weight     float64
	bass       float64
}

// Estimator folds a Goertzel resonator bank over MIDI notes 36..83 and their
// first harmonics into pitch-class and bass energy vectors. It allocates at
// construction only and is not safe for concurrent use.
type Estimator struct {
	sampleRate float64
	bank       *spectrum.Bank
	terms      []estimatorTerm
	amps       []float64
}

// NewEstimator creates an estimator for frames at sampleRate.
func NewEstimator(sampleRate float64) (*Estimator, error) {
	if !core.ValidSampleRate(sampleRate) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}

	var (
		freqs []float64
		terms []estimatorTerm
	)

	ceiling := harmonicCeiling * sampleRate

	for m := minMIDI; m <= maxMIDI; m++ {
		f0 := midiToHz(m)
		pc := m % 12

		for h, w := range harmonicWeights {
			f := f0 * float64(h+1)
			if f >= ceiling {
				break
			}

			tilt := perceptualTilt(f)
			term := estimatorTerm{pitchClass: pc, weight: w * tilt}

			if h == 0 && f0 < bassCutoffHz {
				term.bass = bassWeight * tilt
			}

			freqs = append(freqs, f)
			terms = append(terms, term)
		}
	}

	if len(freqs) == 0 {
		return nil, fmt.Errorf("%w: %v Hz leaves no analysable notes", ErrInvalidSampleRate, sampleRate)
	}

	bank, err := spectrum.NewBank(freqs, sampleRate)
	if err != nil {
		return nil, err
	}

	return &Estimator{
		sampleRate: sampleRate,
		bank:       bank,
		terms:      terms,
		amps:       make([]float64, len(freqs)),
	}, nil
}

// SampleRate returns the analysis rate in Hz.
func (e *Estimator) SampleRate() float64 { return e.sampleRate }

// Bins returns the number of resonators evaluated per frame.
func (e *Estimator) Bins() int { return e.bank.Len() }

// Estimate computes the spectrum of a windowed, mean-free frame.
func (e *Estimator) Estimate(frame []float64) (Spectrum, error) {
	var s Spectrum

	if err := e.bank.Amplitudes(frame, e.amps); err != nil {
		return s, err
	}

	for i, a := range e.amps {
		if a < amplitudeFloor {
			continue
		}

		t := e.terms[i]
		s.PitchClass[t.pitchClass] += t.weight * a
		s.Bass[t.pitchClass] += t.bass * a
	}

	s.Clarity = sharpen(&s.PitchClass)
	sharpen(&s.Bass)

	return s, nil
}

// sharpen compresses v with log1p, removes the mean, smooths circularly and
// renormalizes the squared result to sum 1. It returns the clarity of the
// compressed vector.
func sharpen(v *[12]float64) float64 {
	var sum float64

	for i := range v {
		v[i] = math.Log1p(compressionGain * v[i])
		sum += v[i]
	}

	if sum <= 0 {
		*v = [12]float64{}
		return 0
	}

	clarity := topThree(v) / sum
	mean := sum / 12

	for i := range v {
		v[i] = max(0, v[i]-mean)
	}

	smoothed := *v
	for i := range v {
		smoothed[i] = 0.8*v[i] + 0.1*(v[(i+11)%12]+v[(i+1)%12])
	}

	var total float64

	for i, x := range smoothed {
		v[i] = x * x
		total += v[i]
	}

	if total <= 0 {
		*v = [12]float64{}
		return clarity
	}

	vecmath.ScaleBlockInPlace(v[:], 1/total)

	return clarity
}

func topThree(v *[12]float64) float64 {
	var a, b, c float64

	for _, x := range v {
		switch {
		case x > a:
			a, b, c = x, a, b
		case x > b:
			b, c = x, b
		case x > c:
			c = x
		}
	}

	return a + b + c
}

func midiToHz(m int) float64 {
	return 440 * math.Exp2(float64(m-69)/12)
}

func perceptualTilt(f float64) float64 {
	r := f / tiltReferenceHz
	return math.Pow(1+r*r, -0.25)
}
