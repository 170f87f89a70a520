package spectrum

import (
	"errors"
	"fmt"
	"math"
)

var errEmptyBank = errors.New("goertzel: bank needs at least one frequency")

// Bank evaluates a fixed set of frequencies over whole frames with one
// second-order Goertzel resonator per frequency.
//
// Power for an N-sample frame equals |X(f)|^2 of an N-point DFT evaluated at
// the (not necessarily integer-bin) frequency f. Coefficients are computed
// once; Powers and Amplitudes do not allocate.
type Bank struct {
	coeffs []float64
}

// NewBank creates a bank for the given frequencies.
func NewBank(frequencies []float64, sampleRate float64) (*Bank, error) {
	if err := validateRate(sampleRate); err != nil {
		return nil, err
	}

	if len(frequencies) == 0 {
		return nil, errEmptyBank
	}

	b := &Bank{coeffs: make([]float64, len(frequencies))}

	for i, f := range frequencies {
		if err := validateFrequency(f, sampleRate); err != nil {
			return nil, fmt.Errorf("bank index %d: %w", i, err)
		}

		b.coeffs[i] = resonatorCoeff(f, sampleRate)
	}

	return b, nil
}

// Len returns the number of probed frequencies.
func (b *Bank) Len() int { return len(b.coeffs) }

// Powers writes |X(f)|^2 of frame for every bank frequency into dst.
// dst must have length Len().
func (b *Bank) Powers(frame, dst []float64) error {
	if len(dst) != len(b.coeffs) {
		return fmt.Errorf("goertzel: dst length %d, want %d", len(dst), len(b.coeffs))
	}

	for i, c := range b.coeffs {
		s0, s1 := run(c, 0, 0, frame)
		dst[i] = power(c, s0, s1)
	}

	return nil
}

// Amplitudes writes 2|X(f)|/N of frame for every bank frequency into dst.
// dst must have length Len(). An empty frame yields zeros.
func (b *Bank) Amplitudes(frame, dst []float64) error {
	if err := b.Powers(frame, dst); err != nil {
		return err
	}

	if len(frame) == 0 {
		clear(dst)
		return nil
	}

	scale := 2 / float64(len(frame))

	for i, p := range dst {
		if p <= 0 {
			dst[i] = 0
			continue
		}

		dst[i] = scale * math.Sqrt(p)
	}

	return nil
}

func run(coeff, s0, s1 float64, input []float64) (float64, float64) {
	for _, x := range input {
		s := x + coeff*s0 - s1
		s1 = s0
		s0 = s
	}

	return s0, s1
}

func power(coeff, s0, s1 float64) float64 {
	return s0*s0 + s1*s1 - coeff*s0*s1
}

func resonatorCoeff(frequency, sampleRate float64) float64 {
	return 2 * math.Cos(2*math.Pi*frequency/sampleRate)
}

func validateRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("goertzel: sample rate must be > 0: %v", sampleRate)
	}

	return nil
}

func validateFrequency(frequency, sampleRate float64) error {
	if frequency < 0 || frequency > sampleRate/2 || math.IsNaN(frequency) || math.IsInf(frequency, 0) {
		return fmt.Errorf("goertzel: frequency must be between 0 and sampleRate/2: %v", frequency)
	}

	return nil
}
