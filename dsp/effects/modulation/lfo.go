package modulation

import (
	"fmt"
	"math"
)

const twoPi = 2 * math.Pi

// LFO is a sine low-frequency oscillator.
type LFO struct {
	sampleRate float64
	rateHz     float64
	phase      float64
	inc        float64
}

// NewLFO creates an oscillator at rateHz. A zero rate holds the output at 0.
func NewLFO(sampleRate, rateHz float64) (*LFO, error) {
	if !validRate(sampleRate) {
		return nil, fmt.Errorf("lfo sample rate must be > 0 and finite: %f", sampleRate)
	}

	if rateHz < 0 || math.IsNaN(rateHz) || math.IsInf(rateHz, 0) {
		return nil, fmt.Errorf("lfo rate must be >= 0 and finite: %f", rateHz)
	}

	l := &LFO{sampleRate: sampleRate}
	l.SetRate(rateHz)

	return l, nil
}

// SetRate changes the rate without resetting the phase. Invalid or
// negative rates clamp to 0; rates above Nyquist clamp to Nyquist.
func (l *LFO) SetRate(rateHz float64) {
	if !(rateHz > 0) {
		rateHz = 0
	}

	rateHz = min(rateHz, l.sampleRate/2)
	l.rateHz = rateHz
	l.inc = twoPi * rateHz / l.sampleRate
}

// Next returns the current value in [-1, 1] and advances one sample.
func (l *LFO) Next() float64 {
	v := math.Sin(l.phase)

	l.phase += l.inc
	if l.phase >= twoPi {
		l.phase -= twoPi
	}

	return v
}

// Advance moves the phase forward by n samples without producing output.
func (l *LFO) Advance(n int) {
	l.phase = math.Mod(l.phase+l.inc*float64(n), twoPi)
}

// Value returns the current value without advancing.
func (l *LFO) Value() float64 {
	return math.Sin(l.phase)
}

// Rate returns the rate in Hz.
func (l *LFO) Rate() float64 { return l.rateHz }

// Reset returns the phase to zero.
func (l *LFO) Reset() {
	l.phase = 0
}

func validRate(sampleRate float64) bool {
	return sampleRate > 0 && !math.IsNaN(sampleRate) && !math.IsInf(sampleRate, 0)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}

	return max(lo, min(hi, v))
}
