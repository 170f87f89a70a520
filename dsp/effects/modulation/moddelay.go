package modulation

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-stemfx/dsp/delay"
)

const maxModDelayFeedback = 0.95

// ModDelayParams is the runtime parameter set of a ModDelay. The delay time
// swings around DelaySeconds by ±DepthSeconds at RateHz.
type ModDelayParams struct {
	DelaySeconds float64
	DepthSeconds float64
	RateHz       float64
	Feedback     float64
}

// ModDelay is a fractional delay line with LFO-modulated delay time and a
// feedback path. Output is the delayed signal only.
type ModDelay struct {
	sampleRate float64
	maxSeconds float64
	params     ModDelayParams

	line *delay.Line
	lfo  *LFO
}

// NewModDelay creates a modulated delay holding up to maxSeconds.
func NewModDelay(sampleRate, maxSeconds float64) (*ModDelay, error) {
	if !validRate(sampleRate) {
		return nil, fmt.Errorf("mod delay sample rate must be > 0 and finite: %f", sampleRate)
	}

	line, err := delay.ForDuration(maxSeconds, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("mod delay: %w", err)
	}

	lfo, err := NewLFO(sampleRate, 0)
	if err != nil {
		return nil, err
	}

	return &ModDelay{
		sampleRate: sampleRate,
		maxSeconds: maxSeconds,
		line:       line,
		lfo:        lfo,
	}, nil
}

// SetParams updates the parameters. The delay and depth are clamped so the
// modulated delay stays inside the line; feedback is clamped to ±0.95.
func (m *ModDelay) SetParams(p ModDelayParams) {
	p.DelaySeconds = clamp(p.DelaySeconds, 0, m.maxSeconds)
	p.DepthSeconds = clamp(p.DepthSeconds, 0, math.Min(p.DelaySeconds, m.maxSeconds-p.DelaySeconds))
	p.Feedback = clamp(p.Feedback, -maxModDelayFeedback, maxModDelayFeedback)
	m.lfo.SetRate(p.RateHz)
	p.RateHz = m.lfo.Rate()
	m.params = p
}

// Params returns the current parameters.
func (m *ModDelay) Params() ModDelayParams { return m.params }

// MaxSeconds returns the longest supported delay.
func (m *ModDelay) MaxSeconds() float64 { return m.maxSeconds }

// ProcessSample processes one sample.
func (m *ModDelay) ProcessSample(x float64) float64 {
	seconds := m.params.DelaySeconds
	if m.params.DepthSeconds > 0 {
		seconds += m.params.DepthSeconds * m.lfo.Next()
	}

	return m.line.Process(x, seconds*m.sampleRate, m.params.Feedback)
}

// ProcessBlock processes buf in place.
func (m *ModDelay) ProcessBlock(buf []float64) {
	for i, x := range buf {
		buf[i] = m.ProcessSample(x)
	}
}

// Reset clears the line and the LFO phase.
func (m *ModDelay) Reset() {
	m.line.Reset()
	m.lfo.Reset()
}
