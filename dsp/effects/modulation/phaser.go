package modulation

import (
	"fmt"
	"math"
)

const (
	defaultPhaserRateHz      = 0.3
	defaultPhaserCenterHz    = 400.0
	defaultPhaserDepthHz     = 300.0
	defaultPhaserStages      = 6
	defaultPhaserFeedback    = 0.2
	maxPhaserStages          = 12
	maxPhaserFeedback        = 0.95
	phaserNyquistSafetyRatio = 0.49
)

// PhaserParams is the runtime parameter set of a Phaser.
type PhaserParams struct {
	CenterHz float64
	DepthHz  float64
	RateHz   float64
	Feedback float64
}

// PhaserOption mutates phaser construction parameters.
type PhaserOption func(*phaserConfig) error

type phaserConfig struct {
	params PhaserParams
	stages int
}

// WithPhaserStages sets the number of allpass stages in [1, 12].
func WithPhaserStages(stages int) PhaserOption {
	return func(cfg *phaserConfig) error {
		if stages < 1 || stages > maxPhaserStages {
			return fmt.Errorf("phaser stages must be in [1, %d]: %d", maxPhaserStages, stages)
		}

		cfg.stages = stages

		return nil
	}
}

// WithPhaserParams sets the initial sweep and feedback.
func WithPhaserParams(p PhaserParams) PhaserOption {
	return func(cfg *phaserConfig) error {
		if p.CenterHz <= 0 || math.IsNaN(p.CenterHz) || math.IsInf(p.CenterHz, 0) {
			return fmt.Errorf("phaser centre frequency must be > 0 and finite: %f", p.CenterHz)
		}

		if p.DepthHz < 0 || math.IsNaN(p.DepthHz) || math.IsInf(p.DepthHz, 0) {
			return fmt.Errorf("phaser depth must be >= 0 and finite: %f", p.DepthHz)
		}

		if p.RateHz < 0 || math.IsNaN(p.RateHz) || math.IsInf(p.RateHz, 0) {
			return fmt.Errorf("phaser rate must be >= 0 and finite: %f", p.RateHz)
		}

		if math.Abs(p.Feedback) > maxPhaserFeedback || math.IsNaN(p.Feedback) {
			return fmt.Errorf("phaser feedback must be in [-%.2f, %.2f]: %f", maxPhaserFeedback, maxPhaserFeedback, p.Feedback)
		}

		cfg.params = p

		return nil
	}
}

type phaserAllpassStage struct {
	x1 float64
	y1 float64
}

func (s *phaserAllpassStage) process(x, a float64) float64 {
	y := a*x + s.x1 - a*s.y1
	s.x1 = x
	s.y1 = y

	return y
}

// Phaser is a cascade of first-order allpass stages whose break frequency
// is swept by a sine LFO. The output of the last stage is fed back into the
// first through a single feedback gain. Output is the wet signal only.
type Phaser struct {
	sampleRate float64
	params     PhaserParams

	lfo      *LFO
	last     float64
	stages   []phaserAllpassStage
	maxFreqH float64
}

// NewPhaser creates a phaser with practical defaults and optional overrides.
func NewPhaser(sampleRate float64, opts ...PhaserOption) (*Phaser, error) {
	if !validRate(sampleRate) {
		return nil, fmt.Errorf("phaser sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := phaserConfig{
		params: PhaserParams{
			CenterHz: defaultPhaserCenterHz,
			DepthHz:  defaultPhaserDepthHz,
			RateHz:   defaultPhaserRateHz,
			Feedback: defaultPhaserFeedback,
		},
		stages: defaultPhaserStages,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	lfo, err := NewLFO(sampleRate, cfg.params.RateHz)
	if err != nil {
		return nil, err
	}

	p := &Phaser{
		sampleRate: sampleRate,
		lfo:        lfo,
		stages:     make([]phaserAllpassStage, cfg.stages),
		maxFreqH:   phaserNyquistSafetyRatio * sampleRate,
	}
	p.SetParams(cfg.params)

	return p, nil
}

// SetParams updates the sweep and feedback without touching filter state.
// Out-of-range values are clamped.
func (p *Phaser) SetParams(params PhaserParams) {
	params.CenterHz = clamp(params.CenterHz, 1, p.maxFreqH)
	params.DepthHz = clamp(params.DepthHz, 0, p.maxFreqH)
	params.Feedback = clamp(params.Feedback, -maxPhaserFeedback, maxPhaserFeedback)
	p.lfo.SetRate(params.RateHz)
	params.RateHz = p.lfo.Rate()
	p.params = params
}

// Params returns the current parameters.
func (p *Phaser) Params() PhaserParams { return p.params }

// Stages returns the number of allpass stages.
func (p *Phaser) Stages() int { return len(p.stages) }

// SampleRate returns the sample rate in Hz.
func (p *Phaser) SampleRate() float64 { return p.sampleRate }

// Reset clears allpass, feedback and LFO state.
func (p *Phaser) Reset() {
	for i := range p.stages {
		p.stages[i] = phaserAllpassStage{}
	}

	p.last = 0
	p.lfo.Reset()
}

// ProcessSample processes one sample.
func (p *Phaser) ProcessSample(sample float64) float64 {
	freq := p.params.CenterHz + p.params.DepthHz*p.lfo.Next()
	coef := phaserAllpassCoefficient(freq, p.sampleRate)

	y := sample + p.last*p.params.Feedback
	for i := range p.stages {
		y = p.stages[i].process(y, coef)
	}

	p.last = y

	return y
}

// ProcessBlock processes buf in place.
func (p *Phaser) ProcessBlock(buf []float64) {
	for i, x := range buf {
		buf[i] = p.ProcessSample(x)
	}

	if math.Abs(p.last) < 1e-30 {
		p.last = 0
	}
}

func phaserAllpassCoefficient(freqHz, sampleRate float64) float64 {
	maxFreq := phaserNyquistSafetyRatio * sampleRate
	if freqHz < 1 {
		freqHz = 1
	} else if freqHz > maxFreq {
		freqHz = maxFreq
	}

	g := math.Tan(math.Pi * freqHz / sampleRate)
	if math.IsInf(g, 0) || math.IsNaN(g) {
		return 0
	}

	return (1 - g) / (1 + g)
}
