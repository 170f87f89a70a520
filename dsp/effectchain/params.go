package effectchain

import (
	"github.com/cwbudde/algo-stemfx/dsp/effects/modulation"
	"github.com/cwbudde/algo-stemfx/dsp/filter/design"
)

// SweepParams modulates the base filter cutoff with a sine LFO.
//
// A bipolar sweep moves the cutoff by ±DepthHz around the filter frequency;
// a unipolar sweep moves it between the filter frequency and
// frequency+DepthHz.
type SweepParams struct {
	RateHz   float64
	DepthHz  float64
	Unipolar bool
}

// Active reports whether the sweep changes the cutoff at all.
func (s SweepParams) Active() bool {
	return s.RateHz > 0 && s.DepthHz > 0
}

// ReverbParams defines the generated reverb impulse.
type ReverbParams struct {
	Seconds float64
	Decay   float64
}

// Params is the full DSP parameter set one (effect, value) pair maps to.
// Params is comparable; equal inputs to Map yield == results.
type Params struct {
	Effect    EffectType
	Value     float64
	Intensity float64

	Base     design.Spec
	Sweep    SweepParams
	Emphasis design.Spec

	Phaser modulation.PhaserParams
	Delay  modulation.ModDelayParams
	// DelayEnabled routes the wet branch through the modulated delay; when
	// false the delay node passes samples through.
	DelayEnabled bool

	// Drive of the soft-clip curve; 0 bypasses the shaper.
	Drive float64

	Reverb     ReverbParams
	PitchRatio float64

	MakeupDB float64
	Wet      float64
	Dry      float64

	WetRoute  WetRoute
	BaseRoute BaseRoute
}

// Neutral returns the parameter set of an inactive stem: dry signal at unity
// gain, silent wet branch and every node at its pass-through setting.
func Neutral() Params {
	return Params{
		Effect:     EffectNone,
		Base:       design.Bypass(),
		Emphasis:   design.Bypass(),
		PitchRatio: 1,
		Wet:        0,
		Dry:        1,
		WetRoute:   WetDirect,
		BaseRoute:  BaseLinear,
	}
}

// WetGain returns the linear wet gain including makeup.
func (p Params) WetGain() float64 {
	return p.Wet * dbToLinear(p.MakeupDB)
}
