package effectchain

import (
	"math"

	"github.com/cwbudde/algo-stemfx/dsp/core"
	"github.com/cwbudde/algo-stemfx/dsp/effects/modulation"
	"github.com/cwbudde/algo-stemfx/dsp/filter/design"
)

const (
	butterworthQ = math.Sqrt2 / 2

	shelfRangeDB = 12.0
	tiltRangeDB  = 9.0
	wahMakeupDB  = 6.0
	phaserStages = 6
)

// Map converts a control value in [0,1] for effect into the full DSP
// parameter set. It is pure: equal inputs always yield equal outputs.
//
// NaN selects the effect's default value and other values are clamped into
// [0,1]. Unknown effects map to Neutral(). Every field the effect does not
// use keeps its neutral value.
func Map(effect EffectType, value float64) Params {
	if !effect.Valid() || effect == EffectNone {
		return Neutral()
	}

	if math.IsNaN(value) {
		value = effect.DefaultValue()
	}

	value = core.Clamp(value, 0, 1)

	p := Neutral()
	p.Effect = effect
	p.Value = value

	shaped, dir := shapeValue(effect, value)
	p.Intensity = math.Abs(shaped)

	switch effect {
	case EffectWah:
		p.Base = design.Spec{
			Kind: design.KindBandpass,
			Freq: core.ExpLerp(350, 2200, value),
			Q:    core.Lerp(2, 6, value),
		}
		p.MakeupDB = wahMakeupDB * math.Abs(2*value-1)
	case EffectBassBoost:
		p.Base = shelf(design.KindLowShelf, 120, dir*shaped*shelfRangeDB)
	case EffectBright:
		p.Base = shelf(design.KindHighShelf, 4000, dir*shaped*shelfRangeDB)
	case EffectWarm:
		p.Base = shelf(design.KindLowShelf, 250, dir*shaped*shelfRangeDB)
		p.Emphasis = shelf(design.KindHighShelf, 6000, -dir*shaped*shelfRangeDB/2)
	case EffectTelephone:
		p.Base = design.Spec{
			Kind: design.KindBandpass,
			Freq: core.Lerp(1200, 1800, value),
			Q:    core.Lerp(0.7, 3, value),
		}
		p.Emphasis = design.Spec{Kind: design.KindHighpass, Freq: 300, Q: butterworthQ}
	case EffectLofi:
		cutoff := core.ExpLerp(6000, 16000, shaped)
		if dir < 0 {
			cutoff = core.ExpLerp(6000, 800, shaped)
		}

		p.Base = design.Spec{Kind: design.KindLowpass, Freq: cutoff, Q: butterworthQ}
		p.Drive = 0.3 * p.Intensity
	case EffectSubmerge:
		cutoff := core.ExpLerp(8000, 250, value)
		p.Base = design.Spec{Kind: design.KindLowpass, Freq: cutoff, Q: core.Lerp(0.7, 4, value)}
		p.Sweep = SweepParams{RateHz: 0.3, DepthHz: 0.15 * cutoff}
	case EffectDelayPedal:
		p.Delay = modulation.ModDelayParams{
			DelaySeconds: core.Lerp(0.120, 0.480, value),
			Feedback:     core.Lerp(0.2, 0.6, value),
		}
		p.DelayEnabled = true
	case EffectChorus:
		p.Delay = modulation.ModDelayParams{
			DelaySeconds: 0.020,
			DepthSeconds: core.Lerp(0.001, 0.004, value),
			RateHz:       core.Lerp(0.8, 1.6, value),
		}
		p.DelayEnabled = true
	case EffectReverb:
		p.Reverb = ReverbParams{
			Seconds: core.Lerp(0.6, 3.5, value),
			Decay:   core.Lerp(5, 2, value),
		}
		p.WetRoute = WetConvolution
	case EffectEnvelopeFilter:
		p.Base = design.Spec{Kind: design.KindBandpass, Freq: 400, Q: core.Lerp(3, 8, value)}
		p.Sweep = SweepParams{RateHz: core.Lerp(2, 5, value), DepthHz: 2500 * value, Unipolar: true}
	case EffectFlange:
		p.Delay = modulation.ModDelayParams{
			DelaySeconds: core.Lerp(0.001, 0.003, value),
			DepthSeconds: core.Lerp(0.0005, 0.0025, value),
			RateHz:       0.25,
			Feedback:     core.Lerp(0.3, 0.75, value),
		}
		p.DelayEnabled = true
	case EffectPhaser:
		p.Phaser = modulation.PhaserParams{
			CenterHz: 400,
			DepthHz:  core.Lerp(300, 1200, value),
			RateHz:   core.Lerp(0.3, 1.2, value),
			Feedback: core.Lerp(0.2, 0.7, value),
		}
		p.BaseRoute = BasePhaserCascade
	case EffectTiltEQ:
		p.Base = shelf(design.KindLowShelf, 300, -dir*shaped*tiltRangeDB)
		p.Emphasis = shelf(design.KindHighShelf, 3000, dir*shaped*tiltRangeDB)
	case EffectBandEmphasis:
		p.Base = design.Spec{Kind: design.KindPeak, Freq: 1000, Q: 1.2, GainDB: dir * shaped * shelfRangeDB}
	case EffectSaturation:
		p.Drive = core.Lerp(1, 50, value)
	case EffectFormantFilter:
		p.Base = design.Spec{Kind: design.KindBandpass, Freq: core.ExpLerp(500, 2400, value), Q: 5}
	case EffectPitchShift:
		p.PitchRatio = math.Exp2(dir * shaped)
		p.WetRoute = WetGranularShift
		p.Wet, p.Dry = 1, 0

		return p
	}

	p.Wet = p.Intensity * effect.WetMax()
	p.Dry = 1 - p.Intensity*(1-effect.DryMin())

	return p
}

// shapeValue returns the lobe magnitude in [0,1] and its direction. Unipolar
// effects always report direction +1.
func shapeValue(effect EffectType, value float64) (shaped, dir float64) {
	info := effectTable[effect]
	if info.shape != ShapeBipolar {
		return value, 1
	}

	d := value - 0.5
	if d >= 0 {
		return math.Pow(2*d, info.posExp), 1
	}

	return math.Pow(-2*d, info.negExp), -1
}

func shelf(kind design.Kind, freq, gainDB float64) design.Spec {
	return design.Spec{Kind: kind, Freq: freq, Q: butterworthQ, GainDB: gainDB}
}

func dbToLinear(db float64) float64 {
	if db == 0 {
		return 1
	}

	return core.DBToLinear(db)
}
