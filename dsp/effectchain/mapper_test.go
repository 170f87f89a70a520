package effectchain

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-stemfx/dsp/filter/design"
)

func TestMapWetDryWithinBounds(t *testing.T) {
	for _, e := range Effects() {
		if e == EffectPitchShift {
			continue
		}

		for i := 0; i <= 100; i++ {
			v := float64(i) / 100
			p := Map(e, v)

			if p.Wet < 0 || p.Wet > e.WetMax()+1e-12 {
				t.Fatalf("%s(%v): wet = %v, want [0, %v]", e, v, p.Wet, e.WetMax())
			}

			if p.Dry < e.DryMin()-1e-12 || p.Dry > 1 {
				t.Fatalf("%s(%v): dry = %v, want [%v, 1]", e, v, p.Dry, e.DryMin())
			}
		}
	}
}

func TestMapPitchShiftIsFullyWet(t *testing.T) {
	for _, v := range []float64{0, 0.25, 0.5, 1} {
		p := Map(EffectPitchShift, v)
		if p.Wet != 1 || p.Dry != 0 {
			t.Fatalf("pitch-shift(%v): wet=%v dry=%v, want 1/0", v, p.Wet, p.Dry)
		}

		if p.WetRoute != WetGranularShift {
			t.Fatalf("pitch-shift(%v): route = %v", v, p.WetRoute)
		}
	}

	tests := []struct {
		value float64
		ratio float64
	}{
		{0, 0.5},
		{0.5, 1},
		{0.75, math.Sqrt2},
		{1, 2},
	}

	for _, tt := range tests {
		if got := Map(EffectPitchShift, tt.value).PitchRatio; math.Abs(got-tt.ratio) > 1e-12 {
			t.Fatalf("pitch-shift(%v) ratio = %v, want %v", tt.value, got, tt.ratio)
		}
	}
}

func TestMapIsIdempotent(t *testing.T) {
	for _, e := range Effects() {
		for _, v := range []float64{0, 0.13, 0.5, 0.87, 1} {
			if Map(e, v) != Map(e, v) {
				t.Fatalf("%s(%v): repeated Map differs", e, v)
			}
		}
	}
}

func TestMapNaNUsesDefault(t *testing.T) {
	for _, e := range Effects() {
		if got, want := Map(e, math.NaN()), Map(e, e.DefaultValue()); got != want {
			t.Fatalf("%s(NaN) = %+v, want %+v", e, got, want)
		}
	}
}

func TestMapClampsValue(t *testing.T) {
	for _, e := range Effects() {
		if Map(e, 3) != Map(e, 1) {
			t.Fatalf("%s: value above 1 not clamped", e)
		}

		if Map(e, -2) != Map(e, 0) {
			t.Fatalf("%s: value below 0 not clamped", e)
		}
	}
}

func TestMapUnknownEffectIsNeutral(t *testing.T) {
	for _, e := range []EffectType{EffectNone, EffectType(-1), numEffects, EffectType(99)} {
		if got := Map(e, 0.7); got != Neutral() {
			t.Fatalf("Map(%v) = %+v, want neutral", e, got)
		}
	}
}

func TestMapDefaultValueIsInaudible(t *testing.T) {
	for _, e := range Effects() {
		if e == EffectPitchShift {
			if got := Map(e, e.DefaultValue()).PitchRatio; got != 1 {
				t.Fatalf("pitch-shift default ratio = %v, want 1", got)
			}

			continue
		}

		p := Map(e, e.DefaultValue())
		if p.Wet != 0 || p.Dry != 1 {
			t.Fatalf("%s default: wet=%v dry=%v, want 0/1", e, p.Wet, p.Dry)
		}
	}
}

func TestMapUnusedFieldsStayNeutral(t *testing.T) {
	n := Neutral()

	p := Map(EffectReverb, 0.5)
	if p.Base != design.Bypass() || p.Emphasis != design.Bypass() {
		t.Fatalf("reverb filters = %+v / %+v, want bypass", p.Base, p.Emphasis)
	}

	if p.DelayEnabled || p.Delay != n.Delay || p.Drive != 0 || p.PitchRatio != 1 {
		t.Fatalf("reverb leaked parameters: %+v", p)
	}

	p = Map(EffectDelayPedal, 0.5)
	if p.Reverb != n.Reverb || p.WetRoute != WetDirect || p.BaseRoute != BaseLinear {
		t.Fatalf("delay-pedal leaked parameters: %+v", p)
	}
}

func TestMapWahSweep(t *testing.T) {
	lo := Map(EffectWah, 0)
	hi := Map(EffectWah, 1)
	mid := Map(EffectWah, 0.5)

	if lo.Base.Kind != design.KindBandpass || math.Abs(lo.Base.Freq-350) > 1e-9 || lo.Base.Q != 2 {
		t.Fatalf("wah(0) base = %+v", lo.Base)
	}

	if math.Abs(hi.Base.Freq-2200) > 1e-9 || hi.Base.Q != 6 {
		t.Fatalf("wah(1) base = %+v", hi.Base)
	}

	if hi.MakeupDB != 6 || mid.MakeupDB != 0 {
		t.Fatalf("wah makeup = %v / %v, want 6 / 0", hi.MakeupDB, mid.MakeupDB)
	}

	if math.Abs(hi.Dry-0.1) > 1e-12 {
		t.Fatalf("wah(1) dry = %v, want 0.1", hi.Dry)
	}
}

func TestMapBipolarCutLobeIsSteeper(t *testing.T) {
	boost := Map(EffectBassBoost, 0.75)
	cut := Map(EffectBassBoost, 0.25)

	if math.Abs(boost.Base.GainDB-6) > 1e-9 {
		t.Fatalf("boost gain = %v, want 6", boost.Base.GainDB)
	}

	want := -12 * math.Pow(0.5, 1.6)
	if math.Abs(cut.Base.GainDB-want) > 1e-9 {
		t.Fatalf("cut gain = %v, want %v", cut.Base.GainDB, want)
	}

	if cut.Intensity >= boost.Intensity {
		t.Fatalf("cut intensity %v should be below boost %v", cut.Intensity, boost.Intensity)
	}
}

func TestMapLofiDarkensFasterThanItBrightens(t *testing.T) {
	bright := Map(EffectLofi, 0.75)
	dark := Map(EffectLofi, 0.25)

	if bright.Base.Freq <= 6000 || dark.Base.Freq >= 6000 {
		t.Fatalf("cutoffs = %v (bright), %v (dark), want either side of 6 kHz",
			bright.Base.Freq, dark.Base.Freq)
	}

	if dark.Intensity <= bright.Intensity {
		t.Fatalf("dark intensity %v should exceed bright %v", dark.Intensity, bright.Intensity)
	}

	// Compare how far each lobe has travelled towards its end point, in octaves.
	brightShare := math.Log2(bright.Base.Freq/6000) / math.Log2(16000.0/6000)
	darkShare := math.Log2(6000/dark.Base.Freq) / math.Log2(6000.0/800)

	if darkShare <= 2*brightShare {
		t.Fatalf("dark lobe at %.2f of its range, bright at %.2f; want darkening much steeper",
			darkShare, brightShare)
	}
}

func TestMapReverbTailGrowsWithIntensity(t *testing.T) {
	small := Map(EffectReverb, 0.2).Reverb
	large := Map(EffectReverb, 0.9).Reverb

	if large.Seconds <= small.Seconds {
		t.Fatalf("impulse length %v at 0.9, want above %v at 0.2", large.Seconds, small.Seconds)
	}

	// A lower envelope exponent keeps the tail louder for longer.
	if large.Decay >= small.Decay {
		t.Fatalf("decay exponent %v at 0.9, want below %v at 0.2", large.Decay, small.Decay)
	}
}

func TestMapTiltOpposesShelves(t *testing.T) {
	p := Map(EffectTiltEQ, 1)
	if p.Base.Kind != design.KindLowShelf || p.Base.GainDB != -9 {
		t.Fatalf("tilt low shelf = %+v", p.Base)
	}

	if p.Emphasis.Kind != design.KindHighShelf || p.Emphasis.GainDB != 9 {
		t.Fatalf("tilt high shelf = %+v", p.Emphasis)
	}
}

func TestMapModulationEffects(t *testing.T) {
	phaser := Map(EffectPhaser, 1)
	if phaser.BaseRoute != BasePhaserCascade || phaser.Phaser.DepthHz != 1200 || math.Abs(phaser.Phaser.Feedback-0.7) > 1e-12 {
		t.Fatalf("phaser(1) = %+v", phaser)
	}

	chorus := Map(EffectChorus, 0)
	if !chorus.DelayEnabled || chorus.Delay.DelaySeconds != 0.02 || chorus.Delay.Feedback != 0 {
		t.Fatalf("chorus(0) delay = %+v", chorus.Delay)
	}

	sub := Map(EffectSubmerge, 1)
	if !sub.Sweep.Active() || sub.Sweep.Unipolar || math.Abs(sub.Sweep.DepthHz-0.15*250) > 1e-9 {
		t.Fatalf("submerge(1) sweep = %+v", sub.Sweep)
	}

	env := Map(EffectEnvelopeFilter, 1)
	if !env.Sweep.Unipolar || env.Sweep.DepthHz != 2500 || env.Sweep.RateHz != 5 {
		t.Fatalf("envelope-filter(1) sweep = %+v", env.Sweep)
	}
}

func TestParseEffectType(t *testing.T) {
	for _, e := range Effects() {
		got, err := ParseEffectType(" " + e.String() + " ")
		if err != nil {
			t.Fatalf("ParseEffectType(%q) error = %v", e, err)
		}

		if got != e {
			t.Fatalf("ParseEffectType(%q) = %v", e, got)
		}
	}

	if got, err := ParseEffectType("BASS-BOOST"); err != nil || got != EffectBassBoost {
		t.Fatalf("ParseEffectType(upper) = %v, %v", got, err)
	}

	if got, err := ParseEffectType(""); err != nil || got != EffectNone {
		t.Fatalf("ParseEffectType(\"\") = %v, %v", got, err)
	}

	if _, err := ParseEffectType("fuzz"); err == nil {
		t.Fatal("expected error for unknown effect")
	}
}

func TestEffectTypeText(t *testing.T) {
	b, err := EffectPitchShift.MarshalText()
	if err != nil {
		t.Fatalf("MarshalText() error = %v", err)
	}

	var e EffectType
	if err := e.UnmarshalText(b); err != nil {
		t.Fatalf("UnmarshalText() error = %v", err)
	}

	if e != EffectPitchShift {
		t.Fatalf("round trip = %v", e)
	}

	if _, err := EffectType(42).MarshalText(); err == nil {
		t.Fatal("expected error for invalid effect")
	}
}
