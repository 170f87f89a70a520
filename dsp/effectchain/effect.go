package effectchain

import (
	"fmt"
	"strings"
)

// EffectType identifies one of the per-stem effects the mapper knows.
type EffectType int

const (
	// EffectNone is the neutral effect: dry signal only.
	EffectNone EffectType = iota
	EffectWah
	EffectBassBoost
	EffectBright
	EffectWarm
	EffectTelephone
	EffectLofi
	EffectSubmerge
	EffectDelayPedal
	EffectChorus
	EffectReverb
	EffectEnvelopeFilter
	EffectFlange
	EffectPhaser
	EffectTiltEQ
	EffectBandEmphasis
	EffectSaturation
	EffectFormantFilter
	EffectPitchShift

	numEffects
)

// Shape describes how a control value in [0,1] becomes an effect intensity.
type Shape int

const (
	// ShapeUnipolar maps the value directly to intensity.
	ShapeUnipolar Shape = iota
	// ShapeBipolar centres the control at 0.5: both directions from the
	// centre increase intensity.
	ShapeBipolar
)

// String returns "unipolar" or "bipolar".
func (s Shape) String() string {
	if s == ShapeBipolar {
		return "bipolar"
	}

	return "unipolar"
}

type effectInfo struct {
	name   string
	shape  Shape
	posExp float64
	negExp float64
	wetMax float64
	dryMin float64
}

var effectTable = [numEffects]effectInfo{
	EffectNone:           {name: "none", shape: ShapeUnipolar, wetMax: 0, dryMin: 1},
	EffectWah:            {name: "wah", shape: ShapeUnipolar, wetMax: 1, dryMin: 0.1},
	EffectBassBoost:      {name: "bass-boost", shape: ShapeBipolar, posExp: 1, negExp: 1.6, wetMax: 1, dryMin: 0},
	EffectBright:         {name: "bright", shape: ShapeBipolar, posExp: 1, negExp: 1.6, wetMax: 1, dryMin: 0},
	EffectWarm:           {name: "warm", shape: ShapeBipolar, posExp: 1, negExp: 1.6, wetMax: 1, dryMin: 0},
	EffectTelephone:      {name: "telephone", shape: ShapeUnipolar, wetMax: 1, dryMin: 0.05},
	EffectLofi:           {name: "lofi", shape: ShapeBipolar, posExp: 2.2, negExp: 0.6, wetMax: 1, dryMin: 0},
	EffectSubmerge:       {name: "submerge", shape: ShapeUnipolar, wetMax: 1, dryMin: 0},
	EffectDelayPedal:     {name: "delay-pedal", shape: ShapeUnipolar, wetMax: 0.8, dryMin: 0.5},
	EffectChorus:         {name: "chorus", shape: ShapeUnipolar, wetMax: 0.7, dryMin: 0.5},
	EffectReverb:         {name: "reverb", shape: ShapeUnipolar, wetMax: 0.8, dryMin: 0.4},
	EffectEnvelopeFilter: {name: "envelope-filter", shape: ShapeUnipolar, wetMax: 1, dryMin: 0.15},
	EffectFlange:         {name: "flange", shape: ShapeUnipolar, wetMax: 0.7, dryMin: 0.5},
	EffectPhaser:         {name: "phaser", shape: ShapeUnipolar, wetMax: 0.7, dryMin: 0.5},
	EffectTiltEQ:         {name: "tilt-eq", shape: ShapeBipolar, posExp: 1, negExp: 1, wetMax: 1, dryMin: 0},
	EffectBandEmphasis:   {name: "band-emphasis", shape: ShapeBipolar, posExp: 1, negExp: 1.3, wetMax: 1, dryMin: 0},
	EffectSaturation:     {name: "saturation", shape: ShapeUnipolar, wetMax: 1, dryMin: 0.2},
	EffectFormantFilter:  {name: "formant-filter", shape: ShapeUnipolar, wetMax: 1, dryMin: 0.2},
	EffectPitchShift:     {name: "pitch-shift", shape: ShapeBipolar, posExp: 1, negExp: 1, wetMax: 1, dryMin: 0},
}

// Effects returns every known effect except EffectNone, in catalog order.
func Effects() []EffectType {
	out := make([]EffectType, 0, numEffects-1)
	for e := EffectWah; e < numEffects; e++ {
		out = append(out, e)
	}

	return out
}

// Valid reports whether e is a known effect, EffectNone included.
func (e EffectType) Valid() bool {
	return e >= EffectNone && e < numEffects
}

// String returns the catalog name of the effect, e.g. "bass-boost".
func (e EffectType) String() string {
	if !e.Valid() {
		return fmt.Sprintf("EffectType(%d)", int(e))
	}

	return effectTable[e].name
}

// Shape reports how the control value maps to intensity.
func (e EffectType) Shape() Shape {
	if !e.Valid() {
		return ShapeUnipolar
	}

	return effectTable[e].shape
}

// DefaultValue is the control value an effect starts at: 0.5 (no change)
// for bipolar effects and 0 for unipolar ones.
func (e EffectType) DefaultValue() float64 {
	if e.Shape() == ShapeBipolar {
		return 0.5
	}

	return 0
}

// WetMax is the wet gain reached at full intensity.
func (e EffectType) WetMax() float64 {
	if !e.Valid() {
		return 0
	}

	return effectTable[e].wetMax
}

// DryMin is the dry gain reached at full intensity.
func (e EffectType) DryMin() float64 {
	if !e.Valid() {
		return 1
	}

	return effectTable[e].dryMin
}

// MarshalText implements encoding.TextMarshaler.
func (e EffectType) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEffect, int(e))
	}

	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *EffectType) UnmarshalText(b []byte) error {
	v, err := ParseEffectType(string(b))
	if err != nil {
		return err
	}

	*e = v

	return nil
}

// ParseEffectType resolves a catalog name. Matching ignores case and
// surrounding whitespace; the empty string is EffectNone.
func ParseEffectType(name string) (EffectType, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return EffectNone, nil
	}

	for e := EffectNone; e < numEffects; e++ {
		if effectTable[e].name == key {
			return e, nil
		}
	}

	return EffectNone, fmt.Errorf("%w: %q", ErrUnknownEffect, name)
}
