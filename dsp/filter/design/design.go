package design

import (
	"math"

	"github.com/cwbudde/algo-stemfx/dsp/filter/biquad"
)

const (
	defaultQ = 1 / math.Sqrt2

	// maxFreqRatio keeps designed frequencies below Nyquist.
	maxFreqRatio = 0.49
	minFreqHz    = 1.0
)

// Kind identifies a biquad response type.
type Kind int

const (
	// KindBypass passes the signal unchanged.
	KindBypass Kind = iota
	KindLowpass
	KindHighpass
	KindBandpass
	KindAllpass
	KindPeak
	KindLowShelf
	KindHighShelf
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBypass:
		return "bypass"
	case KindLowpass:
		return "lowpass"
	case KindHighpass:
		return "highpass"
	case KindBandpass:
		return "bandpass"
	case KindAllpass:
		return "allpass"
	case KindPeak:
		return "peak"
	case KindLowShelf:
		return "lowshelf"
	case KindHighShelf:
		return "highshelf"
	default:
		return "unknown"
	}
}

// Spec describes one biquad. GainDB is used by peak and shelf kinds only.
type Spec struct {
	Kind   Kind
	Freq   float64
	Q      float64
	GainDB float64
}

// Bypass returns a pass-through spec.
func Bypass() Spec {
	return Spec{Kind: KindBypass}
}

// Design computes coefficients for s at sampleRate. Frequencies are clamped
// into (0, 0.49*sampleRate) so swept parameters never produce an invalid
// filter. An invalid sample rate yields pass-through coefficients.
func Design(s Spec, sampleRate float64) biquad.Coefficients {
	if s.Kind == KindBypass || !validRate(sampleRate) {
		return biquad.Identity()
	}

	freq := ClampFreq(s.Freq, sampleRate)

	switch s.Kind {
	case KindLowpass:
		return Lowpass(freq, s.Q, sampleRate)
	case KindHighpass:
		return Highpass(freq, s.Q, sampleRate)
	case KindBandpass:
		return Bandpass(freq, s.Q, sampleRate)
	case KindAllpass:
		return Allpass(freq, s.Q, sampleRate)
	case KindPeak:
		return Peak(freq, s.GainDB, s.Q, sampleRate)
	case KindLowShelf:
		return LowShelf(freq, s.GainDB, s.Q, sampleRate)
	case KindHighShelf:
		return HighShelf(freq, s.GainDB, s.Q, sampleRate)
	default:
		return biquad.Identity()
	}
}

// ClampFreq limits freq to [1 Hz, 0.49*sampleRate]. NaN maps to 1 Hz.
func ClampFreq(freq, sampleRate float64) float64 {
	upper := maxFreqRatio * sampleRate
	if freq > upper {
		return upper
	}

	if !(freq >= minFreqHz) {
		return minFreqHz
	}

	return freq
}

// Lowpass designs a lowpass biquad at freq (Hz) with quality factor q.
func Lowpass(freq, q, sampleRate float64) biquad.Coefficients {
	cw, _, alpha, ok := prewarp(freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	b1 := 1 - cw

	return normalizeBiquad(b1/2, b1, b1/2, 1+alpha, -2*cw, 1-alpha)
}

// Highpass designs a highpass biquad at freq (Hz) with quality factor q.
func Highpass(freq, q, sampleRate float64) biquad.Coefficients {
	cw, _, alpha, ok := prewarp(freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	b1 := -(1 + cw)

	return normalizeBiquad(-b1/2, b1, -b1/2, 1+alpha, -2*cw, 1-alpha)
}

// Bandpass designs a bandpass biquad with 0 dB gain at the centre frequency.
func Bandpass(freq, q, sampleRate float64) biquad.Coefficients {
	cw, _, alpha, ok := prewarp(freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	return normalizeBiquad(alpha, 0, -alpha, 1+alpha, -2*cw, 1-alpha)
}

// Allpass designs a second-order allpass biquad centred at freq (Hz).
func Allpass(freq, q, sampleRate float64) biquad.Coefficients {
	cw, _, alpha, ok := prewarp(freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	return normalizeBiquad(1-alpha, -2*cw, 1+alpha, 1+alpha, -2*cw, 1-alpha)
}

// Peak designs a peaking-EQ biquad with gain in dB.
func Peak(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	cw, _, alpha, ok := prewarp(freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	a := math.Pow(10, gainDB/40)

	return normalizeBiquad(1+alpha*a, -2*cw, 1-alpha*a, 1+alpha/a, -2*cw, 1-alpha/a)
}

// LowShelf designs a low-shelf biquad with gain in dB.
func LowShelf(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	cw, _, alpha, ok := prewarp(freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	a := math.Pow(10, gainDB/40)
	beta := 2 * math.Sqrt(a) * alpha

	b0 := a * ((a + 1) - (a-1)*cw + beta)
	b1 := 2 * a * ((a - 1) - (a+1)*cw)
	b2 := a * ((a + 1) - (a-1)*cw - beta)
	a0 := (a + 1) + (a-1)*cw + beta
	a1 := -2 * ((a - 1) + (a+1)*cw)
	a2 := (a + 1) + (a-1)*cw - beta

	return normalizeBiquad(b0, b1, b2, a0, a1, a2)
}

// HighShelf designs a high-shelf biquad with gain in dB.
func HighShelf(freq, gainDB, q, sampleRate float64) biquad.Coefficients {
	cw, _, alpha, ok := prewarp(freq, q, sampleRate)
	if !ok {
		return biquad.Coefficients{}
	}

	a := math.Pow(10, gainDB/40)
	beta := 2 * math.Sqrt(a) * alpha

	b0 := a * ((a + 1) + (a-1)*cw + beta)
	b1 := -2 * a * ((a - 1) + (a+1)*cw)
	b2 := a * ((a + 1) + (a-1)*cw - beta)
	a0 := (a + 1) - (a-1)*cw + beta
	a1 := 2 * ((a - 1) - (a+1)*cw)
	a2 := (a + 1) - (a-1)*cw - beta

	return normalizeBiquad(b0, b1, b2, a0, a1, a2)
}

// prewarp returns cos(w0), sin(w0) and alpha = sin(w0)/(2q).
func prewarp(freq, q, sampleRate float64) (cw, sw, alpha float64, ok bool) {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return 0, 0, 0, false
	}

	cw = math.Cos(w0)
	sw = math.Sin(w0)
	alpha = sw / (2 * normalizedQ(q))

	return cw, sw, alpha, true
}

func validRate(sampleRate float64) bool {
	return sampleRate > 0 && !math.IsNaN(sampleRate) && !math.IsInf(sampleRate, 0)
}

func normalizedW0(freq, sampleRate float64) (float64, bool) {
	if !validRate(sampleRate) {
		return 0, false
	}

	if freq <= 0 || freq >= sampleRate/2 || math.IsNaN(freq) || math.IsInf(freq, 0) {
		return 0, false
	}

	return 2 * math.Pi * freq / sampleRate, true
}

func normalizedQ(q float64) float64 {
	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return defaultQ
	}

	return q
}

func normalizeBiquad(b0, b1, b2, a0, a1, a2 float64) biquad.Coefficients {
	if a0 == 0 || math.IsNaN(a0) || math.IsInf(a0, 0) {
		return biquad.Coefficients{}
	}

	return biquad.Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}
