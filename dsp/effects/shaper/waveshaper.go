package shaper

// Waveshaper maps samples through a curve with linear interpolation.
// Inputs outside [-1, 1] are clamped to the curve ends. A nil curve passes
// samples through unchanged.
type Waveshaper struct {
	curve []float64
}

// NewWaveshaper creates a shaper reading curve. The curve must not be
// modified afterwards.
func NewWaveshaper(curve []float64) *Waveshaper {
	return &Waveshaper{curve: curve}
}

// SetCurve swaps the curve. It does not copy.
func (w *Waveshaper) SetCurve(curve []float64) {
	w.curve = curve
}

// Curve returns the active curve.
func (w *Waveshaper) Curve() []float64 { return w.curve }

// ProcessSample shapes one sample.
func (w *Waveshaper) ProcessSample(x float64) float64 {
	n := len(w.curve)
	if n < 2 {
		return x
	}

	if !(x > -1) {
		return w.curve[0]
	}

	if x >= 1 {
		return w.curve[n-1]
	}

	pos := (x + 1) * 0.5 * float64(n-1)
	i := int(pos)
	t := pos - float64(i)

	if i >= n-1 {
		return w.curve[n-1]
	}

	return w.curve[i] + t*(w.curve[i+1]-w.curve[i])
}

// ProcessBlock shapes buf in place.
func (w *Waveshaper) ProcessBlock(buf []float64) {
	if len(w.curve) < 2 {
		return
	}

	for i, x := range buf {
		buf[i] = w.ProcessSample(x)
	}
}
