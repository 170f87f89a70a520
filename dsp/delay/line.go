package delay

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-stemfx/dsp/interp"
)

// Line is a circular delay line with fractional reads.
//
// Delays are measured from the write head: a delay of 1 returns the most
// recently written sample.
type Line struct {
	buffer   []float64
	writePos int
	mode     interp.Mode
}

// Option configures a Line.
type Option func(*Line)

// WithMode selects the fractional read interpolation. Default is Hermite.
func WithMode(mode interp.Mode) Option {
	return func(d *Line) {
		d.mode = mode
	}
}

// New returns a delay line holding size samples.
func New(size int, opts ...Option) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("delay size must be > 0: %d", size)
	}

	d := &Line{buffer: make([]float64, size), mode: interp.Hermite}

	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}

	return d, nil
}

// ForDuration returns a line long enough for maxSeconds of delay at
// sampleRate, plus interpolation headroom.
func ForDuration(maxSeconds, sampleRate float64, opts ...Option) (*Line, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("delay sample rate must be > 0: %v", sampleRate)
	}

	if maxSeconds <= 0 || math.IsNaN(maxSeconds) || math.IsInf(maxSeconds, 0) {
		return nil, fmt.Errorf("delay duration must be > 0: %v", maxSeconds)
	}

	return New(int(math.Ceil(maxSeconds*sampleRate))+4, opts...)
}

// Len returns the buffer size.
func (d *Line) Len() int {
	return len(d.buffer)
}

// MaxDelay returns the largest fractional delay ReadFractional honours.
func (d *Line) MaxDelay() float64 {
	return float64(len(d.buffer) - 3)
}

// Write writes one sample.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = sample

	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read reads an integer delay in samples.
func (d *Line) Read(delay int) float64 {
	return d.buffer[interp.Wrap(d.writePos-delay, len(d.buffer))]
}

// ReadFractional reads a fractional delay, clamped to [1, MaxDelay()].
func (d *Line) ReadFractional(delay float64) float64 {
	if delay < 1 || math.IsNaN(delay) {
		delay = 1
	}

	if maxDelay := d.MaxDelay(); delay > maxDelay {
		delay = maxDelay
	}

	// The ring position of delay k is writePos-k; reading backwards in time
	// means the interpolation neighbourhood runs towards older samples.
	return interp.Ring(d.mode, d.buffer, float64(d.writePos)-delay)
}

// Process reads the line at delay samples, writes x plus feedback times
// the delayed sample, and returns the delayed sample.
func (d *Line) Process(x, delay, feedback float64) float64 {
	y := d.ReadFractional(delay)
	d.Write(x + feedback*y)

	return y
}

// Reset clears line state.
func (d *Line) Reset() {
	clear(d.buffer)
	d.writePos = 0
}
