package pitch

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-stemfx/dsp/interp"
	"github.com/cwbudde/algo-stemfx/dsp/window"
)

const (
	// Grain length at the reference rate; scaled with the sample rate.
	defaultGrainSize       = 2048
	grainReferenceRate     = 44100.0
	grainOverlap           = 4
	minGrainSize           = 64
	maxGrainSize           = 1 << 16
	inputRingGrains        = 4
	ratioSmoothingSeconds  = 0.02
	MinRatio               = 0.5
	MaxRatio               = 2.0
	positionRebaseInterval = 1 << 30
)

// ShifterOption configures a GranularShifter.
type ShifterOption func(*shifterConfig) error

type shifterConfig struct {
	grainSize int
	ratio     float64
}

// WithGrainSize sets the grain length in samples. It is rounded up to a
// multiple of the overlap factor.
func WithGrainSize(size int) ShifterOption {
	return func(cfg *shifterConfig) error {
		if size < minGrainSize || size > maxGrainSize {
			return fmt.Errorf("granular shifter grain size must be in [%d, %d]: %d", minGrainSize, maxGrainSize, size)
		}

		cfg.grainSize = size

		return nil
	}
}

// WithRatio sets the initial pitch ratio. The smoothed ratio starts there
// without gliding.
func WithRatio(ratio float64) ShifterOption {
	return func(cfg *shifterConfig) error {
		if !(ratio >= MinRatio && ratio <= MaxRatio) {
			return fmt.Errorf("granular shifter ratio must be in [%g, %g]: %f", MinRatio, MaxRatio, ratio)
		}

		cfg.ratio = ratio

		return nil
	}
}

// GranularShifter shifts pitch by a ratio in [0.5, 2] with constant latency.
//
// Input is written into a ring of four grains. Every hop (a quarter grain)
// one grain is read from the ring starting at the read pointer, stepping by
// the current ratio with linear interpolation, windowed, and added into an
// output ring of grain+hop samples. The read pointer then advances by one
// hop, so it tracks the write pointer at a fixed distance regardless of the
// ratio. If the distance drifts outside [2 grains, ring-grain] the pointer
// snaps back to the safe distance.
type GranularShifter struct {
	sampleRate float64
	grain      int
	hop        int
	norm       float64
	window     []float64

	inRing  []float64
	outRing []float64

	write    int     // absolute write index into inRing
	read     float64 // absolute read position into inRing
	outPos   int
	hopCount int
	safeDist int

	ratio  float64
	alpha  float64
	target atomic.Uint64
}

// NewGranularShifter creates a shifter for sampleRate.
func NewGranularShifter(sampleRate float64, opts ...ShifterOption) (*GranularShifter, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("granular shifter sample rate must be > 0 and finite: %f", sampleRate)
	}

	scaled := int(math.Round(defaultGrainSize * sampleRate / grainReferenceRate))
	cfg := shifterConfig{
		grainSize: max(minGrainSize, min(maxGrainSize, scaled)),
		ratio:     1,
	}

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	grain := (cfg.grainSize + grainOverlap - 1) / grainOverlap * grainOverlap
	hop := grain / grainOverlap

	win, err := window.Hann(grain, window.WithPeriodic())
	if err != nil {
		return nil, fmt.Errorf("granular shifter window: %w", err)
	}

	s := &GranularShifter{
		sampleRate: sampleRate,
		grain:      grain,
		hop:        hop,
		norm:       2 * float64(hop) / float64(grain),
		window:     win,
		inRing:     make([]float64, inputRingGrains*grain),
		outRing:    make([]float64, grain+hop),
		safeDist:   2*grain + hop,
		ratio:      cfg.ratio,
		alpha:      1 - math.Exp(-1/(ratioSmoothingSeconds*sampleRate)),
	}
	s.target.Store(math.Float64bits(cfg.ratio))
	s.Reset()

	return s, nil
}

// SetRatio sets the target pitch ratio. Values are clamped to [0.5, 2];
// NaN selects 1. Safe to call concurrently with ProcessBlock; the new target
// takes effect at the next block and is approached with a 20 ms glide.
func (s *GranularShifter) SetRatio(ratio float64) {
	s.target.Store(math.Float64bits(ClampRatio(ratio)))
}

// TargetRatio returns the most recently requested ratio.
func (s *GranularShifter) TargetRatio() float64 {
	return math.Float64frombits(s.target.Load())
}

// Ratio returns the smoothed ratio currently applied. It must only be read
// from the goroutine that calls ProcessBlock.
func (s *GranularShifter) Ratio() float64 { return s.ratio }

// GrainSize returns the grain length in samples.
func (s *GranularShifter) GrainSize() int { return s.grain }

// Hop returns the grain hop in samples.
func (s *GranularShifter) Hop() int { return s.hop }

// Latency returns the input-to-output delay in samples at ratio 1.
func (s *GranularShifter) Latency() int { return s.safeDist + s.hop }

// SampleRate returns the sample rate in Hz.
func (s *GranularShifter) SampleRate() float64 { return s.sampleRate }

// Reset clears both rings and returns the pointers to their initial
// positions. The smoothed ratio jumps to the current target.
func (s *GranularShifter) Reset() {
	clear(s.inRing)
	clear(s.outRing)

	s.write = 0
	s.read = -float64(s.safeDist)
	s.outPos = 0
	s.hopCount = 0
	s.ratio = s.TargetRatio()
}

// ProcessBlock shifts buf in place. It never allocates or blocks.
func (s *GranularShifter) ProcessBlock(buf []float64) {
	target := s.TargetRatio()

	for i, x := range buf {
		s.ratio += s.alpha * (target - s.ratio)
		buf[i] = s.step(x)
	}

	if s.write >= positionRebaseInterval {
		s.rebase()
	}
}

// ProcessSample shifts one sample. The target ratio is re-read on every
// call; prefer ProcessBlock on the audio path.
func (s *GranularShifter) ProcessSample(x float64) float64 {
	s.ratio += s.alpha * (s.TargetRatio() - s.ratio)
	return s.step(x)
}

func (s *GranularShifter) step(x float64) float64 {
	s.inRing[s.write%len(s.inRing)] = x
	s.write++

	y := s.outRing[s.outPos]
	s.outRing[s.outPos] = 0

	s.outPos++
	if s.outPos == len(s.outRing) {
		s.outPos = 0
	}

	s.hopCount++
	if s.hopCount == s.hop {
		s.hopCount = 0
		s.emitGrain()
	}

	return y * s.norm
}

func (s *GranularShifter) emitGrain() {
	dist := float64(s.write) - s.read
	if dist < float64(2*s.grain) || dist > float64(len(s.inRing)-s.grain) {
		s.read = float64(s.write - s.safeDist)
	}

	ratio := s.ratio
	o := s.outPos
	n := len(s.outRing)

	for i, w := range s.window {
		s.outRing[o] += interp.RingLinear(s.inRing, s.read+float64(i)*ratio) * w

		o++
		if o == n {
			o = 0
		}
	}

	s.read += float64(s.hop)
}

// rebase shifts both absolute positions back by a whole number of rings so
// float precision of the read pointer does not degrade over long sessions.
func (s *GranularShifter) rebase() {
	ring := len(s.inRing)
	shift := (s.write / ring) * ring

	s.write -= shift
	s.read -= float64(shift)
}

// ClampRatio limits ratio to [MinRatio, MaxRatio]; NaN maps to 1.
func ClampRatio(ratio float64) float64 {
	if math.IsNaN(ratio) {
		return 1
	}

	return max(MinRatio, min(MaxRatio, ratio))
}

// SemitonesToRatio converts a pitch offset in semitones to a frequency ratio.
func SemitonesToRatio(semitones float64) float64 {
	return math.Exp2(semitones / 12)
}
