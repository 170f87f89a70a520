package effectchain

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-stemfx/dsp/core"
	"github.com/cwbudde/algo-stemfx/dsp/effects/modulation"
	"github.com/cwbudde/algo-stemfx/dsp/effects/pitch"
	"github.com/cwbudde/algo-stemfx/dsp/effects/reverb"
	"github.com/cwbudde/algo-stemfx/dsp/effects/shaper"
	"github.com/cwbudde/algo-stemfx/dsp/filter/biquad"
	"github.com/cwbudde/algo-stemfx/dsp/filter/design"
	"github.com/cwbudde/algo-vecmath"
)

const (
	// DefaultMaxBlockSize is the scratch size used when WithMaxBlockSize is
	// not given. Longer Process calls run in sub-blocks of this size.
	DefaultMaxBlockSize = 1024

	maxDelaySeconds     = 0.5
	reverbPartitionSize = 1024
	// sweepInterval is the number of samples between base filter redesigns
	// while its cutoff is swept.
	sweepInterval = 32
)

// BundleOption configures a Bundle.
type BundleOption func(*bundleConfig) error

type bundleConfig struct {
	maxBlock int
	seed     int64
	teardown func(NodeID) error
}

// WithMaxBlockSize sets the scratch buffer size.
func WithMaxBlockSize(n int) BundleOption {
	return func(cfg *bundleConfig) error {
		if n <= 0 {
			return fmt.Errorf("effectchain: max block size must be > 0: %d", n)
		}

		cfg.maxBlock = n

		return nil
	}
}

// WithSeed sets the seed of the generated reverb impulses.
func WithSeed(seed int64) BundleOption {
	return func(cfg *bundleConfig) error {
		cfg.seed = seed
		return nil
	}
}

// WithTeardown registers a hook Close calls once per node, after the node's
// edges are disconnected. Hosts that mirror the bundle into an external
// audio graph release their node handles here.
func WithTeardown(fn func(NodeID) error) BundleOption {
	return func(cfg *bundleConfig) error {
		cfg.teardown = fn
		return nil
	}
}

// snapshot is the immutable parameter set the audio side adopts.
type snapshot struct {
	params    Params
	wetPath   []NodeID
	curve     []float64
	convolver *reverb.Convolver
	base      biquad.Coefficients
	emphasis  biquad.Coefficients
	wetGain   float64
}

// Bundle is the node set of one stem: base filter, phaser cascade, emphasis
// filter, waveshaper, modulated delay, reverb convolver, pitch shifter and
// the wet/dry gains, wired by a Topology.
//
// ApplyEffect, Params, Routing, Latency and Close run on the control side
// and are safe for concurrent use with each other. Process runs on
// the audio side and must not be called concurrently with itself. The
// two sides meet only through an atomically published snapshot.
type Bundle struct {
	sampleRate float64
	maxBlock   int
	seed       int64
	teardown   func(NodeID) error

	mu         sync.Mutex
	topology   *Topology
	params     Params
	curve      []float64
	curveDrive float64
	convolver  *reverb.Convolver
	reverbKey  ReverbParams

	published atomic.Pointer[snapshot]
	closed    atomic.Bool

	active     *snapshot
	baseFilter *biquad.Section
	emphasis   *biquad.Section
	phaser     *modulation.Phaser
	delay      *modulation.ModDelay
	shaper     *shaper.Waveshaper
	shifter    *pitch.GranularShifter
	sweep      *modulation.LFO
	conv       *reverb.Convolver
	wetL       []float64
	wetR       []float64
	dryBuf     []float64
	wetGain    float64
	dryGain    float64
}

// NewBundle creates a bundle in the neutral state: dry signal only.
func NewBundle(sampleRate float64, opts ...BundleOption) (*Bundle, error) {
	if !core.ValidSampleRate(sampleRate) {
		return nil, fmt.Errorf("effectchain: sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := bundleConfig{maxBlock: DefaultMaxBlockSize, seed: 1}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	phaser, err := modulation.NewPhaser(sampleRate, modulation.WithPhaserStages(phaserStages))
	if err != nil {
		return nil, err
	}

	modDelay, err := modulation.NewModDelay(sampleRate, maxDelaySeconds)
	if err != nil {
		return nil, err
	}

	shifter, err := pitch.NewGranularShifter(sampleRate)
	if err != nil {
		return nil, err
	}

	sweep, err := modulation.NewLFO(sampleRate, 0)
	if err != nil {
		return nil, err
	}

	b := &Bundle{
		sampleRate: sampleRate,
		maxBlock:   cfg.maxBlock,
		seed:       cfg.seed,
		teardown:   cfg.teardown,
		topology:   NewTopology(),
		params:     Neutral(),
		baseFilter: biquad.NewSection(biquad.Identity()),
		emphasis:   biquad.NewSection(biquad.Identity()),
		phaser:     phaser,
		delay:      modDelay,
		shaper:     shaper.NewWaveshaper(nil),
		shifter:    shifter,
		sweep:      sweep,
		wetL:       make([]float64, cfg.maxBlock),
		wetR:       make([]float64, cfg.maxBlock),
		dryBuf:     make([]float64, cfg.maxBlock),
		dryGain:    1,
	}
	b.publish()

	return b, nil
}

// SampleRate returns the sample rate in Hz.
func (b *Bundle) SampleRate() float64 { return b.sampleRate }

// MaxBlockSize returns the sub-block size of Process.
func (b *Bundle) MaxBlockSize() int { return b.maxBlock }

// ApplyEffect maps (effect, value), regenerates the shaper curve and reverb
// impulse when their defining parameters changed, switches routing and
// publishes the result. Applying the current state again does nothing.
func (b *Bundle) ApplyEffect(effect EffectType, value float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed.Load() {
		return ErrClosed
	}

	p := Map(effect, value)
	if p == b.params {
		return nil
	}

	if err := b.prepareCurve(p.Drive); err != nil {
		return err
	}

	if p.WetRoute == WetConvolution {
		if err := b.prepareConvolver(p.Reverb); err != nil {
			return err
		}
	}

	if _, err := b.topology.SetRoutes(p.WetRoute, p.BaseRoute); err != nil {
		return err
	}

	b.shifter.SetRatio(p.PitchRatio)
	b.params = p
	b.publish()

	return nil
}

// Params returns the current mapped parameter set.
func (b *Bundle) Params() Params {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.params
}

// Routing returns the current wet and base routes.
func (b *Bundle) Routing() (WetRoute, BaseRoute) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.params.WetRoute, b.params.BaseRoute
}

// Topology returns the current edge set and compiled node order.
func (b *Bundle) Topology() ([]Edge, []NodeID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.topology.Edges(), b.topology.Order()
}

// Latency returns the wet branch delay in samples for the current routing.
func (b *Bundle) Latency() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.params.WetRoute {
	case WetGranularShift:
		return b.shifter.Latency()
	case WetConvolution:
		if b.convolver != nil {
			return b.convolver.Latency()
		}
	}

	return 0
}

// Close tears down every node. Failures of individual nodes are collected
// with errors.Join; a failing node does not stop the others. Closing twice
// is a no-op.
func (b *Bundle) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed.Swap(true) {
		return nil
	}

	var errs []error

	for _, id := range allNodes {
		b.topology.DisconnectNode(id)

		if b.teardown == nil {
			continue
		}

		if err := b.teardown(id); err != nil {
			errs = append(errs, fmt.Errorf("teardown %s: %w", id, err))
		}
	}

	b.curve = nil
	b.convolver = nil

	return errors.Join(errs...)
}

func (b *Bundle) prepareCurve(drive float64) error {
	if drive == b.curveDrive {
		return nil
	}

	if drive == 0 {
		b.curve, b.curveDrive = nil, 0
		return nil
	}

	curve, err := shaper.SoftClipCurve(drive, shaper.DefaultCurveSize)
	if err != nil {
		return err
	}

	b.curve, b.curveDrive = curve, drive

	return nil
}

func (b *Bundle) prepareConvolver(rp ReverbParams) error {
	if b.convolver != nil && rp == b.reverbKey {
		return nil
	}

	imp, err := reverb.NoiseBurst(b.sampleRate, rp.Seconds, rp.Decay, b.seed)
	if err != nil {
		return err
	}

	conv, err := reverb.NewConvolver(imp, reverbPartitionSize)
	if err != nil {
		return err
	}

	b.convolver, b.reverbKey = conv, rp

	return nil
}

func (b *Bundle) publish() {
	p := b.params

	s := &snapshot{
		params:   p,
		wetPath:  b.topology.WetPath(),
		curve:    b.curve,
		base:     stableOr(design.Design(p.Base, b.sampleRate), biquad.Identity()),
		emphasis: stableOr(design.Design(p.Emphasis, b.sampleRate), biquad.Identity()),
		wetGain:  p.WetGain(),
	}
	if p.WetRoute == WetConvolution {
		s.convolver = b.convolver
	}

	b.published.Store(s)
}

// Process renders one block: in is the mono stem, outL and outR receive the
// stereo mix. in may alias either output. Process does not allocate; blocks
// longer than MaxBlockSize are processed in sub-blocks. Parameters are
// adopted at the start of each call and gains ramp across the first
// sub-block after a change.
func (b *Bundle) Process(in, outL, outR []float64) error {
	if len(outL) != len(in) || len(outR) != len(in) {
		return ErrLengthMismatch
	}

	if b.closed.Load() {
		core.Zero(outL)
		core.Zero(outR)

		return ErrClosed
	}

	b.adopt()

	for off := 0; off < len(in); off += b.maxBlock {
		end := min(off+b.maxBlock, len(in))
		b.processBlock(in[off:end], outL[off:end], outR[off:end])
	}

	return nil
}

// resetOnSwitch clears the node state an effect change makes stale. The
// pitch shifter keeps its grain buffers so returning to it does not restart
// from silence.
func (b *Bundle) resetOnSwitch() {
	b.baseFilter.Reset()
	b.emphasis.Reset()
	b.phaser.Reset()
	b.delay.Reset()
	b.sweep.Reset()
}

func (b *Bundle) adopt() {
	s := b.published.Load()
	if s == b.active {
		return
	}

	prev := b.active
	b.active = s
	p := s.params

	if prev != nil && prev.params.Effect != p.Effect {
		b.resetOnSwitch()
	}

	b.baseFilter.SetCoefficients(s.base)
	b.emphasis.SetCoefficients(s.emphasis)
	b.phaser.SetParams(p.Phaser)
	b.delay.SetParams(p.Delay)
	b.shaper.SetCurve(s.curve)
	b.sweep.SetRate(p.Sweep.RateHz)

	if s.convolver != b.conv {
		b.conv = s.convolver
		if b.conv != nil {
			b.conv.Reset()
		}
	}
}

func (b *Bundle) processBlock(in, outL, outR []float64) {
	n := len(in)
	s := b.active
	wetL := b.wetL[:n]
	wetR := b.wetR[:n]

	copy(wetL, in)

	stereo := false

	for _, id := range s.wetPath {
		switch id {
		case NodeBaseFilter:
			b.processBase(wetL, s.params)
		case NodePhaser:
			b.phaser.ProcessBlock(wetL)
		case NodeEmphasis:
			b.emphasis.ProcessBlock(wetL)
		case NodeShaper:
			b.shaper.ProcessBlock(wetL)
		case NodeDelay:
			if s.params.DelayEnabled {
				b.delay.ProcessBlock(wetL)
			}
		case NodeShifter:
			b.shifter.ProcessBlock(wetL)
		case NodeConvolver:
			if b.conv == nil || b.conv.Process(wetL, wetL, wetR) != nil {
				core.Zero(wetL)
				core.Zero(wetR)
			}

			stereo = true
		}
	}

	if !stereo {
		copy(wetR, wetL)
	}

	b.mix(in, outL, outR, wetL, wetR, s.wetGain, s.params.Dry)
}

// mix writes dry*in + wet*wetX to both outputs, ramping linearly from the
// previous gains across the block. in may alias either output.
func (b *Bundle) mix(in, outL, outR, wetL, wetR []float64, wet, dry float64) {
	if wet == b.wetGain && dry == b.dryGain {
		dryBuf := b.dryBuf[:len(in)]
		vecmath.ScaleBlock(dryBuf, in, dry)
		vecmath.ScaleBlockInPlace(wetL, wet)
		vecmath.ScaleBlockInPlace(wetR, wet)
		vecmath.AddBlock(outL, dryBuf, wetL)
		vecmath.AddBlock(outR, dryBuf, wetR)

		return
	}

	n := len(in)
	wetStep := (wet - b.wetGain) / float64(n)
	dryStep := (dry - b.dryGain) / float64(n)

	for i, x := range in {
		b.wetGain += wetStep
		b.dryGain += dryStep

		dry := b.dryGain * x
		outL[i] = dry + b.wetGain*wetL[i]
		outR[i] = dry + b.wetGain*wetR[i]
	}

	b.wetGain = wet
	b.dryGain = dry
}

// processBase runs the base filter, redesigning it every sweepInterval
// samples while its cutoff is swept.
func (b *Bundle) processBase(buf []float64, p Params) {
	if p.Base.Kind == design.KindBypass || !p.Sweep.Active() {
		b.baseFilter.ProcessBlock(buf)
		return
	}

	for off := 0; off < len(buf); off += sweepInterval {
		end := min(off+sweepInterval, len(buf))

		lfo := b.sweep.Value()
		b.sweep.Advance(end - off)

		spec := p.Base
		if p.Sweep.Unipolar {
			spec.Freq += p.Sweep.DepthHz * 0.5 * (lfo + 1)
		} else {
			spec.Freq += p.Sweep.DepthHz * lfo
		}

		b.baseFilter.SetCoefficients(stableOr(design.Design(spec, b.sampleRate), b.baseFilter.Coefficients))
		b.baseFilter.ProcessBlock(buf[off:end])
	}
}

// stableOr returns c, or fallback when c has a pole on or outside the unit
// circle.
func stableOr(c, fallback biquad.Coefficients) biquad.Coefficients {
	if !c.Stable() {
		return fallback
	}

	return c
}
