package chord

import (
	"context"
	"fmt"
	"math"
	"runtime"
)

// Options configures Analyze.
type Options struct {
	// WindowSeconds is the analysis frame length.
	WindowSeconds float64
	// HopSeconds is the distance between frame starts.
	HopSeconds float64
	// MinimumConfidence is the base rejection threshold of the matcher.
	MinimumConfidence float64
	// StableFrameCount is the vote count a label needs in the smoothing
	// window. Values <= 1 disable smoothing.
	StableFrameCount int
	// TargetSampleRate is the analysis rate reached by integer decimation.
	// 0 analyses at the input rate.
	TargetSampleRate float64
	// YieldEveryFrames is the number of frames between calls to Yield.
	// 0 never yields.
	YieldEveryFrames int
	// SilenceThreshold is the frame RMS below which a frame is Unclear
	// without spectral work.
	SilenceThreshold float64
	// Yield hands control back to the host. A non-nil error aborts the pass.
	// nil selects DefaultYield.
	Yield func(context.Context) error
	// Progress, if set, is called after every frame.
	Progress func(done, total int)
}

// DefaultOptions returns the default analysis settings.
func DefaultOptions() Options {
	return Options{
		WindowSeconds:     0.4,
		HopSeconds:        0.2,
		MinimumConfidence: 0.35,
		StableFrameCount:  2,
		TargetSampleRate:  11025,
		YieldEveryFrames:  32,
		SilenceThreshold:  0.01,
	}
}

// DefaultYield lets other goroutines run and reports cancellation.
func DefaultYield(ctx context.Context) error {
	runtime.Gosched()
	return ctx.Err()
}

// Validate reports the first invalid setting.
func (o Options) Validate() error {
	switch {
	case !(o.WindowSeconds > 0) || math.IsInf(o.WindowSeconds, 0):
		return fmt.Errorf("chord: window must be > 0 seconds: %v", o.WindowSeconds)
	case !(o.HopSeconds > 0) || math.IsInf(o.HopSeconds, 0):
		return fmt.Errorf("chord: hop must be > 0 seconds: %v", o.HopSeconds)
	case !(o.MinimumConfidence >= 0 && o.MinimumConfidence <= 1):
		return fmt.Errorf("chord: minimum confidence must be in [0, 1]: %v", o.MinimumConfidence)
	case o.StableFrameCount < 0:
		return fmt.Errorf("chord: stable frame count must be >= 0: %d", o.StableFrameCount)
	case !(o.TargetSampleRate >= 0) || math.IsInf(o.TargetSampleRate, 0):
		return fmt.Errorf("chord: target sample rate must be >= 0: %v", o.TargetSampleRate)
	case o.YieldEveryFrames < 0:
		return fmt.Errorf("chord: yield interval must be >= 0: %d", o.YieldEveryFrames)
	case !(o.SilenceThreshold >= 0) || math.IsInf(o.SilenceThreshold, 0):
		return fmt.Errorf("chord: silence threshold must be >= 0: %v", o.SilenceThreshold)
	}

	return nil
}

// Fingerprint identifies the settings that affect the resulting timeline.
// Yield and Progress do not take part.
func (o Options) Fingerprint() string {
	return fmt.Sprintf("v1;w=%g;h=%g;c=%g;s=%d;r=%g;q=%g",
		o.WindowSeconds, o.HopSeconds, o.MinimumConfidence,
		o.StableFrameCount, o.TargetSampleRate, o.SilenceThreshold)
}

// Option mutates Options.
type Option func(*Options) error

// WithOptions replaces all settings.
func WithOptions(opts Options) Option {
	return func(o *Options) error {
		if err := opts.Validate(); err != nil {
			return err
		}

		*o = opts

		return nil
	}
}

// WithWindowSeconds sets the frame length.
func WithWindowSeconds(seconds float64) Option {
	return func(o *Options) error {
		if !(seconds > 0) || math.IsInf(seconds, 0) {
			return fmt.Errorf("chord: window must be > 0 seconds: %v", seconds)
		}

		o.WindowSeconds = seconds

		return nil
	}
}

// WithHopSeconds sets the distance between frames.
func WithHopSeconds(seconds float64) Option {
	return func(o *Options) error {
		if !(seconds > 0) || math.IsInf(seconds, 0) {
			return fmt.Errorf("chord: hop must be > 0 seconds: %v", seconds)
		}

		o.HopSeconds = seconds

		return nil
	}
}

// WithMinimumConfidence sets the base rejection threshold.
func WithMinimumConfidence(c float64) Option {
	return func(o *Options) error {
		if !(c >= 0 && c <= 1) {
			return fmt.Errorf("chord: minimum confidence must be in [0, 1]: %v", c)
		}

		o.MinimumConfidence = c

		return nil
	}
}

// WithStableFrameCount sets the smoothing vote count.
func WithStableFrameCount(n int) Option {
	return func(o *Options) error {
		if n < 0 {
			return fmt.Errorf("chord: stable frame count must be >= 0: %d", n)
		}

		o.StableFrameCount = n

		return nil
	}
}

// WithTargetSampleRate sets the analysis rate; 0 disables decimation.
func WithTargetSampleRate(rate float64) Option {
	return func(o *Options) error {
		if !(rate >= 0) || math.IsInf(rate, 0) {
			return fmt.Errorf("chord: target sample rate must be >= 0: %v", rate)
		}

		o.TargetSampleRate = rate

		return nil
	}
}

// WithYieldEveryFrames sets the yield cadence; 0 never yields.
func WithYieldEveryFrames(n int) Option {
	return func(o *Options) error {
		if n < 0 {
			return fmt.Errorf("chord: yield interval must be >= 0: %d", n)
		}

		o.YieldEveryFrames = n

		return nil
	}
}

// WithSilenceThreshold sets the RMS silence gate.
func WithSilenceThreshold(rms float64) Option {
	return func(o *Options) error {
		if !(rms >= 0) || math.IsInf(rms, 0) {
			return fmt.Errorf("chord: silence threshold must be >= 0: %v", rms)
		}

		o.SilenceThreshold = rms

		return nil
	}
}

// WithYield sets the host yield hook.
func WithYield(fn func(context.Context) error) Option {
	return func(o *Options) error {
		o.Yield = fn
		return nil
	}
}

// WithProgress sets the progress callback.
func WithProgress(fn func(done, total int)) Option {
	return func(o *Options) error {
		o.Progress = fn
		return nil
	}
}

// ResolveOptions applies opts to DefaultOptions.
func ResolveOptions(opts ...Option) (Options, error) {
	o := DefaultOptions()

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&o); err != nil {
			return Options{}, err
		}
	}

	if o.Yield == nil {
		o.Yield = DefaultYield
	}

	return o, nil
}
