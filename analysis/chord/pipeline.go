package chord

import (
	"context"
	"fmt"
	"math"

	"github.com/cwbudde/algo-stemfx/dsp/core"
	"github.com/cwbudde/algo-stemfx/dsp/filter/biquad"
	"github.com/cwbudde/algo-stemfx/dsp/filter/design"
	"github.com/cwbudde/algo-stemfx/dsp/window"
	"github.com/cwbudde/algo-vecmath"
)

const antiAliasRatio = 0.45

// Butterworth section Qs of a 4th-order lowpass.
var antiAliasQs = [...]float64{0.5411961001461971, 1.3065629648763766}

// Analyze computes the chord timeline of a multi-channel track.
//
// The pass is all or nothing: any error, including cancellation observed at
// a yield point, discards the frames computed so far and returns nil.
func Analyze(ctx context.Context, channels [][]float64, sampleRate float64, opts ...Option) (Timeline, error) {
	o, err := ResolveOptions(opts...)
	if err != nil {
		return nil, err
	}

	if !core.ValidSampleRate(sampleRate) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}

	if len(channels) == 0 || len(channels[0]) == 0 {
		return nil, ErrNoAudio
	}

	for i, ch := range channels[1:] {
		if len(ch) != len(channels[0]) {
			return nil, fmt.Errorf("%w: channel %d has %d samples, want %d",
				ErrChannelMismatch, i+1, len(ch), len(channels[0]))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mono := core.Downmix(nil, channels)
	mono, rate := decimate(mono, sampleRate, o.TargetSampleRate)

	frames, err := analyzeFrames(ctx, mono, rate, o)
	if err != nil {
		return nil, err
	}

	return Smooth(frames, o.StableFrameCount), nil
}

// AnalyzeInterleaved is Analyze for interleaved samples.
func AnalyzeInterleaved(
	ctx context.Context,
	samples []float64,
	numChannels int,
	sampleRate float64,
	opts ...Option,
) (Timeline, error) {
	if numChannels <= 0 {
		return nil, fmt.Errorf("%w: %d channels", ErrChannelMismatch, numChannels)
	}

	if len(samples)%numChannels != 0 {
		return nil, fmt.Errorf("%w: %d samples for %d channels", ErrChannelMismatch, len(samples), numChannels)
	}

	n := len(samples) / numChannels
	channels := make([][]float64, numChannels)

	for c := range channels {
		ch := make([]float64, n)
		for i := range ch {
			ch[i] = samples[i*numChannels+c]
		}

		channels[c] = ch
	}

	return Analyze(ctx, channels, sampleRate, opts...)
}

// decimate lowpasses and keeps every stride-th sample, stride being
// floor(sampleRate/target). It returns the input unchanged when the stride
// is below 2.
func decimate(mono []float64, sampleRate, target float64) ([]float64, float64) {
	if target <= 0 {
		return mono, sampleRate
	}

	stride := int(math.Floor(sampleRate / target))
	if stride < 2 {
		return mono, sampleRate
	}

	rate := sampleRate / float64(stride)
	cutoff := antiAliasRatio * rate

	coeffs := make([]biquad.Coefficients, len(antiAliasQs))
	for i, q := range antiAliasQs {
		coeffs[i] = design.Lowpass(cutoff, q, sampleRate)
	}

	biquad.NewChain(coeffs).ProcessBlock(mono)

	out := make([]float64, 0, len(mono)/stride+1)
	for i := 0; i < len(mono); i += stride {
		out = append(out, mono[i])
	}

	return out, rate
}

func analyzeFrames(ctx context.Context, mono []float64, rate float64, o Options) ([]Frame, error) {
	frameLen := max(1, int(math.Round(o.WindowSeconds*rate)))
	hop := max(1, int(math.Round(o.HopSeconds*rate)))

	total := 1
	if len(mono) > frameLen {
		total += (len(mono) - frameLen) / hop
	}

	est, err := NewEstimator(rate)
	if err != nil {
		return nil, err
	}

	matcher, err := NewMatcher(o.MinimumConfidence)
	if err != nil {
		return nil, err
	}

	coeffs, err := window.Hann(frameLen)
	if err != nil {
		return nil, err
	}

	buf := make([]float64, frameLen)
	frames := make([]Frame, 0, total)

	for i := range total {
		start := i * hop
		n := copy(buf, mono[start:min(start+frameLen, len(mono))])
		clear(buf[n:])

		f := Frame{Time: float64(start) / rate, Label: Unclear}

		if rms(buf) >= o.SilenceThreshold {
			if err := window.PrepareFrame(buf, coeffs); err != nil {
				return nil, err
			}

			s, err := est.Estimate(buf)
			if err != nil {
				return nil, err
			}

			d := matcher.Match(s)
			f.Label, f.Confidence = d.Label, d.Confidence
		}

		frames = append(frames, f)

		if o.Progress != nil {
			o.Progress(i+1, total)
		}

		if o.YieldEveryFrames > 0 && (i+1)%o.YieldEveryFrames == 0 {
			if err := o.Yield(ctx); err != nil {
				return nil, fmt.Errorf("chord: analysis interrupted after %d of %d frames: %w", i+1, total, err)
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return frames, nil
}

func rms(buf []float64) float64 {
	if len(buf) == 0 {
		return 0
	}

	return math.Sqrt(vecmath.DotProduct(buf, buf) / float64(len(buf)))
}
