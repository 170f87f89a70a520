package chord

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-stemfx/internal/testutil"
)

func TestAnalyzeSilence(t *testing.T) {
	tl, err := Analyze(context.Background(), [][]float64{make([]float64, 22050)}, testRate)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(tl) != 1 || tl[0] != (Snapshot{Time: 0, Chord: Unclear}) {
		t.Fatalf("Analyze(silence) = %+v, want [{0 Unclear 0}]", tl)
	}
}

func TestAnalyzeSteadyChord(t *testing.T) {
	sig := testutil.Mixture(cMajor, testRate, 0.3, 2*testRate)

	tl, err := Analyze(context.Background(), [][]float64{sig, sig}, testRate)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(tl) != 1 || tl[0].Chord != "C" || tl[0].Time != 0 {
		t.Fatalf("Analyze() = %+v, want [{0 C}]", tl)
	}

	if tl[0].Confidence < 0.35 || tl[0].Confidence > 1 {
		t.Fatalf("confidence = %v, want in [0.35, 1]", tl[0].Confidence)
	}
}

func TestAnalyzeChordChange(t *testing.T) {
	sig := testutil.Concat(
		testutil.Mixture(cMajor, testRate, 0.3, 2*testRate),
		testutil.Mixture(aMinor, testRate, 0.3, 2*testRate),
	)

	tl, err := Analyze(context.Background(), [][]float64{sig}, testRate)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if err := tl.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if tl[0].Chord != "C" || tl[len(tl)-1].Chord != "Am" {
		t.Fatalf("Analyze() = %+v, want C ... Am", tl)
	}

	s, ok := tl.At(3.5)
	if !ok || s.Chord != "Am" {
		t.Fatalf("At(3.5) = %+v, want Am", s)
	}

	s, ok = tl.At(1)
	if !ok || s.Chord != "C" {
		t.Fatalf("At(1) = %+v, want C", s)
	}
}

func TestAnalyzeDecimatesHighRates(t *testing.T) {
	const sr = 44100

	sig := testutil.Mixture(cMajor, sr, 0.3, 2*sr)

	tl, err := Analyze(context.Background(), [][]float64{sig}, sr)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if chords := tl.Chords(); len(chords) != 1 || chords[0] != "C" {
		t.Fatalf("Analyze() = %+v, want only C", tl)
	}
}

func TestAnalyzeDoesNotModifyInput(t *testing.T) {
	sig := testutil.Mixture(cMajor, testRate, 0.3, testRate)
	orig := append([]float64(nil), sig...)

	if _, err := Analyze(context.Background(), [][]float64{sig}, testRate); err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, sig, orig, 0)
}

func TestAnalyzeValidation(t *testing.T) {
	ctx := context.Background()

	if _, err := Analyze(ctx, nil, testRate); !errors.Is(err, ErrNoAudio) {
		t.Fatalf("Analyze(nil) error = %v, want ErrNoAudio", err)
	}

	if _, err := Analyze(ctx, [][]float64{{}}, testRate); !errors.Is(err, ErrNoAudio) {
		t.Fatalf("Analyze(empty) error = %v, want ErrNoAudio", err)
	}

	if _, err := Analyze(ctx, [][]float64{{1, 2}, {1}}, testRate); !errors.Is(err, ErrChannelMismatch) {
		t.Fatalf("Analyze(ragged) error = %v, want ErrChannelMismatch", err)
	}

	if _, err := Analyze(ctx, [][]float64{{1}}, 0); !errors.Is(err, ErrInvalidSampleRate) {
		t.Fatalf("Analyze(sr=0) error = %v, want ErrInvalidSampleRate", err)
	}

	if _, err := Analyze(ctx, [][]float64{{1}}, testRate, WithHopSeconds(0)); err == nil {
		t.Fatal("expected option error")
	}
}

func TestAnalyzeShortInputIsOneFrame(t *testing.T) {
	var calls, total int

	sig := testutil.Mixture(cMajor, testRate, 0.3, 1000)

	_, err := Analyze(context.Background(), [][]float64{sig}, testRate,
		WithProgress(func(done, n int) { calls, total = done, n }))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if calls != 1 || total != 1 {
		t.Fatalf("progress = %d/%d, want 1/1", calls, total)
	}
}

func TestAnalyzeProgress(t *testing.T) {
	var seen []int

	sig := testutil.Mixture(cMajor, testRate, 0.3, 2*testRate)

	_, err := Analyze(context.Background(), [][]float64{sig}, testRate,
		WithProgress(func(done, total int) {
			if total != 9 {
				t.Errorf("total = %d, want 9", total)
			}

			seen = append(seen, done)
		}))
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(seen) != 9 || seen[0] != 1 || seen[8] != 9 {
		t.Fatalf("progress = %v, want 1..9", seen)
	}
}

func TestAnalyzeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sig := testutil.Mixture(cMajor, testRate, 0.3, testRate)

	tl, err := Analyze(ctx, [][]float64{sig}, testRate)
	if !errors.Is(err, context.Canceled) || tl != nil {
		t.Fatalf("Analyze() = %v, %v; want nil, context.Canceled", tl, err)
	}
}

func TestAnalyzeCancelledAtYield(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := testutil.Mixture(cMajor, testRate, 0.3, 2*testRate)

	tl, err := Analyze(ctx, [][]float64{sig}, testRate,
		WithYieldEveryFrames(4),
		WithProgress(func(done, _ int) {
			if done == 3 {
				cancel()
			}
		}))
	if !errors.Is(err, context.Canceled) || tl != nil {
		t.Fatalf("Analyze() = %v, %v; want nil, context.Canceled", tl, err)
	}
}

func TestAnalyzeYieldError(t *testing.T) {
	errHost := errors.New("host gone")

	var yields int

	sig := testutil.Mixture(cMajor, testRate, 0.3, 2*testRate)

	tl, err := Analyze(context.Background(), [][]float64{sig}, testRate,
		WithYieldEveryFrames(2),
		WithYield(func(context.Context) error {
			yields++
			if yields == 2 {
				return errHost
			}

			return nil
		}))
	if !errors.Is(err, errHost) || tl != nil {
		t.Fatalf("Analyze() = %v, %v; want nil, host error", tl, err)
	}

	if yields != 2 {
		t.Fatalf("yields = %d, want 2", yields)
	}
}

func TestAnalyzeInterleaved(t *testing.T) {
	mono := testutil.Mixture(cMajor, testRate, 0.3, 2*testRate)

	stereo := make([]float64, 2*len(mono))
	for i, x := range mono {
		stereo[2*i] = x
		stereo[2*i+1] = x
	}

	got, err := AnalyzeInterleaved(context.Background(), stereo, 2, testRate)
	if err != nil {
		t.Fatalf("AnalyzeInterleaved() error = %v", err)
	}

	want, err := Analyze(context.Background(), [][]float64{mono}, testRate)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if len(got) != len(want) || got[0] != want[0] {
		t.Fatalf("AnalyzeInterleaved() = %+v, want %+v", got, want)
	}

	if _, err := AnalyzeInterleaved(context.Background(), stereo[:5], 2, testRate); !errors.Is(err, ErrChannelMismatch) {
		t.Fatalf("odd sample count error = %v, want ErrChannelMismatch", err)
	}

	if _, err := AnalyzeInterleaved(context.Background(), stereo, 0, testRate); !errors.Is(err, ErrChannelMismatch) {
		t.Fatalf("zero channels error = %v, want ErrChannelMismatch", err)
	}
}

func TestDecimate(t *testing.T) {
	in := testutil.DeterministicSine(100, 44100, 1, 44100)

	out, rate := decimate(append([]float64(nil), in...), 44100, 11025)
	if rate != 11025 || len(out) != 11025 {
		t.Fatalf("decimate() = %d samples at %v Hz, want 11025 at 11025", len(out), rate)
	}

	testutil.RequireFinite(t, out)

	// A 100 Hz tone passes the anti-alias filter nearly untouched.
	var peak float64
	for _, x := range out[1000:] {
		peak = max(peak, math.Abs(x))
	}

	if math.Abs(peak-1) > 0.01 {
		t.Fatalf("passband peak = %v, want ~1", peak)
	}

	for _, tt := range []struct{ sr, target float64 }{{16000, 11025}, {44100, 0}, {11025, 11025}} {
		out, rate := decimate(in, tt.sr, tt.target)
		if rate != tt.sr || len(out) != len(in) {
			t.Fatalf("decimate(%v, %v) changed the signal", tt.sr, tt.target)
		}
	}
}
