package pitch

import (
	"math"
	"sync"
	"testing"

	"github.com/cwbudde/algo-stemfx/dsp/spectrum"
	"github.com/cwbudde/algo-stemfx/internal/testutil"
)

func TestGranularShifterDefaults(t *testing.T) {
	s, err := NewGranularShifter(44100)
	if err != nil {
		t.Fatalf("NewGranularShifter() error = %v", err)
	}

	if s.GrainSize() != 2048 || s.Hop() != 512 {
		t.Fatalf("grain=%d hop=%d", s.GrainSize(), s.Hop())
	}

	if s.Latency() != 2*2048+2*512 {
		t.Fatalf("Latency() = %d", s.Latency())
	}

	s48, _ := NewGranularShifter(48000)
	if s48.GrainSize() != 2232 {
		t.Fatalf("48 kHz grain = %d, want 2232", s48.GrainSize())
	}
}

func TestGranularShifterUnityIsDelayedIdentity(t *testing.T) {
	s, err := NewGranularShifter(44100, WithGrainSize(256))
	if err != nil {
		t.Fatalf("NewGranularShifter() error = %v", err)
	}

	if s.Latency() != 640 {
		t.Fatalf("Latency() = %d, want 640", s.Latency())
	}

	n := 4000
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(2*math.Pi*float64(i)/37.3) + 0.3*math.Sin(2*math.Pi*float64(i)/11.1)
	}

	y := append([]float64(nil), x...)
	for start := 0; start < n; start += 100 {
		s.ProcessBlock(y[start:min(start+100, n)])
	}

	lat := s.Latency()
	for i := lat + s.GrainSize(); i < n; i++ {
		if d := math.Abs(y[i] - x[i-lat]); d > 1e-9 {
			t.Fatalf("sample %d: got %v want %v (diff %v)", i, y[i], x[i-lat], d)
		}
	}
}

func TestGranularShifterOctaveUp(t *testing.T) {
	const sr = 44100.0

	s, _ := NewGranularShifter(sr, WithRatio(2))

	buf := testutil.DeterministicSine(220, sr, 0.5, 44100)
	s.ProcessBlock(buf)

	tail := buf[len(buf)-8820:]

	bank, _ := spectrum.NewBank([]float64{220, 440}, sr)
	amps := make([]float64, 2)
	_ = bank.Amplitudes(tail, amps)

	if !(amps[1] > 4*amps[0]) {
		t.Fatalf("440 Hz amplitude %v not dominant over 220 Hz %v", amps[1], amps[0])
	}
}

func TestGranularShifterRatioClampAndGlide(t *testing.T) {
	s, _ := NewGranularShifter(44100)

	for _, tc := range []struct{ in, want float64 }{
		{3, 2},
		{0.1, 0.5},
		{math.NaN(), 1},
		{1.5, 1.5},
	} {
		s.SetRatio(tc.in)
		if got := s.TargetRatio(); got != tc.want {
			t.Fatalf("SetRatio(%v): target %v, want %v", tc.in, got, tc.want)
		}
	}

	s.Reset()
	s.SetRatio(2)

	// After one short block the smoothed ratio has moved but not arrived.
	s.ProcessBlock(make([]float64, 64))
	if r := s.Ratio(); !(r > 1.01 && r < 1.5) {
		t.Fatalf("ratio after 64 samples = %v", r)
	}

	// After ten time constants it has arrived.
	s.ProcessBlock(make([]float64, 8820))
	if r := s.Ratio(); math.Abs(r-2) > 1e-3 {
		t.Fatalf("ratio after 200 ms = %v", r)
	}
}

func TestGranularShifterValidation(t *testing.T) {
	if _, err := NewGranularShifter(0); err == nil {
		t.Fatal("expected sample rate error")
	}

	if _, err := NewGranularShifter(44100, WithGrainSize(8)); err == nil {
		t.Fatal("expected grain size error")
	}

	if _, err := NewGranularShifter(44100, WithRatio(4)); err == nil {
		t.Fatal("expected ratio error")
	}

	s, _ := NewGranularShifter(44100, WithGrainSize(1001))
	if s.GrainSize() != 1004 {
		t.Fatalf("grain = %d, want rounded to 1004", s.GrainSize())
	}
}

func TestGranularShifterProcessBlockDoesNotAllocate(t *testing.T) {
	s, _ := NewGranularShifter(44100, WithRatio(0.75))
	buf := testutil.DeterministicNoise(1, 1, 512)

	allocs := testing.AllocsPerRun(50, func() {
		s.ProcessBlock(buf)
	})

	if allocs != 0 {
		t.Fatalf("ProcessBlock allocated %v times", allocs)
	}
}

func TestGranularShifterConcurrentSetRatio(t *testing.T) {
	s, _ := NewGranularShifter(44100, WithGrainSize(256))
	buf := make([]float64, 128)

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		for i := range 1000 {
			s.SetRatio(0.5 + float64(i%100)/66)
		}
	}()

	for range 200 {
		for i := range buf {
			buf[i] = math.Sin(float64(i))
		}

		s.ProcessBlock(buf)
		testutil.RequireFinite(t, buf)
	}

	wg.Wait()
}

func TestGranularShifterRebaseKeepsOutput(t *testing.T) {
	a, _ := NewGranularShifter(44100, WithGrainSize(256), WithRatio(1.25))
	b, _ := NewGranularShifter(44100, WithGrainSize(256), WithRatio(1.25))

	in := testutil.DeterministicNoise(2, 1, 4096)

	// Prime both identically, then force one to rebase.
	pa := append([]float64(nil), in...)
	pb := append([]float64(nil), in...)
	a.ProcessBlock(pa)
	b.ProcessBlock(pb)
	b.rebase()

	a.ProcessBlock(pa)
	b.ProcessBlock(pb)

	testutil.RequireSliceNearlyEqual(t, pb, pa, 1e-9)
}

func TestSemitonesToRatio(t *testing.T) {
	if r := SemitonesToRatio(12); math.Abs(r-2) > 1e-12 {
		t.Fatalf("12 semitones = %v", r)
	}

	if r := SemitonesToRatio(-12); math.Abs(r-0.5) > 1e-12 {
		t.Fatalf("-12 semitones = %v", r)
	}
}
