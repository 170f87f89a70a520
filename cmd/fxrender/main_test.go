package main

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/cwbudde/algo-stemfx/dsp/effectchain"
	"github.com/cwbudde/algo-stemfx/internal/testutil"
	"github.com/cwbudde/algo-stemfx/internal/wavio"
)

func testAudio() *wavio.Audio {
	return &wavio.Audio{
		Channels: [][]float64{
			testutil.DeterministicSine(220, 22050, 0.5, 4000),
			testutil.DeterministicSine(220, 22050, 0.5, 4000),
		},
		SampleRate: 22050,
	}
}

func TestRenderNeutralIsDry(t *testing.T) {
	in := testAudio()

	out, err := renderAudio(in, effectchain.EffectNone, 0, 0, 256)
	if err != nil {
		t.Fatalf("renderAudio() error = %v", err)
	}

	if len(out.Channels) != 2 || out.Frames() != in.Frames() || out.SampleRate != in.SampleRate {
		t.Fatalf("renderAudio() = %d channels, %d frames", len(out.Channels), out.Frames())
	}

	testutil.RequireSliceNearlyEqual(t, out.Channels[0], in.Channels[0], 1e-12)
}

func TestRenderAddsLatencyAndTail(t *testing.T) {
	in := testAudio()

	out, err := renderAudio(in, effectchain.EffectPitchShift, 1, 0.1, 512)
	if err != nil {
		t.Fatalf("renderAudio() error = %v", err)
	}

	b, err := effectchain.NewBundle(22050)
	if err != nil {
		t.Fatalf("NewBundle() error = %v", err)
	}
	defer b.Close()

	if err := b.ApplyEffect(effectchain.EffectPitchShift, 1); err != nil {
		t.Fatalf("ApplyEffect() error = %v", err)
	}

	want := in.Frames() + b.Latency() + 2205
	if out.Frames() != want {
		t.Fatalf("frames = %d, want %d", out.Frames(), want)
	}

	for _, ch := range out.Channels {
		testutil.RequireFinite(t, ch)
	}
}

func TestRenderEveryEffect(t *testing.T) {
	in := testAudio()

	for _, e := range effectchain.Effects() {
		out, err := renderAudio(in, e, 0.9, 0, 300)
		if err != nil {
			t.Fatalf("renderAudio(%s) error = %v", e, err)
		}

		for _, ch := range out.Channels {
			testutil.RequireFinite(t, ch)
		}
	}
}

func TestRenderValidation(t *testing.T) {
	if _, err := renderAudio(testAudio(), effectchain.EffectWah, 0.5, 0, 0); err == nil {
		t.Fatal("expected block size error")
	}

	if _, err := renderAudio(testAudio(), effectchain.EffectWah, 0.5, -1, 128); err == nil {
		t.Fatal("expected tail error")
	}

	if _, err := renderAudio(&wavio.Audio{SampleRate: 8000}, effectchain.EffectWah, 0.5, 0, 128); err == nil {
		t.Fatal("expected empty input error")
	}
}

func TestPrintList(t *testing.T) {
	var buf bytes.Buffer
	if err := printList(&buf); err != nil {
		t.Fatalf("printList() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"wah", "pitch-shift", "bipolar", "unipolar"} {
		if !strings.Contains(out, want) {
			t.Fatalf("printList() missing %q:\n%s", want, out)
		}
	}

	if strings.Contains(out, "none") {
		t.Fatal("printList() lists the neutral effect")
	}
}

func responseRows(t *testing.T, out string) [][]string {
	t.Helper()

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 3 {
		t.Fatalf("response table too short:\n%s", out)
	}

	rows := make([][]string, 0, len(lines)-2)
	for _, line := range lines[2:] {
		rows = append(rows, strings.Fields(line))
	}

	return rows
}

func TestPrintResponse(t *testing.T) {
	var buf bytes.Buffer
	if err := printResponse(&buf, effectchain.EffectBassBoost, 1, 44100); err != nil {
		t.Fatalf("printResponse() error = %v", err)
	}

	rows := responseRows(t, buf.String())
	if len(rows) != 10 {
		t.Fatalf("rows = %d, want 10", len(rows))
	}

	low, err := strconv.ParseFloat(rows[0][3], 64)
	if err != nil {
		t.Fatalf("ParseFloat() error = %v", err)
	}

	high, err := strconv.ParseFloat(rows[len(rows)-1][3], 64)
	if err != nil {
		t.Fatalf("ParseFloat() error = %v", err)
	}

	if low < 9 || math.Abs(high) > 0.5 {
		t.Fatalf("bass boost response: %v dB at 31 Hz, %v dB at 16 kHz", low, high)
	}
}

func TestPrintResponseNeutralAndLimits(t *testing.T) {
	var buf bytes.Buffer
	if err := printResponse(&buf, effectchain.EffectNone, 0, 22050); err != nil {
		t.Fatalf("printResponse() error = %v", err)
	}

	rows := responseRows(t, buf.String())
	if len(rows) != 9 {
		t.Fatalf("rows = %d, want 9 below Nyquist", len(rows))
	}

	for _, r := range rows {
		if r[3] != "0.00" {
			t.Fatalf("neutral row %v, want 0.00 dB", r)
		}
	}

	if err := printResponse(&buf, effectchain.EffectNone, 0, 0); err == nil {
		t.Fatal("expected sample rate error")
	}
}
