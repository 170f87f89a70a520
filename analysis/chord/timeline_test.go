package chord

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestTimelineAt(t *testing.T) {
	tl := Timeline{{Time: 0, Chord: "C", Confidence: 0.9}, {Time: 0.8, Chord: "Am", Confidence: 0.7}}

	tests := []struct {
		t    float64
		want string
		ok   bool
	}{
		{t: -1},
		{t: 0, want: "C", ok: true},
		{t: 0.79, want: "C", ok: true},
		{t: 0.8, want: "Am", ok: true},
		{t: 100, want: "Am", ok: true},
	}

	for _, tt := range tests {
		got, ok := tl.At(tt.t)
		if ok != tt.ok || got.Chord != tt.want {
			t.Fatalf("At(%v) = %+v, %v; want %q, %v", tt.t, got, ok, tt.want, tt.ok)
		}
	}

	if _, ok := Timeline(nil).At(0); ok {
		t.Fatal("At() on empty timeline ok = true")
	}
}

func TestTimelineChords(t *testing.T) {
	tl := Timeline{
		{Time: 0, Chord: Unclear},
		{Time: 1, Chord: "C"},
		{Time: 2, Chord: "G"},
		{Time: 3, Chord: "C"},
	}

	got := tl.Chords()
	if len(got) != 2 || got[0] != "C" || got[1] != "G" {
		t.Fatalf("Chords() = %v, want [C G]", got)
	}
}

func TestTimelineValidate(t *testing.T) {
	tests := []struct {
		name string
		tl   Timeline
	}{
		{name: "empty label", tl: Timeline{{Time: 0, Chord: ""}}},
		{name: "negative time", tl: Timeline{{Time: -1, Chord: "C"}}},
		{name: "nan time", tl: Timeline{{Time: math.NaN(), Chord: "C"}}},
		{name: "confidence", tl: Timeline{{Time: 0, Chord: "C", Confidence: 1.5}}},
		{name: "backwards", tl: Timeline{{Time: 1, Chord: "C"}, {Time: 0.5, Chord: "G"}}},
		{name: "repeat", tl: Timeline{{Time: 0, Chord: "C"}, {Time: 1, Chord: "C"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.tl.Validate(); !errors.Is(err, ErrInvalidTimeline) {
				t.Fatalf("Validate() error = %v, want ErrInvalidTimeline", err)
			}
		})
	}

	if err := (Timeline{}).Validate(); err != nil {
		t.Fatalf("Validate(empty) error = %v", err)
	}
}

func TestTimelineJSON(t *testing.T) {
	tl := Timeline{{Time: 0, Chord: "C", Confidence: 0.5}, {Time: 0.8, Chord: "Am", Confidence: 0.25}}

	b, err := json.Marshal(tl)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	want := `[{"time":0,"chord":"C","confidence":0.5},{"time":0.8,"chord":"Am","confidence":0.25}]`
	if string(b) != want {
		t.Fatalf("Marshal() = %s, want %s", b, want)
	}

	var back Timeline
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if len(back) != len(tl) || back[0] != tl[0] || back[1] != tl[1] {
		t.Fatalf("Unmarshal() = %+v, want %+v", back, tl)
	}
}

func TestTimelineJSONEmpty(t *testing.T) {
	b, err := json.Marshal(Timeline(nil))
	if err != nil || string(b) != "[]" {
		t.Fatalf("Marshal(nil) = %s, %v; want []", b, err)
	}

	var tl Timeline
	if err := json.Unmarshal([]byte("[]"), &tl); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if tl == nil || len(tl) != 0 {
		t.Fatalf("Unmarshal([]) = %#v, want empty non-nil", tl)
	}
}

func TestTimelineUnmarshalRejectsInvalid(t *testing.T) {
	var tl Timeline

	err := json.Unmarshal([]byte(`[{"time":0,"chord":"C"},{"time":1,"chord":"C"}]`), &tl)
	if !errors.Is(err, ErrInvalidTimeline) {
		t.Fatalf("Unmarshal() error = %v, want ErrInvalidTimeline", err)
	}

	if tl != nil {
		t.Fatalf("Unmarshal() left %+v behind", tl)
	}
}
