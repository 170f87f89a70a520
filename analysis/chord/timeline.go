package chord

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Snapshot is one timeline entry: the chord that starts at Time seconds.
type Snapshot struct {
	Time       float64 `json:"time"`
	Chord      string  `json:"chord"`
	Confidence float64 `json:"confidence"`
}

// Timeline is an ordered chord sequence. Adjacent entries never share a
// label and times never decrease.
type Timeline []Snapshot

// At returns the last snapshot with Time <= t. ok is false before the first
// entry or for an empty timeline.
func (tl Timeline) At(t float64) (Snapshot, bool) {
	i := sort.Search(len(tl), func(i int) bool { return tl[i].Time > t })
	if i == 0 {
		return Snapshot{}, false
	}

	return tl[i-1], true
}

// Chords returns the distinct non-Unclear labels in order of appearance.
func (tl Timeline) Chords() []string {
	seen := make(map[string]bool, len(tl))

	var out []string

	for _, s := range tl {
		if s.Chord == Unclear || seen[s.Chord] {
			continue
		}

		seen[s.Chord] = true
		out = append(out, s.Chord)
	}

	return out
}

// Validate checks the timeline invariants.
func (tl Timeline) Validate() error {
	for i, s := range tl {
		if s.Chord == "" {
			return fmt.Errorf("%w: entry %d has an empty label", ErrInvalidTimeline, i)
		}

		if math.IsNaN(s.Time) || math.IsInf(s.Time, 0) || s.Time < 0 {
			return fmt.Errorf("%w: entry %d has time %v", ErrInvalidTimeline, i, s.Time)
		}

		if !(s.Confidence >= 0 && s.Confidence <= 1) {
			return fmt.Errorf("%w: entry %d has confidence %v", ErrInvalidTimeline, i, s.Confidence)
		}

		if i == 0 {
			continue
		}

		prev := tl[i-1]
		if s.Time < prev.Time {
			return fmt.Errorf("%w: entry %d goes back in time", ErrInvalidTimeline, i)
		}

		if s.Chord == prev.Chord {
			return fmt.Errorf("%w: entries %d and %d repeat %q", ErrInvalidTimeline, i-1, i, s.Chord)
		}
	}

	return nil
}

// MarshalJSON encodes the timeline as an array; a nil timeline is [].
func (tl Timeline) MarshalJSON() ([]byte, error) {
	if tl == nil {
		return []byte("[]"), nil
	}

	return json.Marshal([]Snapshot(tl))
}

// UnmarshalJSON decodes and validates a timeline.
func (tl *Timeline) UnmarshalJSON(b []byte) error {
	var raw []Snapshot
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	decoded := Timeline(raw)
	if err := decoded.Validate(); err != nil {
		return err
	}

	if decoded == nil {
		decoded = Timeline{}
	}

	*tl = decoded

	return nil
}
