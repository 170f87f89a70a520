package chord

import (
	"fmt"
	"slices"
)

// Unclear is the label of frames that match no chord confidently.
const Unclear = "Unclear"

// NoteNames are the pitch-class names used in chord labels, indexed from C.
var NoteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// Quality is a chord quality of the template catalog.
type Quality int

const (
	QualityMajor Quality = iota
	QualityMinor
	QualityPower
	QualitySus2
	QualitySus4
	QualityDominant7
	QualityMajor7
	QualityMinor7
	QualityMajor9
	QualityMinor9
	QualityDiminished
	QualityAugmented
)

var qualityNames = [...]string{
	"major", "minor", "power", "sus2", "sus4", "dominant7",
	"major7", "minor7", "major9", "minor9", "diminished", "augmented",
}

func (q Quality) String() string {
	if q < 0 || int(q) >= len(qualityNames) {
		return fmt.Sprintf("Quality(%d)", int(q))
	}

	return qualityNames[q]
}

// Template is an abstract chord shape. Intervals are semitones above the
// root; the root itself is implied.
type Template struct {
	Quality    Quality
	Suffix     string
	Core       []int
	Extensions []int
	Fifth      int
	Weight     float64
}

// Mask weights of the root, core and extension tones.
const (
	rootMaskWeight      = 1.0
	coreMaskWeight      = 0.8
	extensionMaskWeight = 0.5
)

// catalog order is the tie-break order of the matcher.
var catalog = [...]Template{
	{Quality: QualityMajor, Suffix: "", Core: []int{4, 7}, Fifth: 7, Weight: 1.00},
	{Quality: QualityMinor, Suffix: "m", Core: []int{3, 7}, Fifth: 7, Weight: 1.00},
	{Quality: QualityPower, Suffix: "5", Core: []int{7}, Fifth: 7, Weight: 0.85},
	{Quality: QualitySus2, Suffix: "sus2", Core: []int{2, 7}, Fifth: 7, Weight: 0.80},
	{Quality: QualitySus4, Suffix: "sus4", Core: []int{5, 7}, Fifth: 7, Weight: 0.80},
	{Quality: QualityDominant7, Suffix: "7", Core: []int{4, 7}, Extensions: []int{10}, Fifth: 7, Weight: 0.90},
	{Quality: QualityMajor7, Suffix: "maj7", Core: []int{4, 7}, Extensions: []int{11}, Fifth: 7, Weight: 0.90},
	{Quality: QualityMinor7, Suffix: "m7", Core: []int{3, 7}, Extensions: []int{10}, Fifth: 7, Weight: 0.90},
	{Quality: QualityMajor9, Suffix: "maj9", Core: []int{4, 7}, Extensions: []int{11, 2}, Fifth: 7, Weight: 0.85},
	{Quality: QualityMinor9, Suffix: "m9", Core: []int{3, 7}, Extensions: []int{10, 2}, Fifth: 7, Weight: 0.85},
	{Quality: QualityDiminished, Suffix: "dim", Core: []int{3, 6}, Fifth: 6, Weight: 0.80},
	{Quality: QualityAugmented, Suffix: "aug", Core: []int{4, 8}, Fifth: 8, Weight: 0.80},
}

// Templates returns a copy of the catalog in tie-break order.
func Templates() []Template {
	out := make([]Template, len(catalog))
	for i, t := range catalog {
		t.Core = slices.Clone(t.Core)
		t.Extensions = slices.Clone(t.Extensions)
		out[i] = t
	}

	return out
}

// Label formats a root pitch class and quality as a chord label, e.g. "F#m7".
func Label(root int, q Quality) string {
	if q < 0 || int(q) >= len(catalog) {
		return Unclear
	}

	return NoteNames[((root%12)+12)%12] + catalog[q].Suffix
}

// mask returns the weighted pitch-class mask of t rooted at root.
func (t Template) mask(root int) [12]float64 {
	var m [12]float64

	m[root] = rootMaskWeight
	for _, iv := range t.Core {
		m[(root+iv)%12] = coreMaskWeight
	}

	for _, iv := range t.Extensions {
		m[(root+iv)%12] = extensionMaskWeight
	}

	return m
}
