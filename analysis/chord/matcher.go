package chord

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-stemfx/dsp/core"
	"github.com/cwbudde/algo-vecmath"
)

const (
	cosineWeight    = 0.7
	stabilityWeight = 0.3
	bassRootBonus   = 0.25
	bassFifthBonus  = 0.125

	clarityReference = 0.55
	clarityPenalty   = 2.0
)

// Candidate is the best (root, template) pair of one frame.
type Candidate struct {
	Root       int
	Quality    Quality
	Score      float64
	Confidence float64
}

// Label returns the chord label of the candidate, e.g. "Am".
func (c Candidate) Label() string { return Label(c.Root, c.Quality) }

// Decision is the outcome of matching one frame.
type Decision struct {
	// Label is the candidate's label, or Unclear when the candidate's
	// confidence is below Threshold or the frame is silent.
	Label      string
	Confidence float64
	Candidate  Candidate
	Threshold  float64
}

// Accepted reports whether the frame resolved to a chord.
func (d Decision) Accepted() bool { return d.Label != Unclear }

type maskEntry struct {
	mask  [12]float64
	norm  float64
	fifth int
}

// Matcher scores spectra against every root of the template catalog.
// A Matcher is immutable after construction and safe for concurrent use.
type Matcher struct {
	minConfidence float64
	masks         [12][len(catalog)]maskEntry
}

// NewMatcher creates a matcher rejecting candidates whose confidence falls
// below minConfidence, raised for low-clarity frames.
func NewMatcher(minConfidence float64) (*Matcher, error) {
	if minConfidence < 0 || minConfidence > 1 || math.IsNaN(minConfidence) {
		return nil, fmt.Errorf("chord: minimum confidence must be in [0, 1]: %v", minConfidence)
	}

	m := &Matcher{minConfidence: minConfidence}

	for root := range 12 {
		for ti, t := range catalog {
			mask := t.mask(root)

			var sq float64
			for _, w := range mask {
				sq += w * w
			}

			m.masks[root][ti] = maskEntry{
				mask:  mask,
				norm:  math.Sqrt(sq),
				fifth: (root + t.Fifth) % 12,
			}
		}
	}

	return m, nil
}

// MinimumConfidence returns the base rejection threshold.
func (m *Matcher) MinimumConfidence() float64 { return m.minConfidence }

// Threshold returns the rejection threshold for a frame of the given clarity.
func (m *Matcher) Threshold(clarity float64) float64 {
	return m.minConfidence + clarityPenalty*max(0, clarityReference-clarity)
}

// Best returns the highest scoring candidate. Roots are visited in
// ascending order and templates in catalog order; the first maximum wins.
// ok is false for a silent spectrum.
func (m *Matcher) Best(s Spectrum) (best Candidate, ok bool) {
	e := &s.PitchClass

	norm := vecmath.DotProduct(e[:], e[:])
	peak := vecmath.MaxAbs(e[:])

	if norm <= 0 || peak <= 0 {
		return Candidate{}, false
	}

	norm = math.Sqrt(norm)

	bassAvg := vecmath.Sum(s.Bass[:]) / 12

	bestScore := math.Inf(-1)

	for root := range 12 {
		for ti := range catalog {
			entry := &m.masks[root][ti]

			var dot, unmasked float64
			for i, w := range entry.mask {
				if w == 0 {
					unmasked += e[i]
					continue
				}

				dot += w * e[i]
			}

			cosine := dot / (entry.norm * norm)
			coverage := dot
			purity := 1 - unmasked
			rootFifth := (e[root] + 0.5*e[entry.fifth]) / (1.5 * peak)
			stability := 0.7*rootFifth + 0.3*coverage

			score := (cosineWeight*cosine+stabilityWeight*stability)*purity*catalog[ti].Weight +
				bassRootBonus*max(0, s.Bass[root]-bassAvg) +
				bassFifthBonus*max(0, s.Bass[entry.fifth]-bassAvg)

			if score > bestScore {
				bestScore = score
				best = Candidate{
					Root:       root,
					Quality:    Quality(ti),
					Score:      score,
					Confidence: core.Clamp(0.6*cosine+0.4*stability, 0, 1),
				}
			}
		}
	}

	return best, true
}

// Match resolves a spectrum to a label. Silent spectra yield Unclear with
// confidence 0; rejected candidates yield Unclear with the candidate's
// confidence kept for diagnostics.
func (m *Matcher) Match(s Spectrum) Decision {
	threshold := m.Threshold(s.Clarity)

	best, ok := m.Best(s)
	if !ok {
		return Decision{Label: Unclear, Threshold: threshold}
	}

	d := Decision{
		Label:      best.Label(),
		Confidence: best.Confidence,
		Candidate:  best,
		Threshold:  threshold,
	}
	if best.Confidence < threshold {
		d.Label = Unclear
	}

	return d
}
