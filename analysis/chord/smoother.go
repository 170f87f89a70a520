package chord

import "math"

// Frame is one raw per-frame decision fed to Smooth.
type Frame struct {
	Time       float64
	Label      string
	Confidence float64
}

// Smooth turns per-frame labels into a timeline.
//
// Each frame looks at a window of 2*stableFrameCount-1 frames centred on it
// (clipped at the edges) and takes the most frequent non-Unclear label;
// ties go to the label seen first in the window. The label is accepted only
// if it occurs at least stableFrameCount times, otherwise the frame is
// Unclear. A snapshot is emitted for the first frame and on every label
// change. Its confidence is the mean confidence of the window frames that
// voted for the label, 0 for Unclear. stableFrameCount <= 1 disables
// smoothing.
func Smooth(frames []Frame, stableFrameCount int) Timeline {
	if len(frames) == 0 {
		return Timeline{}
	}

	stable := max(stableFrameCount, 1)
	half := stable - 1

	var (
		out    Timeline
		labels []string
		counts []int
		confs  []float64
	)

	for i := range frames {
		lo := max(0, i-half)
		hi := min(len(frames)-1, i+half)

		labels, counts, confs = labels[:0], counts[:0], confs[:0]

		for j := lo; j <= hi; j++ {
			f := frames[j]
			if f.Label == Unclear || f.Label == "" {
				continue
			}

			k := indexOf(labels, f.Label)
			if k < 0 {
				labels = append(labels, f.Label)
				counts = append(counts, 0)
				confs = append(confs, 0)
				k = len(labels) - 1
			}

			counts[k]++
			confs[k] += f.Confidence
		}

		snap := Snapshot{Time: frames[i].Time, Chord: Unclear}

		best := -1
		for k, c := range counts {
			if best < 0 || c > counts[best] {
				best = k
			}
		}

		if best >= 0 && counts[best] >= stable {
			snap.Chord = labels[best]
			snap.Confidence = clampUnit(confs[best] / float64(counts[best]))
		}

		if len(out) == 0 || out[len(out)-1].Chord != snap.Chord {
			out = append(out, snap)
		}
	}

	return out
}

func indexOf(labels []string, label string) int {
	for i, l := range labels {
		if l == label {
			return i
		}
	}

	return -1
}

func clampUnit(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}

	return min(v, 1)
}
