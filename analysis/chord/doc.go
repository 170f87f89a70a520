// Package chord infers a chord timeline from decoded audio.
//
// The pipeline frames a mono downmix, gates silent frames, folds a bank of
// Goertzel resonators into 12-bin pitch-class and bass energy vectors
// (Estimator), scores every root against a fixed template catalog
// (Matcher) and removes frame-to-frame flicker with a majority vote
// (Smooth). Analyze runs the whole pass and returns a Timeline.
package chord
