// Package design provides RBJ-cookbook biquad coefficient designers.
//
// The functions produce coefficients consumable by dsp/filter/biquad. A
// [Spec] bundles a filter kind with its parameters so callers can carry a
// complete filter description as plain data and design it later, e.g. on
// the audio thread when a new parameter snapshot is adopted.
package design
