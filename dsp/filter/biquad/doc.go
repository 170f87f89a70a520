// Package biquad provides second-order IIR filter runtime primitives.
//
// A [Section] implements Direct Form II Transposed processing for a single
// second-order section defined by [Coefficients]. Coefficients can be swapped
// while audio is running; the delay state is kept so parameter sweeps do not
// click. Sections cascade via [Chain].
//
// This package provides the processing runtime only. Coefficient design
// lives in dsp/filter/design.
package biquad
