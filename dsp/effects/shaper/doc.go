// Package shaper provides curve-lookup waveshaping.
//
// A curve maps the input range [-1, 1] onto output values sampled at evenly
// spaced points. Curves are built off the audio path with [SoftClipCurve]
// and handed to a [Waveshaper], which only reads them.
package shaper
