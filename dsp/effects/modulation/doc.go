// Package modulation provides LFO-driven building blocks.
//
// Included processors:
//   - LFO: sine oscillator with a settable rate.
//   - Phaser: allpass cascade with one shared feedback path, 100% wet.
//   - ModDelay: LFO-modulated fractional delay with feedback, covering
//     echo, chorus and flange settings.
//
// Processors expose validating option constructors for setup and clamping
// SetParams methods for use on the audio path.
package modulation
