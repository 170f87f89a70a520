// Package interp provides interpolation primitives used by delay-based and
// grain-based DSP blocks.
//
// Available methods:
//
//   - [Linear2]:  2-point linear interpolation
//   - [Hermite4]: 4-point cubic Hermite
//
// [RingLinear] and [RingHermite] read a circular buffer at a fractional,
// possibly negative, position. The [Mode] enum selects between them.
package interp
