// Package reverb provides procedural convolution reverb.
//
// [NoiseBurst] synthesizes a decorrelated stereo impulse response from
// exponentially decaying noise. [Convolver] runs a mono signal through such
// an impulse with partitioned FFT convolution and produces stereo output.
package reverb
