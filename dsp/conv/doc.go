// Package conv provides streaming FFT convolution for long impulse responses.
//
// [Partitioned] implements uniformly partitioned overlap-save convolution:
// the kernel is split into blocks of the processing size, each block's
// spectrum is computed once, and every input block is convolved against all
// partitions through a frequency-domain delay line. Processing a block costs
// one forward and one inverse FFT regardless of kernel length.
//
// [Stream] wraps a Partitioned convolver with input and output FIFOs so
// callers can push blocks of any length, at the cost of one block of latency.
//
// [Direct] is the O(N*M) time-domain reference.
package conv
