package conv

import (
	"fmt"

	algofft "github.com/cwbudde/algo-fft"
)

// Partitioned is a uniformly partitioned overlap-save convolver.
//
// Each call to ProcessBlockTo consumes exactly BlockSize input samples and
// produces the matching BlockSize output samples with no additional latency.
// Processing does not allocate.
type Partitioned struct {
	blockSize int
	fftSize   int
	kernelLen int

	plan *algofft.Plan[complex128]

	// partitions[k] is the spectrum of kernel block k, zero-padded to fftSize.
	partitions [][]complex128
	// fdl is a ring of input spectra; fdl[fdlPos] is the newest.
	fdl    [][]complex128
	fdlPos int

	// history holds the previous and current input block.
	history []float64
	timeBuf []complex128
	accum   []complex128
}

// NewPartitioned builds a convolver for kernel. blockSize must be a power of
// two; the FFT size is twice the block size.
func NewPartitioned(kernel []float64, blockSize int) (*Partitioned, error) {
	if len(kernel) == 0 {
		return nil, ErrEmptyKernel
	}

	if !isPowerOf2(blockSize) {
		return nil, fmt.Errorf("%w: %d is not a power of two", ErrInvalidBlockSize, blockSize)
	}

	fftSize := 2 * blockSize

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT plan: %w", err)
	}

	count := (len(kernel) + blockSize - 1) / blockSize

	p := &Partitioned{
		blockSize:  blockSize,
		fftSize:    fftSize,
		kernelLen:  len(kernel),
		plan:       plan,
		partitions: make([][]complex128, count),
		fdl:        make([][]complex128, count),
		history:    make([]float64, fftSize),
		timeBuf:    make([]complex128, fftSize),
		accum:      make([]complex128, fftSize),
	}

	for k := range count {
		clear(p.timeBuf)

		start := k * blockSize
		end := min(start+blockSize, len(kernel))

		for i, v := range kernel[start:end] {
			p.timeBuf[i] = complex(v, 0)
		}

		p.partitions[k] = make([]complex128, fftSize)
		if err := plan.Forward(p.partitions[k], p.timeBuf); err != nil {
			return nil, fmt.Errorf("conv: kernel partition %d FFT: %w", k, err)
		}

		p.fdl[k] = make([]complex128, fftSize)
	}

	return p, nil
}

// BlockSize returns the number of samples consumed per call.
func (p *Partitioned) BlockSize() int { return p.blockSize }

// FFTSize returns the internal FFT size.
func (p *Partitioned) FFTSize() int { return p.fftSize }

// KernelLen returns the kernel length.
func (p *Partitioned) KernelLen() int { return p.kernelLen }

// Partitions returns the number of kernel partitions.
func (p *Partitioned) Partitions() int { return len(p.partitions) }

// ProcessBlockTo convolves one input block into output. Both slices must
// have length BlockSize. output may alias input.
func (p *Partitioned) ProcessBlockTo(output, input []float64) error {
	if len(input) != p.blockSize || len(output) != p.blockSize {
		return fmt.Errorf("%w: got in=%d out=%d, want %d",
			ErrLengthMismatch, len(input), len(output), p.blockSize)
	}

	b := p.blockSize

	// Slide: [previous | current].
	copy(p.history[:b], p.history[b:])
	copy(p.history[b:], input)

	for i, v := range p.history {
		p.timeBuf[i] = complex(v, 0)
	}

	p.fdlPos--
	if p.fdlPos < 0 {
		p.fdlPos = len(p.fdl) - 1
	}

	if err := p.plan.Forward(p.fdl[p.fdlPos], p.timeBuf); err != nil {
		return fmt.Errorf("conv: input FFT: %w", err)
	}

	clear(p.accum)

	slot := p.fdlPos
	for _, h := range p.partitions {
		x := p.fdl[slot]
		for i := range p.accum {
			p.accum[i] += x[i] * h[i]
		}

		slot++
		if slot == len(p.fdl) {
			slot = 0
		}
	}

	if err := p.plan.Inverse(p.timeBuf, p.accum); err != nil {
		return fmt.Errorf("conv: output IFFT: %w", err)
	}

	// The first half holds circular wrap-around; keep the second.
	for i := range output {
		output[i] = real(p.timeBuf[b+i])
	}

	return nil
}

// Reset clears the input history and the frequency-domain delay line.
func (p *Partitioned) Reset() {
	clear(p.history)

	for _, x := range p.fdl {
		clear(x)
	}

	p.fdlPos = 0
}
