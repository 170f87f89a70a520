package conv

// Stream adapts a Partitioned convolver to arbitrary block lengths.
//
// Input is collected until a full partition block is available; output is
// delayed by exactly BlockSize samples. Process does not allocate.
type Stream struct {
	conv *Partitioned

	inBuf  []float64
	outBuf []float64
	pos    int
}

// NewStream builds a streaming convolver for kernel with the given
// partition block size (a power of two).
func NewStream(kernel []float64, blockSize int) (*Stream, error) {
	c, err := NewPartitioned(kernel, blockSize)
	if err != nil {
		return nil, err
	}

	return &Stream{
		conv:   c,
		inBuf:  make([]float64, blockSize),
		outBuf: make([]float64, blockSize),
	}, nil
}

// Latency returns the delay in samples between input and output.
func (s *Stream) Latency() int { return s.conv.BlockSize() }

// KernelLen returns the kernel length.
func (s *Stream) KernelLen() int { return s.conv.KernelLen() }

// Process convolves src into dst sample-for-sample. dst and src must have the
// same length and may alias.
func (s *Stream) Process(dst, src []float64) error {
	if len(dst) != len(src) {
		return ErrLengthMismatch
	}

	for i, x := range src {
		y := s.outBuf[s.pos]
		s.inBuf[s.pos] = x
		dst[i] = y

		s.pos++
		if s.pos == len(s.inBuf) {
			s.pos = 0
			if err := s.conv.ProcessBlockTo(s.outBuf, s.inBuf); err != nil {
				return err
			}
		}
	}

	return nil
}

// Reset clears all buffered input and output.
func (s *Stream) Reset() {
	s.conv.Reset()
	clear(s.inBuf)
	clear(s.outBuf)
	s.pos = 0
}
