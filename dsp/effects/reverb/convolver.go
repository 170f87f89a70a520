package reverb

import (
	"fmt"

	"github.com/cwbudde/algo-stemfx/dsp/conv"
)

// DefaultPartitionSize is the FFT partition block size used by NewConvolver.
const DefaultPartitionSize = 256

// Convolver applies a stereo impulse to a mono input.
//
// Construction allocates and performs the kernel FFTs; Process does not
// allocate. Output is delayed by Latency samples.
type Convolver struct {
	left  *conv.Stream
	right *conv.Stream
	imp   Impulse
}

// NewConvolver builds a convolver for imp. partitionSize must be a power of
// two; 0 selects DefaultPartitionSize.
func NewConvolver(imp Impulse, partitionSize int) (*Convolver, error) {
	if err := imp.validate(); err != nil {
		return nil, err
	}

	if partitionSize == 0 {
		partitionSize = DefaultPartitionSize
	}

	left, err := conv.NewStream(imp.Left, partitionSize)
	if err != nil {
		return nil, fmt.Errorf("reverb: left channel: %w", err)
	}

	right, err := conv.NewStream(imp.Right, partitionSize)
	if err != nil {
		return nil, fmt.Errorf("reverb: right channel: %w", err)
	}

	return &Convolver{left: left, right: right, imp: imp}, nil
}

// Impulse returns the impulse the convolver was built from.
func (c *Convolver) Impulse() Impulse { return c.imp }

// Latency returns the output delay in samples.
func (c *Convolver) Latency() int { return c.left.Latency() }

// Process convolves in into outL and outR. All slices must have the same
// length; in may alias outL but not outR.
func (c *Convolver) Process(in, outL, outR []float64) error {
	if len(outL) != len(in) || len(outR) != len(in) {
		return conv.ErrLengthMismatch
	}

	// Right first: when in aliases outL, the left pass overwrites it.
	if err := c.right.Process(outR, in); err != nil {
		return err
	}

	return c.left.Process(outL, in)
}

// Reset clears convolution state.
func (c *Convolver) Reset() {
	c.left.Reset()
	c.right.Reset()
}
