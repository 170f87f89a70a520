package biquad_test

import (
	"fmt"

	"github.com/cwbudde/algo-stemfx/dsp/filter/biquad"
)

func ExampleSection_ProcessSample() {
	// One-pole lowpass expressed as a biquad.
	s := biquad.NewSection(biquad.Coefficients{B0: 1, A1: -0.5})

	for i := range 4 {
		var x float64
		if i == 0 {
			x = 1
		}

		fmt.Printf("%.3f\n", s.ProcessSample(x))
	}
	// Output:
	// 1.000
	// 0.500
	// 0.250
	// 0.125
}
