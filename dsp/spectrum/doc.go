// Package spectrum provides narrowband spectral probes.
//
// The analyzers here evaluate individual DFT terms at arbitrary frequencies
// rather than on an FFT grid, which suits pitch-oriented analysis where the
// frequencies of interest are logarithmically spaced.
package spectrum
