// Package pitch provides a real-time granular pitch shifter.
//
// [GranularShifter] re-reads buffered input at a rate set by the pitch ratio
// and overlap-adds Hann-windowed grains at a fixed hop, so pitch changes
// while duration does not. It is built for a fixed-block audio callback:
// all buffers are sized at construction, ProcessBlock never allocates or
// locks, and SetRatio may be called from any goroutine.
package pitch
