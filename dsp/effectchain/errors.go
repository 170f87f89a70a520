package effectchain

import "errors"

var (
	// ErrUnknownEffect is returned when an effect name is not in the catalog.
	ErrUnknownEffect = errors.New("effectchain: unknown effect type")
	// ErrInvalidRoute is returned for out-of-range routes or a routing whose
	// wet branch is not a single path.
	ErrInvalidRoute = errors.New("effectchain: invalid route")
	// ErrDuplicateEdge is returned when a routing connects the same pair twice.
	ErrDuplicateEdge = errors.New("effectchain: duplicate edge")
	// ErrCycle is returned when a routing contains a cycle.
	ErrCycle = errors.New("effectchain: graph contains cycle")
	// ErrClosed is returned by a Bundle after Close.
	ErrClosed = errors.New("effectchain: bundle closed")
	// ErrLengthMismatch is returned when Process buffers differ in length.
	ErrLengthMismatch = errors.New("effectchain: buffer length mismatch")
)
