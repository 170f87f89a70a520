package chord

import "errors"

var (
	// ErrNoAudio is returned when there are no channels or no samples.
	ErrNoAudio = errors.New("chord: no audio")
	// ErrInvalidSampleRate is returned for a non-positive or non-finite rate.
	ErrInvalidSampleRate = errors.New("chord: invalid sample rate")
	// ErrChannelMismatch is returned for ragged channels or an interleaved
	// buffer that is not a multiple of the channel count.
	ErrChannelMismatch = errors.New("chord: channel length mismatch")
	// ErrInvalidTimeline is returned by Timeline.Validate.
	ErrInvalidTimeline = errors.New("chord: invalid timeline")
)
