// Package wavio reads and writes WAV files as per-channel float64 slices.
package wavio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// ErrInvalidFile is returned for input that is not a readable WAV stream.
var ErrInvalidFile = errors.New("wavio: invalid wav file")

// Audio is decoded PCM audio, one slice per channel.
type Audio struct {
	Channels   [][]float64
	SampleRate int
}

// Frames returns the number of samples per channel.
func (a *Audio) Frames() int {
	if len(a.Channels) == 0 {
		return 0
	}

	return len(a.Channels[0])
}

// Duration returns the length in seconds.
func (a *Audio) Duration() float64 {
	if a.SampleRate <= 0 {
		return 0
	}

	return float64(a.Frames()) / float64(a.SampleRate)
}

// Decode reads a complete WAV stream.
func Decode(r io.ReadSeeker) (*Audio, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidFile
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, err
	}

	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, fmt.Errorf("%w: missing format", ErrInvalidFile)
	}

	numCh := buf.Format.NumChannels
	if buf.Format.SampleRate <= 0 {
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidFile, buf.Format.SampleRate)
	}

	frames := len(buf.Data) / numCh
	out := &Audio{
		Channels:   make([][]float64, numCh),
		SampleRate: buf.Format.SampleRate,
	}

	for c := range out.Channels {
		ch := make([]float64, frames)
		for i := range ch {
			ch[i] = float64(buf.Data[i*numCh+c])
		}

		out.Channels[c] = ch
	}

	return out, nil
}

// Read decodes the WAV file at path.
func Read(path string) (*Audio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	a, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return a, nil
}

// Encode writes a as 16-bit PCM.
func Encode(w io.WriteSeeker, a *Audio) error {
	numCh := len(a.Channels)
	if numCh == 0 {
		return fmt.Errorf("%w: no channels", ErrInvalidFile)
	}

	if a.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalidFile, a.SampleRate)
	}

	frames := a.Frames()
	for c, ch := range a.Channels {
		if len(ch) != frames {
			return fmt.Errorf("%w: channel %d has %d samples, want %d", ErrInvalidFile, c, len(ch), frames)
		}
	}

	data := make([]float32, frames*numCh)
	for c, ch := range a.Channels {
		for i, x := range ch {
			data[i*numCh+c] = float32(max(-1, min(1, x)))
		}
	}

	enc := wav.NewEncoder(w, a.SampleRate, 16, numCh, 1)

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  a.SampleRate,
			NumChannels: numCh,
		},
		Data:           data,
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		return err
	}

	return enc.Close()
}

// Write encodes a to path, creating parent directories.
func Write(path string, a *Audio) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err := Encode(f, a); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
