// Package store persists chord timelines per track and analysis settings.
//
// Entries are addressed by a track id and a key that fingerprints the
// analysis options (see chord.Options.Fingerprint), so changing any option
// that affects the result never returns a stale timeline.
package store

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/cwbudde/algo-stemfx/analysis/chord"
)

var (
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("store: closed")
	// ErrEmptyID is returned for an empty track id.
	ErrEmptyID = errors.New("store: empty track id")
)

// Store is a timeline cache.
type Store interface {
	// Get returns the timeline stored for trackID under key.
	Get(ctx context.Context, trackID, key string) (chord.Timeline, bool, error)
	// Put stores or replaces a timeline.
	Put(ctx context.Context, trackID, key string, tl chord.Timeline) error
	// Delete removes every entry of trackID.
	Delete(ctx context.Context, trackID string) error
	// Missing returns the ids in trackIDs that have no entry at all, in
	// input order.
	Missing(ctx context.Context, trackIDs []string) ([]string, error)
	Close() error
}

// Memory is an in-process Store.
type Memory struct {
	mu     sync.RWMutex
	tracks map[string]map[string]chord.Timeline
	closed bool
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{tracks: make(map[string]map[string]chord.Timeline)}
}

func (m *Memory) Get(ctx context.Context, trackID, key string) (chord.Timeline, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, false, ErrClosed
	}

	tl, ok := m.tracks[trackID][key]
	if !ok {
		return nil, false, nil
	}

	return slices.Clone(tl), true, nil
}

func (m *Memory) Put(ctx context.Context, trackID, key string, tl chord.Timeline) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if trackID == "" {
		return ErrEmptyID
	}

	if err := tl.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	entries := m.tracks[trackID]
	if entries == nil {
		entries = make(map[string]chord.Timeline)
		m.tracks[trackID] = entries
	}

	stored := slices.Clone(tl)
	if stored == nil {
		stored = chord.Timeline{}
	}

	entries[key] = stored

	return nil
}

func (m *Memory) Delete(ctx context.Context, trackID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	delete(m.tracks, trackID)

	return nil
}

func (m *Memory) Missing(ctx context.Context, trackIDs []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}

	var out []string

	for _, id := range trackIDs {
		if len(m.tracks[id]) == 0 {
			out = append(out, id)
		}
	}

	return out, nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.tracks = nil

	return nil
}
