// Package session keeps the per-track effect bundles and chord timelines of
// a multi-track player, keyed by stable track ids.
//
// Tracks are loaded and unloaded explicitly. Unload tears the track's
// bundle down; nothing is evicted implicitly.
package session

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cwbudde/algo-stemfx/analysis/chord"
	"github.com/cwbudde/algo-stemfx/dsp/effectchain"
)

var (
	// ErrUnknownTrack is returned for a track id that is not loaded.
	ErrUnknownTrack = errors.New("session: unknown track")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session: closed")
	// ErrEmptyID is returned for an empty track id.
	ErrEmptyID = errors.New("session: empty track id")
)

type track struct {
	bundle   *effectchain.Bundle
	timeline chord.Timeline
	loaded   time.Time
}

// Registry owns the tracks of one session. It is safe for concurrent use
// from control goroutines; audio goroutines call the returned bundle's
// Process directly.
type Registry struct {
	mu      sync.RWMutex
	tracks  map[string]*track
	closed  bool
	bundles []effectchain.BundleOption
	log     logrus.FieldLogger
}

// Option configures a Registry.
type Option func(*Registry) error

// WithBundleOptions passes options to every bundle the registry creates.
func WithBundleOptions(opts ...effectchain.BundleOption) Option {
	return func(r *Registry) error {
		r.bundles = append(r.bundles, opts...)
		return nil
	}
}

// WithLogger sets the logger; the default is the logrus standard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Registry) error {
		if log == nil {
			return errors.New("session: nil logger")
		}

		r.log = log

		return nil
	}
}

// New creates an empty registry.
func New(opts ...Option) (*Registry, error) {
	r := &Registry{
		tracks: make(map[string]*track),
		log:    logrus.StandardLogger(),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Load returns the bundle of trackID, creating it at sampleRate if the track
// is new. Loading a known track at a different rate replaces its bundle and
// keeps its timeline.
func (r *Registry) Load(trackID string, sampleRate float64) (*effectchain.Bundle, error) {
	if trackID == "" {
		return nil, ErrEmptyID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}

	t, ok := r.tracks[trackID]
	if ok && t.bundle.SampleRate() == sampleRate {
		return t.bundle, nil
	}

	b, err := effectchain.NewBundle(sampleRate, r.bundles...)
	if err != nil {
		return nil, fmt.Errorf("session: load %s: %w", trackID, err)
	}

	fields := logrus.Fields{"track": trackID, "sample_rate": sampleRate}

	if ok {
		if err := t.bundle.Close(); err != nil {
			r.log.WithFields(fields).WithError(err).Warn("teardown of replaced bundle failed")
		}

		t.bundle = b
		t.loaded = time.Now()

		r.log.WithFields(fields).Info("track reloaded")

		return b, nil
	}

	r.tracks[trackID] = &track{bundle: b, loaded: time.Now()}
	r.log.WithFields(fields).Info("track loaded")

	return b, nil
}

// Apply selects an effect and control value for trackID.
func (r *Registry) Apply(trackID string, effect effectchain.EffectType, value float64) error {
	b, ok := r.Bundle(trackID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTrack, trackID)
	}

	if err := b.ApplyEffect(effect, value); err != nil {
		return fmt.Errorf("session: apply %s to %s: %w", effect, trackID, err)
	}

	r.log.WithFields(logrus.Fields{
		"track":  trackID,
		"effect": effect.String(),
		"value":  value,
	}).Debug("effect applied")

	return nil
}

// Bundle returns the bundle of a loaded track.
func (r *Registry) Bundle(trackID string) (*effectchain.Bundle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tracks[trackID]
	if !ok {
		return nil, false
	}

	return t.bundle, true
}

// SetTimeline attaches a validated chord timeline to a loaded track.
func (r *Registry) SetTimeline(trackID string, tl chord.Timeline) error {
	if err := tl.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tracks[trackID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTrack, trackID)
	}

	t.timeline = slices.Clone(tl)

	r.log.WithFields(logrus.Fields{
		"track":   trackID,
		"entries": len(tl),
	}).Debug("timeline set")

	return nil
}

// Timeline returns a copy of the timeline of trackID.
func (r *Registry) Timeline(trackID string) (chord.Timeline, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tracks[trackID]
	if !ok {
		return nil, false
	}

	return slices.Clone(t.timeline), true
}

// ChordAt returns the chord of trackID sounding at t seconds.
func (r *Registry) ChordAt(trackID string, t float64) (chord.Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tr, ok := r.tracks[trackID]
	if !ok {
		return chord.Snapshot{}, false
	}

	return tr.timeline.At(t)
}

// Tracks returns the loaded track ids in sorted order.
func (r *Registry) Tracks() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.tracks))
	for id := range r.tracks {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}

// Unload removes trackID and tears its bundle down.
func (r *Registry) Unload(trackID string) error {
	r.mu.Lock()
	t, ok := r.tracks[trackID]
	delete(r.tracks, trackID)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTrack, trackID)
	}

	err := t.bundle.Close()

	entry := r.log.WithFields(logrus.Fields{
		"track":  trackID,
		"uptime": time.Since(t.loaded),
	})
	if err != nil {
		entry.WithError(err).Warn("track unloaded with teardown errors")
	} else {
		entry.Info("track unloaded")
	}

	return err
}

// Close unloads every track. Teardown errors are joined.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}

	r.closed = true
	tracks := r.tracks
	r.tracks = make(map[string]*track)
	r.mu.Unlock()

	ids := make([]string, 0, len(tracks))
	for id := range tracks {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	var errs []error

	for _, id := range ids {
		if err := tracks[id].bundle.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
	}

	r.log.WithFields(logrus.Fields{"tracks": len(ids)}).Info("session closed")

	return errors.Join(errs...)
}
