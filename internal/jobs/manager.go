// Package jobs runs requests on a fixed pool of stateful workers.
//
// Every worker is built once by a factory and then serves requests one at a
// time, so expensive per-worker state (estimators, buffers, connections) is
// reused across jobs without being shared between goroutines.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrClosed is returned by Run after Close.
var ErrClosed = errors.New("jobs: manager closed")

// Worker handles one request.
type Worker[T, U any] func(ctx context.Context, req T) (U, error)

// Factory builds the worker of one pool slot.
type Factory[T, U any] func() (Worker[T, U], error)

type result[U any] struct {
	value U
	err   error
}

type job[T, U any] struct {
	id    string
	ctx   context.Context
	req   T
	reply chan result[U]
}

// Manager owns the worker goroutines.
type Manager[T, U any] struct {
	jobs chan job[T, U]
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
	log  logrus.FieldLogger
}

// Option configures a Manager.
type Option func(*config) error

type config struct {
	log logrus.FieldLogger
}

// WithLogger sets the logger; the default is the logrus standard logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *config) error {
		if log == nil {
			return errors.New("jobs: nil logger")
		}

		c.log = log

		return nil
	}
}

// New starts n workers built by factory. Factories run one at a time. If
// any factory fails, the workers already started are stopped and the
// factory errors are returned.
func New[T, U any](factory Factory[T, U], n int, opts ...Option) (*Manager[T, U], error) {
	if factory == nil {
		return nil, errors.New("jobs: nil factory")
	}

	if n <= 0 {
		return nil, fmt.Errorf("jobs: worker count must be > 0: %d", n)
	}

	cfg := config{log: logrus.StandardLogger()}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	m := &Manager[T, U]{
		jobs: make(chan job[T, U]),
		done: make(chan struct{}),
		log:  cfg.log,
	}

	var (
		initMu sync.Mutex
		errs   = make(chan error, n)
	)

	for slot := range n {
		m.wg.Add(1)

		go func() {
			defer m.wg.Done()

			initMu.Lock()
			w, err := factory()
			initMu.Unlock()

			if err != nil {
				errs <- fmt.Errorf("jobs: worker %d: %w", slot, err)
				return
			}

			errs <- nil

			m.serve(slot, w)
		}()
	}

	var failed []error

	for range n {
		if err := <-errs; err != nil {
			failed = append(failed, err)
		}
	}

	if len(failed) > 0 {
		m.Close()
		return nil, errors.Join(failed...)
	}

	m.log.WithFields(logrus.Fields{"workers": n}).Debug("worker pool started")

	return m, nil
}

func (m *Manager[T, U]) serve(slot int, w Worker[T, U]) {
	for {
		select {
		case <-m.done:
			return
		case j := <-m.jobs:
			start := time.Now()
			v, err := call(j.ctx, w, j.req)

			entry := m.log.WithFields(logrus.Fields{
				"job":      j.id,
				"worker":   slot,
				"duration": time.Since(start),
			})
			if err != nil {
				entry.WithError(err).Warn("job failed")
			} else {
				entry.Debug("job done")
			}

			j.reply <- result[U]{value: v, err: err}
		}
	}
}

// call runs w and turns a panic into an error so the worker survives.
func call[T, U any](ctx context.Context, w Worker[T, U], req T) (v U, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("jobs: worker panic: %v", r)
		}
	}()

	return w(ctx, req)
}

// Run hands req to the next idle worker and waits for its result. It
// returns ctx's error if ctx ends first and ErrClosed after Close.
func (m *Manager[T, U]) Run(ctx context.Context, req T) (U, error) {
	var zero U

	j := job[T, U]{
		id:    uuid.NewString(),
		ctx:   ctx,
		req:   req,
		reply: make(chan result[U], 1),
	}

	select {
	case <-m.done:
		return zero, ErrClosed
	case <-ctx.Done():
		return zero, ctx.Err()
	case m.jobs <- j:
	}

	select {
	case r := <-j.reply:
		return r.value, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// Close stops the workers after their current job and waits for them.
func (m *Manager[T, U]) Close() {
	m.once.Do(func() { close(m.done) })
	m.wg.Wait()
}
