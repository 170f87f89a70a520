package jobs

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

func TestNewValidation(t *testing.T) {
	if _, err := New[int, int](nil, 1); err == nil {
		t.Fatal("expected nil factory error")
	}

	f := func() (Worker[int, int], error) { return nil, nil }
	if _, err := New(f, 0); err == nil {
		t.Fatal("expected worker count error")
	}

	if _, err := New(f, 1, WithLogger(nil)); err == nil {
		t.Fatal("expected logger error")
	}
}

func TestRun(t *testing.T) {
	var built atomic.Int32

	m, err := New(func() (Worker[int, int], error) {
		built.Add(1)
		return func(_ context.Context, x int) (int, error) { return 2 * x, nil }, nil
	}, 3, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer m.Close()

	if built.Load() != 3 {
		t.Fatalf("factory calls = %d, want 3", built.Load())
	}

	var wg sync.WaitGroup

	for i := range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			got, err := m.Run(context.Background(), i)
			if err != nil || got != 2*i {
				t.Errorf("Run(%d) = %d, %v", i, got, err)
			}
		}()
	}

	wg.Wait()
}

func TestFactoryErrorAbortsConstruction(t *testing.T) {
	errBoom := errors.New("boom")

	var calls atomic.Int32

	_, err := New(func() (Worker[int, int], error) {
		if calls.Add(1) == 2 {
			return nil, errBoom
		}

		return func(context.Context, int) (int, error) { return 0, nil }, nil
	}, 3, WithLogger(quietLogger()))
	if !errors.Is(err, errBoom) {
		t.Fatalf("New() error = %v, want boom", err)
	}
}

func TestWorkerErrorKeepsWorker(t *testing.T) {
	errOdd := errors.New("odd")

	m, err := New(func() (Worker[int, int], error) {
		return func(_ context.Context, x int) (int, error) {
			if x%2 == 1 {
				return 0, errOdd
			}

			if x == 4 {
				panic("four")
			}

			return x, nil
		}, nil
	}, 1, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer m.Close()

	if _, err := m.Run(context.Background(), 1); !errors.Is(err, errOdd) {
		t.Fatalf("Run(1) error = %v, want odd", err)
	}

	if _, err := m.Run(context.Background(), 4); err == nil {
		t.Fatal("Run(4) expected panic error")
	}

	if got, err := m.Run(context.Background(), 2); err != nil || got != 2 {
		t.Fatalf("Run(2) = %d, %v; want 2, nil", got, err)
	}
}

func TestPoolBoundsConcurrency(t *testing.T) {
	var active, peak atomic.Int32

	m, err := New(func() (Worker[int, int], error) {
		return func(context.Context, int) (int, error) {
			n := active.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}

			time.Sleep(5 * time.Millisecond)
			active.Add(-1)

			return 0, nil
		}, nil
	}, 2, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer m.Close()

	var wg sync.WaitGroup

	for i := range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if _, err := m.Run(context.Background(), i); err != nil {
				t.Errorf("Run() error = %v", err)
			}
		}()
	}

	wg.Wait()

	if peak.Load() > 2 {
		t.Fatalf("peak concurrency = %d, want <= 2", peak.Load())
	}
}

func TestRunContextCancelled(t *testing.T) {
	release := make(chan struct{})

	m, err := New(func() (Worker[int, int], error) {
		return func(context.Context, int) (int, error) {
			<-release
			return 0, nil
		}, nil
	}, 1, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	defer m.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := m.Run(ctx, 1); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run() error = %v, want deadline exceeded", err)
	}
}

func TestRunAfterClose(t *testing.T) {
	m, err := New(func() (Worker[int, int], error) {
		return func(context.Context, int) (int, error) { return 1, nil }, nil
	}, 2, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	m.Close()
	m.Close()

	if _, err := m.Run(context.Background(), 1); !errors.Is(err, ErrClosed) {
		t.Fatalf("Run() after Close error = %v, want ErrClosed", err)
	}
}
