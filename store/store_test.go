package store

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/cwbudde/algo-stemfx/analysis/chord"
)

var sample = chord.Timeline{
	{Time: 0, Chord: "C", Confidence: 0.9},
	{Time: 0.8, Chord: "Am", Confidence: 0.75},
	{Time: 2.4, Chord: chord.Unclear},
}

func openSQLite(t *testing.T) *SQLite {
	t.Helper()

	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "data", "stemfx.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}

	t.Cleanup(func() { s.Close() })

	return s
}

func implementations(t *testing.T) map[string]Store {
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": openSQLite(t),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()

	for name, s := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := s.Get(ctx, "track", "k1"); ok || err != nil {
				t.Fatalf("Get() on empty store = %v, %v", ok, err)
			}

			if err := s.Put(ctx, "track", "k1", sample); err != nil {
				t.Fatalf("Put() error = %v", err)
			}

			got, ok, err := s.Get(ctx, "track", "k1")
			if err != nil || !ok {
				t.Fatalf("Get() = %v, %v", ok, err)
			}

			if !slices.Equal(got, sample) {
				t.Fatalf("Get() = %+v, want %+v", got, sample)
			}

			if _, ok, _ := s.Get(ctx, "track", "k2"); ok {
				t.Fatal("Get() with another key hit a stale entry")
			}
		})
	}
}

func TestStoreReplaceAndEmpty(t *testing.T) {
	ctx := context.Background()

	for name, s := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Put(ctx, "track", "k", sample); err != nil {
				t.Fatalf("Put() error = %v", err)
			}

			if err := s.Put(ctx, "track", "k", nil); err != nil {
				t.Fatalf("Put(nil) error = %v", err)
			}

			got, ok, err := s.Get(ctx, "track", "k")
			if err != nil || !ok || len(got) != 0 {
				t.Fatalf("Get() = %+v, %v, %v; want empty hit", got, ok, err)
			}
		})
	}
}

func TestStoreRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	bad := chord.Timeline{{Time: 0, Chord: "C"}, {Time: 1, Chord: "C"}}

	for name, s := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Put(ctx, "track", "k", bad); !errors.Is(err, chord.ErrInvalidTimeline) {
				t.Fatalf("Put(invalid) error = %v, want ErrInvalidTimeline", err)
			}

			if err := s.Put(ctx, "", "k", sample); !errors.Is(err, ErrEmptyID) {
				t.Fatalf("Put(\"\") error = %v, want ErrEmptyID", err)
			}
		})
	}
}

func TestStoreDeleteAndMissing(t *testing.T) {
	ctx := context.Background()

	for name, s := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			for _, id := range []string{"a", "c"} {
				if err := s.Put(ctx, id, "k", sample); err != nil {
					t.Fatalf("Put(%s) error = %v", id, err)
				}
			}

			if err := s.Put(ctx, "a", "other", sample); err != nil {
				t.Fatalf("Put() error = %v", err)
			}

			missing, err := s.Missing(ctx, []string{"d", "a", "b", "c"})
			if err != nil {
				t.Fatalf("Missing() error = %v", err)
			}

			if !slices.Equal(missing, []string{"d", "b"}) {
				t.Fatalf("Missing() = %v, want [d b]", missing)
			}

			if err := s.Delete(ctx, "a"); err != nil {
				t.Fatalf("Delete() error = %v", err)
			}

			missing, _ = s.Missing(ctx, []string{"a", "c"})
			if !slices.Equal(missing, []string{"a"}) {
				t.Fatalf("Missing() after Delete = %v, want [a]", missing)
			}

			if _, ok, _ := s.Get(ctx, "a", "other"); ok {
				t.Fatal("Delete() kept an entry")
			}
		})
	}
}

func TestStoreClosed(t *testing.T) {
	ctx := context.Background()

	for name, s := range implementations(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}

			if _, _, err := s.Get(ctx, "a", "k"); !errors.Is(err, ErrClosed) {
				t.Fatalf("Get() error = %v, want ErrClosed", err)
			}

			if err := s.Put(ctx, "a", "k", sample); !errors.Is(err, ErrClosed) {
				t.Fatalf("Put() error = %v, want ErrClosed", err)
			}

			if _, err := s.Missing(ctx, []string{"a"}); !errors.Is(err, ErrClosed) {
				t.Fatalf("Missing() error = %v, want ErrClosed", err)
			}
		})
	}
}

func TestSQLitePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stemfx.db")

	s, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}

	if err := s.Put(ctx, "track", "k", sample); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s, err = OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("OpenSQLite() reopen error = %v", err)
	}
	defer s.Close()

	v, err := s.SchemaVersion(ctx)
	if err != nil || v != len(migrations) {
		t.Fatalf("SchemaVersion() = %d, %v; want %d", v, err, len(migrations))
	}

	got, ok, err := s.Get(ctx, "track", "k")
	if err != nil || !ok || !slices.Equal(got, sample) {
		t.Fatalf("Get() after reopen = %+v, %v, %v", got, ok, err)
	}
}

func TestMemoryCopiesTimelines(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	tl := slices.Clone(sample)
	if err := m.Put(ctx, "t", "k", tl); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	tl[0].Chord = "G"

	got, _, _ := m.Get(ctx, "t", "k")
	got[1].Chord = "F"

	again, _, _ := m.Get(ctx, "t", "k")
	if !slices.Equal(again, sample) {
		t.Fatalf("stored timeline changed: %+v", again)
	}
}
