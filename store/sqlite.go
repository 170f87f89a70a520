package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/cwbudde/algo-stemfx/analysis/chord"

	_ "modernc.org/sqlite"
)

// migrations are applied in order; PRAGMA user_version records how many
// have run.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS timelines (
		track_id   TEXT NOT NULL,
		options    TEXT NOT NULL,
		timeline   TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (track_id, options)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_timelines_updated ON timelines(updated_at);`,
}

// SQLite is a Store backed by a SQLite database file.
type SQLite struct {
	db     *sql.DB
	closed atomic.Bool
}

// OpenSQLite opens or creates the database at path and migrates its schema.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("store: create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}

	// One writer at a time avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("store: read schema version: %w", err)
	}

	if version >= len(migrations) {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin migration: %w", err)
	}
	defer tx.Rollback()

	for i := version; i < len(migrations); i++ {
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			return fmt.Errorf("store: migration %d: %w", i+1, err)
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, len(migrations))); err != nil {
		return fmt.Errorf("store: write schema version: %w", err)
	}

	return tx.Commit()
}

// SchemaVersion returns the number of applied migrations.
func (s *SQLite) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&v)

	return v, err
}

func (s *SQLite) Get(ctx context.Context, trackID, key string) (chord.Timeline, bool, error) {
	if s.closed.Load() {
		return nil, false, ErrClosed
	}

	var raw string

	err := s.db.QueryRowContext(ctx,
		`SELECT timeline FROM timelines WHERE track_id = ? AND options = ?`, trackID, key).
		Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, s.wrap(err)
	}

	var tl chord.Timeline
	if err := json.Unmarshal([]byte(raw), &tl); err != nil {
		return nil, false, fmt.Errorf("store: decode %s: %w", trackID, err)
	}

	return tl, true, nil
}

func (s *SQLite) Put(ctx context.Context, trackID, key string, tl chord.Timeline) error {
	if s.closed.Load() {
		return ErrClosed
	}

	if trackID == "" {
		return ErrEmptyID
	}

	if err := tl.Validate(); err != nil {
		return err
	}

	raw, err := json.Marshal(tl)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO timelines (track_id, options, timeline, updated_at)
		VALUES (?, ?, ?, ?)`,
		trackID, key, string(raw), time.Now().Unix())

	return s.wrap(err)
}

func (s *SQLite) Delete(ctx context.Context, trackID string) error {
	if s.closed.Load() {
		return ErrClosed
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM timelines WHERE track_id = ?`, trackID)
	return s.wrap(err)
}

func (s *SQLite) Missing(ctx context.Context, trackIDs []string) ([]string, error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}

	stmt, err := s.db.PrepareContext(ctx, `SELECT EXISTS(SELECT 1 FROM timelines WHERE track_id = ?)`)
	if err != nil {
		return nil, s.wrap(err)
	}
	defer stmt.Close()

	var out []string

	for _, id := range trackIDs {
		var exists bool
		if err := stmt.QueryRowContext(ctx, id).Scan(&exists); err != nil {
			return nil, s.wrap(err)
		}

		if !exists {
			out = append(out, id)
		}
	}

	return out, nil
}

// Close closes the database. Further calls return ErrClosed.
func (s *SQLite) Close() error {
	if s.closed.Swap(true) {
		return nil
	}

	return s.db.Close()
}

func (s *SQLite) wrap(err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("store: %w", err)
}
