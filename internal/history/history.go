// Package history implements a small SQLite-backed record of past
// cmd/xformc invocations, used only by the driver's "history" subcommand.
// The engine itself never imports this package.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Run is one recorded CLI invocation.
type Run struct {
	ID          string
	InputPath   string
	StartedAt   time.Time
	Duration    time.Duration
	ErrorCount  int
	WarnCount   int
	FatalCode   string // empty on success
}

// Store wraps the sqlite-backed history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the history database at path, along
// with any missing parent directory.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("history: creating %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: opening %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	input_path  TEXT NOT NULL,
	started_at  INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	error_count INTEGER NOT NULL,
	warn_count  INTEGER NOT NULL,
	fatal_code  TEXT NOT NULL DEFAULT ''
)`

// Record inserts one completed run.
func (s *Store) Record(r Run) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (id, input_path, started_at, duration_ms, error_count, warn_count, fatal_code)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.InputPath, r.StartedAt.Unix(), r.Duration.Milliseconds(), r.ErrorCount, r.WarnCount, r.FatalCode,
	)
	if err != nil {
		return fmt.Errorf("history: recording run %s: %w", r.ID, err)
	}
	return nil
}

// Recent returns the n most recently started runs, newest first.
func (s *Store) Recent(n int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT id, input_path, started_at, duration_ms, error_count, warn_count, fatal_code
		 FROM runs ORDER BY started_at DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, fmt.Errorf("history: querying recent runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var startedAt, durationMS int64
		if err := rows.Scan(&r.ID, &r.InputPath, &startedAt, &durationMS, &r.ErrorCount, &r.WarnCount, &r.FatalCode); err != nil {
			return nil, fmt.Errorf("history: scanning run row: %w", err)
		}
		r.StartedAt = time.Unix(startedAt, 0)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		out = append(out, r)
	}
	return out, rows.Err()
}
