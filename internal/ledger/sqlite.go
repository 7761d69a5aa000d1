// Package ledger records conversion runs in a local SQLite database.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

// Run statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

var (
	// ErrNotFound is returned by Get for an unknown run ID.
	ErrNotFound = errors.New("run not found")
	// ErrInvalidStatus is returned by Record for a status other than ok or failed.
	ErrInvalidStatus = errors.New("invalid run status")
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    input       TEXT NOT NULL,
    output_dir  TEXT NOT NULL DEFAULT '',
    format      TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL,
    error       TEXT NOT NULL DEFAULT '',
    started_at  INTEGER NOT NULL,
    duration_ns INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS runs_started_at ON runs (started_at);
`

// Run is one conversion attempt.
type Run struct {
	ID        string
	Input     string
	OutputDir string
	Format    string
	Status    string
	Error     string
	StartedAt time.Time
	Duration  time.Duration
}

// Store is a SQLite-backed run ledger in WAL mode.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the ledger at path, creating its parent directory
// and the schema when missing.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ledger: create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ledger: open database: %w", err)
	}

	// SQLite has a single writer; one pooled connection avoids SQLITE_BUSY
	// between connections that each need their own PRAGMA setup.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: set busy timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ledger: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Record stores r and returns its ID. An empty ID is replaced by a new
// UUID and a zero StartedAt by the current time.
func (s *Store) Record(ctx context.Context, r Run) (string, error) {
	if r.Status != StatusOK && r.Status != StatusFailed {
		return "", fmt.Errorf("ledger: %w: %q", ErrInvalidStatus, r.Status)
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}

	const q = `
		INSERT INTO runs (id, input, output_dir, format, status, error, started_at, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, r.ID, r.Input, r.OutputDir, r.Format, r.Status, r.Error,
		r.StartedAt.UnixNano(), int64(r.Duration))
	if err != nil {
		return "", fmt.Errorf("ledger: record run for %q: %w", r.Input, err)
	}
	return r.ID, nil
}

// Get returns the run with the given ID.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, input, output_dir, format, status, error, started_at, duration_ns
		FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("ledger: %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("ledger: get run %q: %w", id, err)
	}
	return r, nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, input, output_dir, format, status, error, started_at, duration_ns
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: query recent runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("ledger: scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: iterate runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var r Run
	var started, duration int64
	if err := sc.Scan(&r.ID, &r.Input, &r.OutputDir, &r.Format, &r.Status, &r.Error, &started, &duration); err != nil {
		return Run{}, err
	}
	r.StartedAt = time.Unix(0, started)
	r.Duration = time.Duration(duration)
	return r, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
