// Package sqlite stores workout snapshots in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"example.com/tracker/internal/observability"
)

const schema = `CREATE TABLE IF NOT EXISTS snapshots (
	key TEXT PRIMARY KEY,
	blob TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// Storage implements persistence.Storage on a SQLite database.
type Storage struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and ensures the schema.
func Open(ctx context.Context, path string) (*Storage, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// single writer; also keeps ":memory:" on one connection
	db.SetMaxOpenConns(1)

	s := New(db)
	if err := s.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing handle. Callers must run EnsureSchema.
func New(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// EnsureSchema creates the snapshots table if missing.
func (s *Storage) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Get implements persistence.Storage.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var blob string
	err := s.db.QueryRowContext(ctx, "SELECT blob FROM snapshots WHERE key = ?", key).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return []byte(blob), true, nil
}

// Set implements persistence.Storage.
func (s *Storage) Set(ctx context.Context, key string, blob []byte) error {
	const stmt = `INSERT INTO snapshots (key, blob, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`
	if _, err := s.db.ExecContext(ctx, stmt, key, string(blob)); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	observability.RecordSnapshotBytes("sqlite", len(blob))
	return nil
}

// Clear implements persistence.Storage.
func (s *Storage) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM snapshots"); err != nil {
		return fmt.Errorf("failed to clear snapshots: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *Storage) Close() error {
	return s.db.Close()
}
