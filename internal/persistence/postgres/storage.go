// Package postgres stores workout snapshots in a Postgres table.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/tracker/internal/observability"
)

const schema = `CREATE TABLE IF NOT EXISTS workout_snapshots (
    snapshot_key TEXT PRIMARY KEY,
    blob         TEXT NOT NULL,
    updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Storage implements persistence.Storage on a pgx pool.
type Storage struct {
	pool *pgxpool.Pool
}

// NewStorage constructs a Storage.
func NewStorage(pool *pgxpool.Pool) *Storage {
	return &Storage{pool: pool}
}

// EnsureSchema creates the snapshot table when missing.
func (s *Storage) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure snapshot schema: %w", err)
	}
	return nil
}

// Get implements persistence.Storage.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	const query = `SELECT blob FROM workout_snapshots WHERE snapshot_key=$1`

	var blob string
	if err := s.pool.QueryRow(ctx, query, key).Scan(&blob); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return []byte(blob), true, nil
}

// Set implements persistence.Storage.
func (s *Storage) Set(ctx context.Context, key string, blob []byte) error {
	const stmt = `INSERT INTO workout_snapshots (snapshot_key, blob, updated_at)
        VALUES ($1,$2,now())
        ON CONFLICT (snapshot_key) DO UPDATE SET blob=EXCLUDED.blob, updated_at=EXCLUDED.updated_at`

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, stmt, key, string(blob)); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordSnapshotBytes("postgres", len(blob))
	return nil
}

// Clear implements persistence.Storage.
func (s *Storage) Clear(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM workout_snapshots`)
	return err
}
