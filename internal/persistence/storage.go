package persistence

import (
	"context"
	"fmt"
	"sync"

	"example.com/tracker/internal/domain"
)

// DefaultSnapshotKey is the key the workout snapshot is stored under.
const DefaultSnapshotKey = "workouts"

// Storage is the durable key-value store holding the snapshot.
type Storage interface {
	// Get returns the blob for key; ok is false when nothing is stored.
	Get(ctx context.Context, key string) (blob []byte, ok bool, err error)
	Set(ctx context.Context, key string, blob []byte) error
	// Clear removes every key.
	Clear(ctx context.Context) error
}

// MemoryStorage keeps snapshots in process memory. It backs tests and the
// "memory" storage mode.
type MemoryStorage struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStorage constructs an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{blobs: make(map[string][]byte)}
}

// Get implements Storage.
func (m *MemoryStorage) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	blob, ok := m.blobs[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), blob...), true, nil
}

// Set implements Storage.
func (m *MemoryStorage) Set(ctx context.Context, key string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs[key] = append([]byte(nil), blob...)
	return nil
}

// Clear implements Storage.
func (m *MemoryStorage) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs = make(map[string][]byte)
	return nil
}

// Load reads and decodes the snapshot under key. Read errors and absent keys
// both yield an empty history; the error is returned for logging only.
func Load(ctx context.Context, storage Storage, key string) ([]*domain.Workout, DecodeReport, error) {
	blob, ok, err := storage.Get(ctx, key)
	if err != nil {
		return []*domain.Workout{}, DecodeReport{}, err
	}
	if !ok {
		return []*domain.Workout{}, DecodeReport{}, nil
	}
	workouts, report := DecodeWithReport(blob)
	return workouts, report, nil
}

// Save encodes workouts and writes them under key.
func Save(ctx context.Context, storage Storage, key string, workouts []*domain.Workout) error {
	blob, err := Encode(workouts)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := storage.Set(ctx, key, blob); err != nil {
		return fmt.Errorf("write snapshot %q: %w", key, err)
	}
	return nil
}
