package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "tracker.db")

	store, err := Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	_, ok, err := store.Get(ctx, "workouts")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Set(ctx, "workouts", []byte(`{"version":1,"workouts":[]}`)))
	require.NoError(t, store.Set(ctx, "workouts", []byte(`{"version":1,"workouts":[{"id":"a"}]}`)))

	blob, ok, err := store.Get(ctx, "workouts")
	require.NoError(t, err)
	require.True(t, ok)
	require.JSONEq(t, `{"version":1,"workouts":[{"id":"a"}]}`, string(blob))

	require.NoError(t, store.Clear(ctx))
	_, ok, err = store.Get(ctx, "workouts")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStorageSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tracker.db")

	first, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "workouts", []byte(`[]`)))
	require.NoError(t, first.Close())

	second, err := Open(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { second.Close() })

	blob, ok, err := second.Get(ctx, "workouts")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "[]", string(blob))
}

func TestStorageInMemory(t *testing.T) {
	ctx := context.Background()
	store, err := Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Set(ctx, "k", []byte("v")))
	blob, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", string(blob))
}
