package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/tracker/internal/domain"
)

func TestCursorRoundTrip(t *testing.T) {
	c := &cursor{CreatedAt: time.Date(2025, time.April, 14, 10, 0, 0, 5, time.UTC), ID: "w|1"}

	decoded, err := decodeCursor(encodeCursor(c))
	require.NoError(t, err)
	require.Equal(t, c, decoded)

	none, err := decodeCursor("  ")
	require.NoError(t, err)
	require.Nil(t, none)
	require.Empty(t, encodeCursor(nil))
}

func TestResumeAfterDeletedWorkout(t *testing.T) {
	base := time.Date(2025, time.April, 14, 10, 0, 0, 0, time.UTC)
	workouts := []*domain.Workout{
		{ID: "a", CreatedAt: base},
		{ID: "c", CreatedAt: base.Add(2 * time.Minute)},
	}

	require.Equal(t, 0, resumeAfter(workouts, nil))
	require.Equal(t, 1, resumeAfter(workouts, &cursor{ID: "a", CreatedAt: base}))
	require.Equal(t, 1, resumeAfter(workouts, &cursor{ID: "b", CreatedAt: base.Add(time.Minute)}))
	require.Equal(t, 2, resumeAfter(workouts, &cursor{ID: "z", CreatedAt: base.Add(time.Hour)}))
}
