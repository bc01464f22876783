package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"example.com/tracker/internal/domain"
	"example.com/tracker/internal/persistence"
)

func TestListWorkouts(t *testing.T) {
	router, _ := newTestRouter(t, seedWorkouts(t)...)

	rr := serve(router, "/v1/workouts")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp ListWorkoutsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 3)
	require.Equal(t, "running", resp.Items[0].Type)
	require.Equal(t, "cycling", resp.Items[1].Type)
	require.NotNil(t, resp.Items[0].Cadence)
	require.Nil(t, resp.Items[0].SpeedKmPerH)
	require.NotNil(t, resp.Items[1].ElevationGainM)
	require.Equal(t, "Running on April 14", resp.Items[0].Label)
}

func TestListWorkoutsFiltersAndLimits(t *testing.T) {
	router, _ := newTestRouter(t, seedWorkouts(t)...)

	rr := serve(router, "/v1/workouts?type=Running&limit=1")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp ListWorkoutsResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	require.Equal(t, "running", resp.Items[0].Type)

	require.Equal(t, http.StatusBadRequest, serve(router, "/v1/workouts?type=swimming").Code)
	require.Equal(t, http.StatusBadRequest, serve(router, "/v1/workouts?limit=-3").Code)
}

func TestListWorkoutsReportsDroppedEntries(t *testing.T) {
	storage := persistence.NewMemoryStorage()
	blob := `[{"id":"a","type":"running","coordinates":[1,2],"distanceKm":5,"durationMin":25,"cadence":170},{"id":"b","type":"rowing"}]`
	require.NoError(t, storage.Set(context.Background(), persistence.DefaultSnapshotKey, []byte(blob)))

	router := chi.NewRouter()
	NewHandler(storage, WithLogger(log.New(testWriter{t}, "", 0))).RegisterRoutes(router)

	var resp ListWorkoutsResponse
	rr := serve(router, "/v1/workouts")
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	require.Equal(t, 1, resp.Dropped)
}

func TestGetWorkout(t *testing.T) {
	seed := seedWorkouts(t)
	router, _ := newTestRouter(t, seed...)

	rr := serve(router, "/v1/workouts/"+seed[1].ID)
	require.Equal(t, http.StatusOK, rr.Code)

	var view WorkoutView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	require.Equal(t, seed[1].ID, view.ID)
	require.Equal(t, [2]float64{39.2, -12.2}, view.Coordinates)
	require.InDelta(t, 17.05, *view.SpeedKmPerH, 0.01)

	missing := serve(router, "/v1/workouts/does-not-exist")
	require.Equal(t, http.StatusNotFound, missing.Code)
	require.JSONEq(t, `{"type":"not_found","detail":"workout not found"}`, missing.Body.String())
}

func TestWorkoutSummary(t *testing.T) {
	seed := seedWorkouts(t)
	seed[2].RecordInteraction()
	seed[2].RecordInteraction()
	router, _ := newTestRouter(t, seed...)

	rr := serve(router, "/v1/workouts/summary")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp SummaryResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 3, resp.Total)
	require.Equal(t, 2, resp.Kinds["running"].Count)
	require.InDelta(t, 15.2, resp.Kinds["running"].TotalDistanceKm, 1e-9)
	require.InDelta(t, 84.0/15.2, resp.Kinds["running"].AveragePaceMinKm, 1e-9)
	require.Equal(t, 1, resp.Kinds["cycling"].Count)
	require.InDelta(t, 27/(95.0/60), resp.Kinds["cycling"].AverageSpeedKmPerH, 1e-9)
	require.Equal(t, seed[2].ID, resp.MostRevisited)
	require.NotNil(t, resp.LastWorkoutAt)
}

func TestStorageFailureIsServerError(t *testing.T) {
	router := chi.NewRouter()
	NewHandler(brokenStorage{}, WithLogger(log.New(testWriter{t}, "", 0))).RegisterRoutes(router)

	rr := serve(router, "/v1/workouts")
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.Contains(t, rr.Body.String(), "server_error")
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)
	rr := serve(router, "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}

func TestCustomSnapshotKey(t *testing.T) {
	storage := persistence.NewMemoryStorage()
	require.NoError(t, persistence.Save(context.Background(), storage, "alt", seedWorkouts(t)))

	router := chi.NewRouter()
	NewHandler(storage, WithSnapshotKey("alt")).RegisterRoutes(router)

	var resp ListWorkoutsResponse
	require.NoError(t, json.Unmarshal(serve(router, "/v1/workouts").Body.Bytes(), &resp))
	require.Len(t, resp.Items, 3)
}

func newTestRouter(t *testing.T, workouts ...*domain.Workout) (chi.Router, *persistence.MemoryStorage) {
	t.Helper()
	storage := persistence.NewMemoryStorage()
	if len(workouts) > 0 {
		require.NoError(t, persistence.Save(context.Background(), storage, persistence.DefaultSnapshotKey, workouts))
	}
	router := chi.NewRouter()
	NewHandler(storage, WithLogger(log.New(testWriter{t}, "", 0))).RegisterRoutes(router)
	return router, storage
}

func seedWorkouts(t *testing.T) []*domain.Workout {
	t.Helper()
	clock := domain.WithClock(func() time.Time {
		return time.Date(2025, time.April, 14, 10, 0, 0, 0, time.UTC)
	})
	run, err := domain.NewRunning(domain.Coordinates{Lat: 39.1, Lng: -12.1}, 5.2, 24, 178, clock)
	require.NoError(t, err)
	ride, err := domain.NewCycling(domain.Coordinates{Lat: 39.2, Lng: -12.2}, 27, 95, 523, clock)
	require.NoError(t, err)
	longRun, err := domain.NewRunning(domain.Coordinates{Lat: 39.3, Lng: -12.3}, 10, 60, 170, clock)
	require.NoError(t, err)
	return []*domain.Workout{run, ride, longRun}
}

func serve(h http.Handler, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

type brokenStorage struct{}

func (brokenStorage) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("disk on fire")
}

func (brokenStorage) Set(context.Context, string, []byte) error { return errors.New("disk on fire") }

func (brokenStorage) Clear(context.Context) error { return errors.New("disk on fire") }

type testWriter struct {
	t *testing.T
}

func (tw testWriter) Write(p []byte) (int, error) {
	tw.t.Log(string(p))
	return len(p), nil
}

func TestListWorkoutsPaginates(t *testing.T) {
	seed := seedWorkouts(t)
	router, _ := newTestRouter(t, seed...)

	var first ListWorkoutsResponse
	require.NoError(t, json.Unmarshal(serve(router, "/v1/workouts?limit=2").Body.Bytes(), &first))
	require.Len(t, first.Items, 2)
	require.NotEmpty(t, first.NextCursor)

	var second ListWorkoutsResponse
	require.NoError(t, json.Unmarshal(serve(router, "/v1/workouts?limit=2&cursor="+first.NextCursor).Body.Bytes(), &second))
	require.Len(t, second.Items, 1)
	require.Equal(t, seed[2].ID, second.Items[0].ID)
	require.Empty(t, second.NextCursor)

	require.Equal(t, http.StatusBadRequest, serve(router, "/v1/workouts?cursor=%25%25").Code)
}
