// Package api exposes a read-only JSON view of the persisted workout snapshot.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"example.com/tracker/internal/domain"
	"example.com/tracker/internal/persistence"
)

// Option configures optional behaviour for the Handler.
type Option func(*Handler)

// WithLogger overrides the logger used to report storage errors.
func WithLogger(logger *log.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithSnapshotKey overrides the storage key the handler reads.
func WithSnapshotKey(key string) Option {
	return func(h *Handler) {
		h.snapshotKey = key
	}
}

// Handler serves workouts straight from storage; it never writes.
type Handler struct {
	storage     persistence.Storage
	snapshotKey string
	logger      *log.Logger
}

// NewHandler builds a Handler.
func NewHandler(storage persistence.Storage, opts ...Option) *Handler {
	h := &Handler{
		storage:     storage,
		snapshotKey: persistence.DefaultSnapshotKey,
		logger:      log.New(log.Writer(), "[api] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// RegisterRoutes wires endpoints to the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/v1/workouts", h.listWorkouts)
	r.Get("/v1/workouts/summary", h.workoutSummary)
	r.Get("/v1/workouts/{workoutId}", h.getWorkout)
	r.Get("/healthz", healthz)
}

// healthz reports a simple OK status.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request) ([]*domain.Workout, persistence.DecodeReport, bool) {
	workouts, report, err := persistence.Load(r.Context(), h.storage, h.snapshotKey)
	if err != nil {
		h.logger.Printf("load snapshot %q: %v", h.snapshotKey, err)
		writeError(w, http.StatusInternalServerError, "server_error", "unable to read workouts")
		return nil, report, false
	}
	return workouts, report, true
}

func (h *Handler) listWorkouts(w http.ResponseWriter, r *http.Request) {
	var kind domain.Kind
	if raw := r.URL.Query().Get("type"); raw != "" {
		parsed, ok := domain.ParseKind(strings.ToLower(raw))
		if !ok {
			writeError(w, http.StatusBadRequest, "validation_failed", "type must be running or cycling")
			return
		}
		kind = parsed
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "validation_failed", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	after, err := decodeCursor(r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	workouts, report, ok := h.load(w, r)
	if !ok {
		return
	}

	var next *cursor
	items := make([]WorkoutView, 0, len(workouts))
	for i := resumeAfter(workouts, after); i < len(workouts); i++ {
		wk := workouts[i]
		if kind != "" && wk.Kind != kind {
			continue
		}
		if limit > 0 && len(items) == limit {
			last := items[len(items)-1]
			next = &cursor{CreatedAt: last.CreatedAt, ID: last.ID}
			break
		}
		items = append(items, toWorkoutView(wk))
	}

	writeJSON(w, http.StatusOK, ListWorkoutsResponse{
		Items:      items,
		NextCursor: encodeCursor(next),
		Dropped:    report.Dropped,
	})
}

func (h *Handler) getWorkout(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "workoutId")
	if strings.TrimSpace(id) == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing workout id")
		return
	}

	workouts, _, ok := h.load(w, r)
	if !ok {
		return
	}
	for _, wk := range workouts {
		if wk.ID == id {
			writeJSON(w, http.StatusOK, toWorkoutView(wk))
			return
		}
	}
	writeError(w, http.StatusNotFound, "not_found", "workout not found")
}

func (h *Handler) workoutSummary(w http.ResponseWriter, r *http.Request) {
	workouts, _, ok := h.load(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, summarize(workouts))
}

// WorkoutView is the API representation of one workout.
type WorkoutView struct {
	ID               string     `json:"id"`
	Type             string     `json:"type"`
	Label            string     `json:"label"`
	CreatedAt        time.Time  `json:"created_at"`
	Coordinates      [2]float64 `json:"coordinates"`
	DistanceKm       float64    `json:"distance_km"`
	DurationMin      float64    `json:"duration_min"`
	Cadence          *float64   `json:"cadence,omitempty"`
	PaceMinPerKm     *float64   `json:"pace_min_per_km,omitempty"`
	ElevationGainM   *float64   `json:"elevation_gain_m,omitempty"`
	SpeedKmPerH      *float64   `json:"speed_km_per_h,omitempty"`
	InteractionCount int        `json:"interaction_count"`
}

// ListWorkoutsResponse packages list results. Dropped counts snapshot entries
// that could not be restored.
type ListWorkoutsResponse struct {
	Items      []WorkoutView `json:"items"`
	NextCursor string        `json:"next_cursor,omitempty"`
	Dropped    int           `json:"dropped,omitempty"`
}

// KindSummary aggregates the workouts of one kind.
type KindSummary struct {
	Count              int     `json:"count"`
	TotalDistanceKm    float64 `json:"total_distance_km"`
	TotalDurationMin   float64 `json:"total_duration_min"`
	AveragePaceMinKm   float64 `json:"average_pace_min_per_km,omitempty"`
	AverageSpeedKmPerH float64 `json:"average_speed_km_per_h,omitempty"`
}

// SummaryResponse reports totals per kind.
type SummaryResponse struct {
	Total         int                    `json:"total"`
	Kinds         map[string]KindSummary `json:"kinds"`
	LastWorkoutAt *time.Time             `json:"last_workout_at,omitempty"`
	MostRevisited string                 `json:"most_revisited,omitempty"`
}

func summarize(workouts []*domain.Workout) SummaryResponse {
	resp := SummaryResponse{
		Total: len(workouts),
		Kinds: map[string]KindSummary{},
	}
	best := 0
	for _, wk := range workouts {
		s := resp.Kinds[string(wk.Kind)]
		s.Count++
		s.TotalDistanceKm += wk.DistanceKm
		s.TotalDurationMin += wk.DurationMin
		resp.Kinds[string(wk.Kind)] = s

		if !wk.CreatedAt.IsZero() && (resp.LastWorkoutAt == nil || wk.CreatedAt.After(*resp.LastWorkoutAt)) {
			at := wk.CreatedAt
			resp.LastWorkoutAt = &at
		}
		if n := wk.Interactions(); n > best {
			best = n
			resp.MostRevisited = wk.ID
		}
	}

	// Averages are distance-weighted: total time over total distance.
	for kind, s := range resp.Kinds {
		if s.TotalDistanceKm > 0 && s.TotalDurationMin > 0 {
			switch domain.Kind(kind) {
			case domain.KindRunning:
				s.AveragePaceMinKm = domain.Pace(s.TotalDistanceKm, s.TotalDurationMin)
			case domain.KindCycling:
				s.AverageSpeedKmPerH = domain.Speed(s.TotalDistanceKm, s.TotalDurationMin)
			}
		}
		resp.Kinds[kind] = s
	}
	return resp
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toWorkoutView(wk *domain.Workout) WorkoutView {
	view := WorkoutView{
		ID:               wk.ID,
		Type:             string(wk.Kind),
		Label:            wk.Label,
		CreatedAt:        wk.CreatedAt,
		Coordinates:      [2]float64{wk.Coords.Lat, wk.Coords.Lng},
		DistanceKm:       wk.DistanceKm,
		DurationMin:      wk.DurationMin,
		InteractionCount: wk.Interactions(),
	}
	if m := wk.Running; m != nil {
		cadence, pace := m.Cadence, m.PaceMinPerKm
		view.Cadence = &cadence
		view.PaceMinPerKm = &pace
	}
	if m := wk.Cycling; m != nil {
		elevation, speed := m.ElevationGainM, m.SpeedKmPerH
		view.ElevationGainM = &elevation
		view.SpeedKmPerH = &speed
	}
	return view
}
