// Package persistence converts the workout collection to and from its durable
// snapshot and defines the key-value storage the snapshot lives in.
package persistence

import (
	"bytes"
	"encoding/json"
	"time"

	"example.com/tracker/internal/domain"
)

// SnapshotVersion is written into every encoded envelope.
const SnapshotVersion = 1

type envelope struct {
	Version  int               `json:"version"`
	Workouts []json.RawMessage `json:"workouts"`
}

type encodedEnvelope struct {
	Version  int             `json:"version"`
	Workouts []workoutRecord `json:"workouts"`
}

type workoutRecord struct {
	ID               string     `json:"id"`
	CreatedAt        time.Time  `json:"createdAt"`
	Coordinates      [2]float64 `json:"coordinates"`
	DistanceKm       float64    `json:"distanceKm"`
	DurationMin      float64    `json:"durationMin"`
	Type             string     `json:"type"`
	Label            string     `json:"label"`
	InteractionCount int        `json:"interactionCount"`
	Cadence          *float64   `json:"cadence,omitempty"`
	PaceMinPerKm     *float64   `json:"paceMinPerKm,omitempty"`
	ElevationGainM   *float64   `json:"elevationGainM,omitempty"`
	SpeedKmPerH      *float64   `json:"speedKmPerH,omitempty"`
}

// decodedRecord accepts both the current layout and the page's legacy
// localStorage layout (coords/distance/duration/description/clicks/date).
type decodedRecord struct {
	ID               *string    `json:"id"`
	CreatedAt        *time.Time `json:"createdAt"`
	Date             *time.Time `json:"date"`
	Coordinates      []float64  `json:"coordinates"`
	Coords           []float64  `json:"coords"`
	DistanceKm       *float64   `json:"distanceKm"`
	Distance         *float64   `json:"distance"`
	DurationMin      *float64   `json:"durationMin"`
	Duration         *float64   `json:"duration"`
	Type             string     `json:"type"`
	Label            string     `json:"label"`
	Description      string     `json:"description"`
	InteractionCount *int       `json:"interactionCount"`
	Clicks           *int       `json:"clicks"`
	Cadence          *float64   `json:"cadence"`
	PaceMinPerKm     *float64   `json:"paceMinPerKm"`
	Pace             *float64   `json:"pace"`
	ElevationGainM   *float64   `json:"elevationGainM"`
	ElevationGain    *float64   `json:"elevationGain"`
	SpeedKmPerH      *float64   `json:"speedKmPerH"`
	Speed            *float64   `json:"speed"`
}

// Encode serialises the workouts in order. Map markers are session state held by
// the marker registry and never appear here.
func Encode(workouts []*domain.Workout) ([]byte, error) {
	env := encodedEnvelope{Version: SnapshotVersion, Workouts: make([]workoutRecord, 0, len(workouts))}
	for _, w := range workouts {
		if w == nil {
			continue
		}
		rec := workoutRecord{
			ID:               w.ID,
			CreatedAt:        w.CreatedAt,
			Coordinates:      [2]float64{w.Coords.Lat, w.Coords.Lng},
			DistanceKm:       w.DistanceKm,
			DurationMin:      w.DurationMin,
			Type:             string(w.Kind),
			Label:            w.Label,
			InteractionCount: w.Interactions(),
		}
		if w.Running != nil {
			rec.Cadence = floatPtr(w.Running.Cadence)
			rec.PaceMinPerKm = floatPtr(w.Running.PaceMinPerKm)
		}
		if w.Cycling != nil {
			rec.ElevationGainM = floatPtr(w.Cycling.ElevationGainM)
			rec.SpeedKmPerH = floatPtr(w.Cycling.SpeedKmPerH)
		}
		env.Workouts = append(env.Workouts, rec)
	}
	return json.Marshal(env)
}

// DecodeReport describes what Decode recovered from a blob.
type DecodeReport struct {
	Restored int
	Dropped  int
	// Malformed is set when the blob as a whole could not be parsed.
	Malformed bool
}

// Decode restores workouts from a snapshot. It never fails: an absent or
// unparseable blob yields no workouts, and individual entries that are missing
// required fields are dropped while the rest are kept in order.
func Decode(blob []byte) []*domain.Workout {
	workouts, _ := DecodeWithReport(blob)
	return workouts
}

// DecodeWithReport is Decode plus a summary of dropped entries.
func DecodeWithReport(blob []byte) ([]*domain.Workout, DecodeReport) {
	var report DecodeReport
	trimmed := bytes.TrimSpace(blob)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []*domain.Workout{}, report
	}

	var entries []json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &entries); err != nil {
			report.Malformed = true
			return []*domain.Workout{}, report
		}
	case '{':
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			report.Malformed = true
			return []*domain.Workout{}, report
		}
		entries = env.Workouts
	default:
		report.Malformed = true
		return []*domain.Workout{}, report
	}

	out := make([]*domain.Workout, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, raw := range entries {
		w, ok := decodeEntry(raw)
		if !ok {
			report.Dropped++
			continue
		}
		if _, dup := seen[w.ID]; dup {
			report.Dropped++
			continue
		}
		seen[w.ID] = struct{}{}
		out = append(out, w)
	}
	report.Restored = len(out)
	return out, report
}

func decodeEntry(raw json.RawMessage) (*domain.Workout, bool) {
	var rec decodedRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, false
	}
	if rec.ID == nil || *rec.ID == "" {
		return nil, false
	}
	kind, ok := domain.ParseKind(rec.Type)
	if !ok {
		return nil, false
	}
	distance := firstFloat(rec.DistanceKm, rec.Distance)
	duration := firstFloat(rec.DurationMin, rec.Duration)
	if distance == nil || duration == nil || *distance <= 0 || *duration <= 0 {
		return nil, false
	}
	coords := rec.Coordinates
	if coords == nil {
		coords = rec.Coords
	}
	if len(coords) != 2 {
		return nil, false
	}

	w := domain.Workout{
		ID:          *rec.ID,
		Coords:      domain.Coordinates{Lat: coords[0], Lng: coords[1]},
		DistanceKm:  *distance,
		DurationMin: *duration,
		Kind:        kind,
		Label:       rec.Label,
	}
	if rec.CreatedAt != nil {
		w.CreatedAt = *rec.CreatedAt
	} else if rec.Date != nil {
		w.CreatedAt = *rec.Date
	}
	if w.Label == "" {
		w.Label = rec.Description
	}
	if w.Label == "" && !w.CreatedAt.IsZero() {
		w.Label = domain.Label(kind, w.CreatedAt)
	}

	switch kind {
	case domain.KindRunning:
		if rec.Cadence == nil || *rec.Cadence <= 0 {
			return nil, false
		}
		pace := firstFloat(rec.PaceMinPerKm, rec.Pace)
		if pace == nil {
			pace = floatPtr(domain.Pace(w.DistanceKm, w.DurationMin))
		}
		w.Running = &domain.RunningMetrics{Cadence: *rec.Cadence, PaceMinPerKm: *pace}
	case domain.KindCycling:
		elevation := firstFloat(rec.ElevationGainM, rec.ElevationGain)
		if elevation == nil {
			elevation = floatPtr(0)
		}
		speed := firstFloat(rec.SpeedKmPerH, rec.Speed)
		if speed == nil {
			speed = floatPtr(domain.Speed(w.DistanceKm, w.DurationMin))
		}
		w.Cycling = &domain.CyclingMetrics{ElevationGainM: *elevation, SpeedKmPerH: *speed}
	}

	interactions := 0
	if rec.InteractionCount != nil {
		interactions = *rec.InteractionCount
	} else if rec.Clicks != nil {
		interactions = *rec.Clicks
	}
	return domain.Restore(w, interactions), true
}

func firstFloat(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func floatPtr(v float64) *float64 {
	return &v
}
