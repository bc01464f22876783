// Package domain defines the workout model and the in-memory store that owns it.
package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidWorkout is returned when workout metrics fail validation.
	ErrInvalidWorkout = errors.New("invalid workout")
	// ErrDuplicateID is returned when a store already holds (or once held) a workout ID.
	ErrDuplicateID = errors.New("workout id already used")
	// ErrNotFound is returned when a workout cannot be located.
	ErrNotFound = errors.New("workout not found")
)

// Kind identifies the workout variant.
type Kind string

const (
	KindRunning Kind = "running"
	KindCycling Kind = "cycling"
)

// ParseKind normalises a raw form or snapshot value.
func ParseKind(raw string) (Kind, bool) {
	switch Kind(strings.ToLower(strings.TrimSpace(raw))) {
	case KindRunning:
		return KindRunning, true
	case KindCycling:
		return KindCycling, true
	}
	return "", false
}

// Title returns the capitalised kind name used in labels.
func (k Kind) Title() string {
	if k == "" {
		return ""
	}
	s := string(k)
	return strings.ToUpper(s[:1]) + s[1:]
}

// Icon returns the glyph shown next to the kind in popups and list rows.
func (k Kind) Icon() string {
	if k == KindCycling {
		return "🚴‍♀️"
	}
	return "🏃‍♂️"
}

// Coordinates is a latitude/longitude pair.
type Coordinates struct {
	Lat float64
	Lng float64
}

// RunningMetrics holds the running-only fields.
type RunningMetrics struct {
	Cadence      float64 // steps/min
	PaceMinPerKm float64
}

// CyclingMetrics holds the cycling-only fields.
type CyclingMetrics struct {
	ElevationGainM float64
	SpeedKmPerH    float64
}

// Workout is one logged session. Exactly one of Running or Cycling is set.
type Workout struct {
	ID          string
	CreatedAt   time.Time
	Coords      Coordinates
	DistanceKm  float64
	DurationMin float64
	Kind        Kind
	Label       string
	Running     *RunningMetrics
	Cycling     *CyclingMetrics

	interactions int
}

// Input captures the values needed to construct a workout.
type Input struct {
	Kind           Kind
	Coords         Coordinates
	DistanceKm     float64
	DurationMin    float64
	Cadence        float64
	ElevationGainM float64
}

// Option configures workout construction.
type Option func(*buildOptions)

type buildOptions struct {
	now func() time.Time
}

// WithClock overrides the clock used for CreatedAt and the label.
func WithClock(now func() time.Time) Option {
	return func(o *buildOptions) {
		o.now = now
	}
}

// New validates the input and builds a workout with derived metrics and label.
func New(in Input, opts ...Option) (*Workout, error) {
	o := buildOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generate workout id: %w", err)
	}
	return build(id.String(), o.now(), in), nil
}

// NewRunning builds a running workout.
func NewRunning(coords Coordinates, distanceKm, durationMin, cadence float64, opts ...Option) (*Workout, error) {
	return New(Input{Kind: KindRunning, Coords: coords, DistanceKm: distanceKm, DurationMin: durationMin, Cadence: cadence}, opts...)
}

// NewCycling builds a cycling workout.
func NewCycling(coords Coordinates, distanceKm, durationMin, elevationGainM float64, opts ...Option) (*Workout, error) {
	return New(Input{Kind: KindCycling, Coords: coords, DistanceKm: distanceKm, DurationMin: durationMin, ElevationGainM: elevationGainM}, opts...)
}

// Validate checks the invariants shared by construction and revision.
func (in Input) Validate() error {
	if !finite(in.DistanceKm, in.DurationMin, in.Cadence, in.ElevationGainM, in.Coords.Lat, in.Coords.Lng) {
		return fmt.Errorf("%w: metrics must be finite numbers", ErrInvalidWorkout)
	}
	if in.DistanceKm <= 0 {
		return fmt.Errorf("%w: distance must be positive", ErrInvalidWorkout)
	}
	if in.DurationMin <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidWorkout)
	}
	switch in.Kind {
	case KindRunning:
		if in.Cadence <= 0 {
			return fmt.Errorf("%w: cadence must be positive", ErrInvalidWorkout)
		}
	case KindCycling:
		if in.ElevationGainM < 0 {
			return fmt.Errorf("%w: elevation gain cannot be negative", ErrInvalidWorkout)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidWorkout, in.Kind)
	}
	return nil
}

// Revise builds a replacement for w from new metrics. The replacement keeps the
// ID, creation time, coordinates and interaction count of w.
func (w *Workout) Revise(in Input) (*Workout, error) {
	in.Coords = w.Coords
	if err := in.Validate(); err != nil {
		return nil, err
	}
	revised := build(w.ID, w.CreatedAt, in)
	revised.interactions = w.interactions
	return revised, nil
}

func build(id string, createdAt time.Time, in Input) *Workout {
	w := &Workout{
		ID:          id,
		CreatedAt:   createdAt,
		Coords:      in.Coords,
		DistanceKm:  in.DistanceKm,
		DurationMin: in.DurationMin,
		Kind:        in.Kind,
		Label:       Label(in.Kind, createdAt),
	}
	switch in.Kind {
	case KindRunning:
		w.Running = &RunningMetrics{Cadence: in.Cadence, PaceMinPerKm: Pace(in.DistanceKm, in.DurationMin)}
	case KindCycling:
		w.Cycling = &CyclingMetrics{ElevationGainM: in.ElevationGainM, SpeedKmPerH: Speed(in.DistanceKm, in.DurationMin)}
	}
	return w
}

// Restore rebuilds a workout from persisted fields without re-running
// validation or recomputing the label. Used by snapshot decoding only.
func Restore(w Workout, interactions int) *Workout {
	w.interactions = interactions
	return &w
}

// Label formats "<Kind> on <Month> <day>".
func Label(kind Kind, at time.Time) string {
	return fmt.Sprintf("%s on %s %d", kind.Title(), at.Month(), at.Day())
}

// Pace returns minutes per kilometre.
func Pace(distanceKm, durationMin float64) float64 {
	return durationMin / distanceKm
}

// Speed returns kilometres per hour.
func Speed(distanceKm, durationMin float64) float64 {
	return distanceKm / (durationMin / 60)
}

// RecordInteraction bumps the focus counter.
func (w *Workout) RecordInteraction() {
	w.interactions++
}

// Interactions reports how many times the workout was focused on the map.
func (w *Workout) Interactions() int {
	return w.interactions
}

// Equal compares workouts by identity.
func (w *Workout) Equal(other *Workout) bool {
	if w == nil || other == nil {
		return w == other
	}
	return w.ID == other.ID
}

// Input returns the metrics of w in constructor form.
func (w *Workout) Input() Input {
	in := Input{Kind: w.Kind, Coords: w.Coords, DistanceKm: w.DistanceKm, DurationMin: w.DurationMin}
	if w.Running != nil {
		in.Cadence = w.Running.Cadence
	}
	if w.Cycling != nil {
		in.ElevationGainM = w.Cycling.ElevationGainM
	}
	return in
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
