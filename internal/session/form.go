package session

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"example.com/tracker/internal/domain"
)

// ErrInvalidInput is returned when form values fail validation.
var ErrInvalidInput = errors.New("inputs have to be positive numbers")

// FormValues are the raw field values as typed into the page form.
type FormValues struct {
	Type      string `json:"type"`
	Distance  string `json:"distance"`
	Duration  string `json:"duration"`
	Cadence   string `json:"cadence"`
	Elevation string `json:"elevation"`
}

// Input parses and validates the values into constructor input pinned at coords.
// Blank fields read as zero, matching the page's numeric coercion.
func (v FormValues) Input(coords domain.Coordinates) (domain.Input, error) {
	kind, ok := domain.ParseKind(v.Type)
	if !ok {
		return domain.Input{}, fmt.Errorf("%w: unknown type %q", ErrInvalidInput, v.Type)
	}
	distance := parseNumber(v.Distance)
	duration := parseNumber(v.Duration)
	in := domain.Input{Kind: kind, Coords: coords, DistanceKm: distance, DurationMin: duration}

	switch kind {
	case domain.KindRunning:
		cadence := parseNumber(v.Cadence)
		if !allFinite(distance, duration, cadence) || !allPositive(distance, duration, cadence) {
			return domain.Input{}, ErrInvalidInput
		}
		in.Cadence = cadence
	case domain.KindCycling:
		elevation := parseNumber(v.Elevation)
		if !allFinite(distance, duration, elevation) || !allPositive(distance, duration) || elevation < 0 {
			return domain.Input{}, ErrInvalidInput
		}
		in.ElevationGainM = elevation
	}
	return in, nil
}

// ValuesFor renders a workout back into form values for editing.
func ValuesFor(w *domain.Workout) FormValues {
	v := FormValues{
		Type:     string(w.Kind),
		Distance: formatNumber(w.DistanceKm),
		Duration: formatNumber(w.DurationMin),
	}
	if w.Running != nil {
		v.Cadence = formatNumber(w.Running.Cadence)
	}
	if w.Cycling != nil {
		v.Elevation = formatNumber(w.Cycling.ElevationGainM)
	}
	return v
}

func parseNumber(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func allFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func allPositive(values ...float64) bool {
	for _, v := range values {
		if v <= 0 {
			return false
		}
	}
	return true
}
