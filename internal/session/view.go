package session

import (
	"strconv"

	"example.com/tracker/internal/domain"
)

// ListEntry is the view model for one rendered list row.
type ListEntry struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Label       string  `json:"label"`
	Icon        string  `json:"icon"`
	DistanceKm  float64 `json:"distanceKm"`
	DurationMin float64 `json:"durationMin"`
	Rate        string  `json:"rate"`
	RateUnit    string  `json:"rateUnit"`
	Extra       float64 `json:"extra"`
	ExtraUnit   string  `json:"extraUnit"`
}

// EntryFor builds the list row for a workout.
func EntryFor(w *domain.Workout) ListEntry {
	e := ListEntry{
		ID:          w.ID,
		Type:        string(w.Kind),
		Label:       w.Label,
		Icon:        w.Kind.Icon(),
		DistanceKm:  w.DistanceKm,
		DurationMin: w.DurationMin,
	}
	switch {
	case w.Running != nil:
		e.Rate = strconv.FormatFloat(w.Running.PaceMinPerKm, 'f', 1, 64)
		e.RateUnit = "min/km"
		e.Extra = w.Running.Cadence
		e.ExtraUnit = "spm"
	case w.Cycling != nil:
		e.Rate = strconv.FormatFloat(w.Cycling.SpeedKmPerH, 'f', 1, 64)
		e.RateUnit = "km/h"
		e.Extra = w.Cycling.ElevationGainM
		e.ExtraUnit = "m"
	}
	return e
}
