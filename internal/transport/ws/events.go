package ws

import (
	"encoding/json"
	"errors"
	"fmt"

	"example.com/tracker/internal/domain"
	"example.com/tracker/internal/session"
)

// Inbound event types reported by the page.
const (
	EventMapReady          = "map.ready"
	EventGeolocationFailed = "geolocation.failed"
	EventMapClick          = "map.click"
	EventFormSubmit        = "form.submit"
	EventFormCancel        = "form.cancel"
	EventTypeChanged       = "form.type_changed"
	EventWorkoutDelete     = "workout.delete"
	EventWorkoutEdit       = "workout.edit"
	EventWorkoutFocus      = "workout.focus"
	EventWorkoutsClear     = "workouts.clear"
	EventConfirmResult     = "confirm.result"
)

var knownEvents = map[string]struct{}{
	EventMapReady:          {},
	EventGeolocationFailed: {},
	EventMapClick:          {},
	EventFormSubmit:        {},
	EventFormCancel:        {},
	EventTypeChanged:       {},
	EventWorkoutDelete:     {},
	EventWorkoutEdit:       {},
	EventWorkoutFocus:      {},
	EventWorkoutsClear:     {},
	EventConfirmResult:     {},
}

var errUnknownEvent = errors.New("unknown event type")

// Event is one decoded frame from the page.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type coordsData struct {
	Coords *[2]float64 `json:"coords"`
}

type centerData struct {
	Center *[2]float64 `json:"center"`
}

type typeData struct {
	Type string `json:"type"`
}

type confirmData struct {
	OK bool `json:"ok"`
}

// DecodeEvent parses a raw frame. It rejects frames without a known type.
func DecodeEvent(raw []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if _, ok := knownEvents[ev.Type]; !ok {
		return Event{}, fmt.Errorf("%w: %q", errUnknownEvent, ev.Type)
	}
	return ev, nil
}

func (ev Event) decodeData(v interface{}) error {
	if len(ev.Data) == 0 {
		return fmt.Errorf("%s: missing data", ev.Type)
	}
	if err := json.Unmarshal(ev.Data, v); err != nil {
		return fmt.Errorf("%s: %w", ev.Type, err)
	}
	return nil
}

func (ev Event) coords() (domain.Coordinates, error) {
	var d coordsData
	if err := ev.decodeData(&d); err != nil {
		return domain.Coordinates{}, err
	}
	if d.Coords == nil {
		return domain.Coordinates{}, fmt.Errorf("%s: missing coords", ev.Type)
	}
	return domain.Coordinates{Lat: d.Coords[0], Lng: d.Coords[1]}, nil
}

func (ev Event) center() (domain.Coordinates, error) {
	var d centerData
	if err := ev.decodeData(&d); err != nil {
		return domain.Coordinates{}, err
	}
	if d.Center == nil {
		return domain.Coordinates{}, fmt.Errorf("%s: missing center", ev.Type)
	}
	return domain.Coordinates{Lat: d.Center[0], Lng: d.Center[1]}, nil
}

func (ev Event) id() (string, error) {
	var d idData
	if err := ev.decodeData(&d); err != nil {
		return "", err
	}
	if d.ID == "" {
		return "", fmt.Errorf("%s: missing id", ev.Type)
	}
	return d.ID, nil
}

func (ev Event) formValues() (session.FormValues, error) {
	var values session.FormValues
	err := ev.decodeData(&values)
	return values, err
}
