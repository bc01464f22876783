// Package marker tracks which map marker belongs to which workout.
package marker

import (
	"errors"
	"fmt"
	"time"

	"example.com/tracker/internal/domain"
)

var (
	// ErrMapNotReady is returned by Place before the map view exists.
	ErrMapNotReady = errors.New("map not ready")
	// ErrAlreadyPlaced is returned when a workout already has a marker.
	ErrAlreadyPlaced = errors.New("marker already placed")
)

// View identifies a map view created by the widget.
type View string

// Handle identifies one marker placed on a view.
type Handle string

// Popup configures the popup bound to a marker.
type Popup struct {
	MaxWidth     int    `json:"maxWidth"`
	MinWidth     int    `json:"minWidth"`
	AutoClose    bool   `json:"autoClose"`
	CloseOnClick bool   `json:"closeOnClick"`
	ClassName    string `json:"className"`
	Content      string `json:"content"`
}

// Animation configures SetView transitions.
type Animation struct {
	Animate     bool          `json:"animate"`
	PanDuration time.Duration `json:"-"`
}

// Map is the external map widget.
type Map interface {
	CreateView(center domain.Coordinates, zoom int) View
	AddMarker(view View, coords domain.Coordinates, popup Popup) Handle
	RemoveMarker(view View, marker Handle)
	OnClick(view View, callback func(domain.Coordinates))
	SetView(view View, coords domain.Coordinates, zoom int, anim Animation)
}

// Registry maps workout IDs to placed markers. The workout never references its
// marker; lookups go through Marker.
type Registry struct {
	widget  Map
	view    View
	ready   bool
	zoom    int
	markers map[string]Handle
}

// NewRegistry constructs a Registry that focuses at the given zoom.
func NewRegistry(widget Map, zoom int) *Registry {
	return &Registry{
		widget:  widget,
		zoom:    zoom,
		markers: make(map[string]Handle),
	}
}

// Attach records the view created once the map is ready.
func (r *Registry) Attach(view View) {
	r.view = view
	r.ready = true
}

// Ready reports whether a view is attached.
func (r *Registry) Ready() bool {
	return r.ready
}

// PopupFor builds the popup shown for a workout.
func PopupFor(w *domain.Workout) Popup {
	return Popup{
		MaxWidth:     250,
		MinWidth:     100,
		AutoClose:    false,
		CloseOnClick: false,
		ClassName:    fmt.Sprintf("%s-popup", w.Kind),
		Content:      fmt.Sprintf("%s %s", w.Kind.Icon(), w.Label),
	}
}

// Place adds a marker for w. A second Place for the same ID without Remove in
// between is rejected and the widget is not touched.
func (r *Registry) Place(w *domain.Workout) error {
	if !r.ready {
		return ErrMapNotReady
	}
	if _, ok := r.markers[w.ID]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyPlaced, w.ID)
	}
	r.markers[w.ID] = r.widget.AddMarker(r.view, w.Coords, PopupFor(w))
	return nil
}

// Remove drops the marker for id if one is registered.
func (r *Registry) Remove(id string) {
	handle, ok := r.markers[id]
	if !ok {
		return
	}
	delete(r.markers, id)
	if r.ready {
		r.widget.RemoveMarker(r.view, handle)
	}
}

// Focus pans the map to w. It does nothing before the map is ready or for a
// workout without a marker.
func (r *Registry) Focus(w *domain.Workout) bool {
	if !r.ready || w == nil {
		return false
	}
	if _, ok := r.markers[w.ID]; !ok {
		return false
	}
	r.widget.SetView(r.view, w.Coords, r.zoom, Animation{Animate: true, PanDuration: time.Second})
	return true
}

// Marker returns the handle placed for id.
func (r *Registry) Marker(id string) (Handle, bool) {
	h, ok := r.markers[id]
	return h, ok
}

// Len returns the number of placed markers.
func (r *Registry) Len() int {
	return len(r.markers)
}

// Reset removes every placed marker.
func (r *Registry) Reset() {
	for id := range r.markers {
		r.Remove(id)
	}
}
