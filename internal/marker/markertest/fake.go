// Package markertest provides an in-memory map widget for tests.
package markertest

import (
	"fmt"

	"example.com/tracker/internal/domain"
	"example.com/tracker/internal/marker"
)

// SetViewCall records one SetView invocation.
type SetViewCall struct {
	Coords domain.Coordinates
	Zoom   int
	Anim   marker.Animation
}

// Map records widget calls and keeps the set of live markers.
type Map struct {
	Views    []domain.Coordinates
	Live     map[marker.Handle]domain.Coordinates
	Popups   map[marker.Handle]marker.Popup
	Added    int
	Removed  []marker.Handle
	SetViews []SetViewCall
	onClick  func(domain.Coordinates)
	next     int
}

// NewMap constructs an empty fake widget.
func NewMap() *Map {
	return &Map{
		Live:   make(map[marker.Handle]domain.Coordinates),
		Popups: make(map[marker.Handle]marker.Popup),
	}
}

// CreateView implements marker.Map.
func (m *Map) CreateView(center domain.Coordinates, zoom int) marker.View {
	m.Views = append(m.Views, center)
	return marker.View(fmt.Sprintf("view-%d", len(m.Views)))
}

// AddMarker implements marker.Map.
func (m *Map) AddMarker(_ marker.View, coords domain.Coordinates, popup marker.Popup) marker.Handle {
	m.next++
	m.Added++
	h := marker.Handle(fmt.Sprintf("marker-%d", m.next))
	m.Live[h] = coords
	m.Popups[h] = popup
	return h
}

// RemoveMarker implements marker.Map.
func (m *Map) RemoveMarker(_ marker.View, h marker.Handle) {
	m.Removed = append(m.Removed, h)
	delete(m.Live, h)
	delete(m.Popups, h)
}

// OnClick implements marker.Map.
func (m *Map) OnClick(_ marker.View, callback func(domain.Coordinates)) {
	m.onClick = callback
}

// SetView implements marker.Map.
func (m *Map) SetView(_ marker.View, coords domain.Coordinates, zoom int, anim marker.Animation) {
	m.SetViews = append(m.SetViews, SetViewCall{Coords: coords, Zoom: zoom, Anim: anim})
}

// Click simulates a user click on the map. It returns false before OnClick.
func (m *Map) Click(coords domain.Coordinates) bool {
	if m.onClick == nil {
		return false
	}
	m.onClick(coords)
	return true
}
