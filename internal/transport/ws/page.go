package ws

import (
	"fmt"
	"log"
	"sync"

	"example.com/tracker/internal/domain"
	"example.com/tracker/internal/marker"
	"example.com/tracker/internal/session"
)

// Command is an outbound instruction to the page.
type Command struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// Writer sends commands to the page.
type Writer interface {
	WriteJSON(v interface{}) error
}

type viewData struct {
	View   marker.View `json:"view"`
	Center [2]float64  `json:"center"`
	Zoom   int         `json:"zoom"`
}

type markerData struct {
	View   marker.View   `json:"view"`
	Marker marker.Handle `json:"marker"`
	Coords *[2]float64   `json:"coords,omitempty"`
	Popup  *marker.Popup `json:"popup,omitempty"`
}

type setViewData struct {
	View        marker.View `json:"view"`
	Coords      [2]float64  `json:"coords"`
	Zoom        int         `json:"zoom"`
	Animate     bool        `json:"animate"`
	PanDuration float64     `json:"panDuration"`
}

type idData struct {
	ID string `json:"id"`
}

type messageData struct {
	Message string `json:"message"`
}

// Page drives the browser page over a websocket. It implements marker.Map and
// the session's Form, ListView and Page collaborators; every method becomes one
// command frame.
type Page struct {
	mu      sync.Mutex
	out     Writer
	logger  *log.Logger
	views   int
	markers int
	onClick map[marker.View]func(domain.Coordinates)
	err     error
}

// NewPage constructs a Page writing to out.
func NewPage(out Writer, logger *log.Logger) *Page {
	return &Page{
		out:     out,
		logger:  logger,
		onClick: make(map[marker.View]func(domain.Coordinates)),
	}
}

// Err returns the first write error, if any.
func (p *Page) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Page) send(cmdType string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return
	}
	if err := p.out.WriteJSON(Command{Type: cmdType, Data: data}); err != nil {
		p.err = fmt.Errorf("write %s: %w", cmdType, err)
		p.logger.Printf("%v", p.err)
	}
}

func pair(c domain.Coordinates) [2]float64 {
	return [2]float64{c.Lat, c.Lng}
}

// CreateView implements marker.Map.
func (p *Page) CreateView(center domain.Coordinates, zoom int) marker.View {
	p.mu.Lock()
	p.views++
	view := marker.View(fmt.Sprintf("map-%d", p.views))
	p.mu.Unlock()

	p.send("map.create", viewData{View: view, Center: pair(center), Zoom: zoom})
	return view
}

// AddMarker implements marker.Map.
func (p *Page) AddMarker(view marker.View, coords domain.Coordinates, popup marker.Popup) marker.Handle {
	p.mu.Lock()
	p.markers++
	handle := marker.Handle(fmt.Sprintf("marker-%d", p.markers))
	p.mu.Unlock()

	at := pair(coords)
	p.send("marker.add", markerData{View: view, Marker: handle, Coords: &at, Popup: &popup})
	return handle
}

// RemoveMarker implements marker.Map.
func (p *Page) RemoveMarker(view marker.View, handle marker.Handle) {
	p.send("marker.remove", markerData{View: view, Marker: handle})
}

// OnClick implements marker.Map. The callback fires when the page reports a
// map.click event.
func (p *Page) OnClick(view marker.View, callback func(domain.Coordinates)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onClick[view] = callback
}

// SetView implements marker.Map.
func (p *Page) SetView(view marker.View, coords domain.Coordinates, zoom int, anim marker.Animation) {
	p.send("map.set_view", setViewData{
		View:        view,
		Coords:      pair(coords),
		Zoom:        zoom,
		Animate:     anim.Animate,
		PanDuration: anim.PanDuration.Seconds(),
	})
}

// click delivers a map click to the registered callback; it reports false when
// no view has registered one yet.
func (p *Page) click(coords domain.Coordinates) bool {
	p.mu.Lock()
	callbacks := make([]func(domain.Coordinates), 0, len(p.onClick))
	for _, cb := range p.onClick {
		callbacks = append(callbacks, cb)
	}
	p.mu.Unlock()

	for _, cb := range callbacks {
		cb(coords)
	}
	return len(callbacks) > 0
}

// Show implements session.Form.
func (p *Page) Show() { p.send("form.show", nil) }

// Hide implements session.Form.
func (p *Page) Hide() { p.send("form.hide", nil) }

// Reset implements session.Form.
func (p *Page) Reset() { p.send("form.reset", nil) }

// Fill implements session.Form.
func (p *Page) Fill(values session.FormValues) { p.send("form.fill", values) }

// ShowMetricField implements session.Form.
func (p *Page) ShowMetricField(kind domain.Kind) {
	p.send("form.metric_field", struct {
		Type domain.Kind `json:"type"`
	}{kind})
}

// Render implements session.ListView.
func (p *Page) Render(entry session.ListEntry) { p.send("list.render", entry) }

// Update implements session.ListView.
func (p *Page) Update(entry session.ListEntry) { p.send("list.update", entry) }

// Remove implements session.ListView.
func (p *Page) Remove(id string) { p.send("list.remove", idData{ID: id}) }

// Clear implements session.ListView.
func (p *Page) Clear() { p.send("list.clear", nil) }

// Alert implements session.Page.
func (p *Page) Alert(message string) { p.send("page.alert", messageData{Message: message}) }

// Confirm implements session.Page.
func (p *Page) Confirm(prompt string) { p.send("page.confirm", messageData{Message: prompt}) }

// Reload implements session.Page.
func (p *Page) Reload() { p.send("page.reload", nil) }
