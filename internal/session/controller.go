// Package session runs one page lifetime: it restores the snapshot and keeps the
// store, the map markers, the rendered list and the snapshot in step as page
// events arrive.
package session

import (
	"context"
	"errors"
	"log"
	"time"

	"example.com/tracker/internal/domain"
	"example.com/tracker/internal/marker"
	"example.com/tracker/internal/observability"
	"example.com/tracker/internal/persistence"
)

const (
	noticeInvalidInput  = "Inputs have to be positive numbers!"
	noticeNoGeolocation = "Could not get your position, try again !"
	promptClearAll      = "Are you sure you want delete all workouts ?"
)

// State is the controller's form state.
type State int

const (
	Idle State = iota
	Composing
	Editing
)

func (s State) String() string {
	switch s {
	case Composing:
		return "composing"
	case Editing:
		return "editing"
	default:
		return "idle"
	}
}

// EditMode selects how editing an existing workout behaves.
type EditMode string

const (
	// EditReplace keeps the workout until the edited form is submitted, then
	// revises it in place with the same ID. Cancelling leaves it untouched.
	EditReplace EditMode = "replace"
	// EditRecreate deletes the workout as soon as editing starts; submitting
	// creates a new workout with a new ID. Cancelling loses the workout.
	EditRecreate EditMode = "recreate"
)

// ParseEditMode maps a config value to an EditMode.
func ParseEditMode(raw string) (EditMode, bool) {
	switch EditMode(raw) {
	case EditReplace, EditRecreate:
		return EditMode(raw), true
	}
	return "", false
}

// Form is the page's workout form.
type Form interface {
	Show()
	Hide()
	Reset()
	Fill(FormValues)
	ShowMetricField(domain.Kind)
}

// ListView is the page's rendered workout list.
type ListView interface {
	Render(ListEntry)
	Update(ListEntry)
	Remove(id string)
	Clear()
}

// Page covers dialogs and reloads.
type Page interface {
	Alert(message string)
	Confirm(prompt string)
	Reload()
}

// Collaborators are the external pieces a Controller drives.
type Collaborators struct {
	Map     marker.Map
	Form    Form
	List    ListView
	Page    Page
	Storage persistence.Storage
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger overrides the logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithSnapshotKey overrides the storage key.
func WithSnapshotKey(key string) Option {
	return func(c *Controller) {
		c.snapshotKey = key
	}
}

// WithZoom sets the zoom used when creating and focusing the map.
func WithZoom(zoom int) Option {
	return func(c *Controller) {
		c.zoom = zoom
	}
}

// WithEditMode selects the edit behaviour.
func WithEditMode(mode EditMode) Option {
	return func(c *Controller) {
		c.editMode = mode
	}
}

// WithClock overrides the clock used for new workouts.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// Controller is the event-driven session. Every method handles one page event
// and runs to completion; it must be called from a single goroutine.
type Controller struct {
	widget  marker.Map
	form    Form
	list    ListView
	page    Page
	storage persistence.Storage

	store   *domain.Store
	markers *marker.Registry

	logger      *log.Logger
	snapshotKey string
	zoom        int
	editMode    EditMode
	now         func() time.Time

	state        State
	editingID    string
	pinned       domain.Coordinates
	pendingClear bool
}

// NewController constructs a Controller in the Idle state with an empty store.
func NewController(c Collaborators, opts ...Option) *Controller {
	ctrl := &Controller{
		widget:      c.Map,
		form:        c.Form,
		list:        c.List,
		page:        c.Page,
		storage:     c.Storage,
		store:       domain.NewStore(),
		logger:      log.New(log.Writer(), "[session] ", log.LstdFlags|log.Lshortfile),
		snapshotKey: persistence.DefaultSnapshotKey,
		zoom:        13,
		editMode:    EditReplace,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(ctrl)
	}
	ctrl.markers = marker.NewRegistry(c.Map, ctrl.zoom)
	return ctrl
}

// State reports the current form state.
func (c *Controller) State() State { return c.state }

// EditingID returns the workout being edited, if any.
func (c *Controller) EditingID() string { return c.editingID }

// Workouts returns the stored workouts in creation order.
func (c *Controller) Workouts() []*domain.Workout { return c.store.All() }

// Markers exposes the registry for lookups.
func (c *Controller) Markers() *marker.Registry { return c.markers }

// Restore loads the snapshot and renders every restored workout. Markers are
// placed once the map reports ready.
func (c *Controller) Restore(ctx context.Context) {
	workouts, report, err := persistence.Load(ctx, c.storage, c.snapshotKey)
	if err != nil {
		c.logger.Printf("snapshot read failed, starting empty: %v", err)
	}
	if report.Malformed {
		c.logger.Printf("snapshot %q is malformed, starting empty", c.snapshotKey)
	}
	if report.Dropped > 0 {
		c.logger.Printf("dropped %d malformed snapshot entries", report.Dropped)
	}
	observability.RecordRestore(report.Restored, report.Dropped)
	if len(workouts) == 0 {
		return
	}

	c.store.ReplaceAll(workouts)
	for _, w := range c.store.All() {
		c.list.Render(EntryFor(w))
		c.placeMarker(w)
	}
}

// MapReady creates the map view centred on the user's position and places the
// markers that were deferred during restore.
func (c *Controller) MapReady(center domain.Coordinates) {
	if c.markers.Ready() {
		return
	}
	view := c.widget.CreateView(center, c.zoom)
	c.widget.OnClick(view, c.MapClicked)
	c.markers.Attach(view)
	for _, w := range c.store.All() {
		c.placeMarker(w)
	}
}

// GeolocationFailed tells the user; the map stays unset.
func (c *Controller) GeolocationFailed() {
	c.page.Alert(noticeNoGeolocation)
}

// MapClicked pins coordinates and opens the form.
func (c *Controller) MapClicked(coords domain.Coordinates) {
	if c.state == Editing {
		return
	}
	c.pinned = coords
	c.state = Composing
	c.form.Show()
}

// TypeChanged swaps which metric field the form shows.
func (c *Controller) TypeChanged(raw string) {
	kind, ok := domain.ParseKind(raw)
	if !ok {
		return
	}
	c.form.ShowMetricField(kind)
}

// Submit validates the form and records the workout.
func (c *Controller) Submit(ctx context.Context, values FormValues) {
	if c.state == Idle {
		c.logger.Printf("ignoring submit with no open form")
		return
	}

	in, err := values.Input(c.pinned)
	if err != nil {
		c.reject(values.Type, err)
		return
	}

	if c.state == Editing && c.editMode == EditReplace {
		if existing, ok := c.store.FindByID(c.editingID); ok {
			c.revise(ctx, existing, in)
			return
		}
	}

	w, err := domain.New(in, domain.WithClock(c.now))
	if err != nil {
		c.reject(values.Type, err)
		return
	}
	if err := c.store.Add(w); err != nil {
		c.logger.Printf("add workout %s: %v", w.ID, err)
		return
	}
	c.placeMarker(w)
	c.list.Render(EntryFor(w))
	c.persist(ctx)
	c.closeForm()
	observability.RecordWorkoutMutation(string(w.Kind), "create")
}

func (c *Controller) revise(ctx context.Context, existing *domain.Workout, in domain.Input) {
	revised, err := existing.Revise(in)
	if err != nil {
		c.reject(string(in.Kind), err)
		return
	}
	if err := c.store.Replace(revised); err != nil {
		c.logger.Printf("replace workout %s: %v", revised.ID, err)
		return
	}
	c.markers.Remove(revised.ID)
	c.placeMarker(revised)
	c.list.Update(EntryFor(revised))
	c.persist(ctx)
	c.closeForm()
	observability.RecordWorkoutMutation(string(revised.Kind), "revise")
}

// Cancel closes the form without recording anything.
func (c *Controller) Cancel() {
	c.closeForm()
}

// Delete removes a workout from the list, the map, the store and the snapshot.
// Unknown IDs are ignored.
func (c *Controller) Delete(ctx context.Context, id string) {
	w, ok := c.store.FindByID(id)
	if !ok {
		return
	}
	c.remove(ctx, w)
	if c.state == Editing && c.editingID == id {
		c.closeForm()
	}
}

func (c *Controller) remove(ctx context.Context, w *domain.Workout) {
	c.list.Remove(w.ID)
	c.markers.Remove(w.ID)
	c.store.Remove(w.ID)
	c.persist(ctx)
	observability.RecordWorkoutMutation(string(w.Kind), "delete")
}

// Edit fills the form with a workout's values. In EditRecreate mode the
// workout is deleted immediately.
func (c *Controller) Edit(ctx context.Context, id string) {
	w, ok := c.store.FindByID(id)
	if !ok {
		return
	}
	c.form.Fill(ValuesFor(w))
	c.form.ShowMetricField(w.Kind)
	c.form.Show()
	c.state = Editing
	c.editingID = id
	c.pinned = w.Coords

	if c.editMode == EditRecreate {
		c.remove(ctx, w)
		c.editingID = ""
	}
}

// Focus pans the map to a workout and counts the interaction. It does nothing
// before the map exists.
func (c *Controller) Focus(ctx context.Context, id string) {
	if !c.markers.Ready() {
		return
	}
	w, ok := c.store.FindByID(id)
	if !ok {
		return
	}
	if !c.markers.Focus(w) {
		return
	}
	w.RecordInteraction()
	c.persist(ctx)
}

// RequestClear asks the user to confirm deleting everything.
func (c *Controller) RequestClear() {
	c.pendingClear = true
	c.page.Confirm(promptClearAll)
}

// ConfirmClear applies the answer to a pending RequestClear.
func (c *Controller) ConfirmClear(ctx context.Context, ok bool) {
	if !c.pendingClear {
		return
	}
	c.pendingClear = false
	if !ok {
		return
	}

	if err := c.storage.Clear(ctx); err != nil {
		c.logger.Printf("clear storage: %v", err)
	}
	c.markers.Reset()
	c.list.Clear()
	c.store.ReplaceAll(nil)
	c.closeForm()
	c.page.Reload()
}

func (c *Controller) reject(rawKind string, err error) {
	kind, _ := domain.ParseKind(rawKind)
	observability.RecordValidationFailure(string(kind))
	if !errors.Is(err, ErrInvalidInput) && !errors.Is(err, domain.ErrInvalidWorkout) {
		c.logger.Printf("unexpected validation error: %v", err)
	}
	c.page.Alert(noticeInvalidInput)
}

func (c *Controller) placeMarker(w *domain.Workout) {
	if !c.markers.Ready() {
		return
	}
	if err := c.markers.Place(w); err != nil {
		c.logger.Printf("place marker %s: %v", w.ID, err)
	}
}

func (c *Controller) persist(ctx context.Context) {
	start := time.Now()
	err := persistence.Save(ctx, c.storage, c.snapshotKey, c.store.All())
	observability.RecordSnapshotWrite(err, time.Since(start))
	if err != nil {
		c.logger.Printf("persist snapshot: %v", err)
	}
}

func (c *Controller) closeForm() {
	c.form.Reset()
	c.form.Hide()
	c.state = Idle
	c.editingID = ""
}
