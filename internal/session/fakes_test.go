package session

import (
	"context"
	"errors"

	"example.com/tracker/internal/domain"
)

type fakeForm struct {
	visible     bool
	filled      *FormValues
	metricField domain.Kind
	resets      int
}

func (f *fakeForm) Show()  { f.visible = true }
func (f *fakeForm) Hide()  { f.visible = false }
func (f *fakeForm) Reset() { f.resets++; f.filled = nil }
func (f *fakeForm) Fill(v FormValues) {
	f.filled = &v
}
func (f *fakeForm) ShowMetricField(k domain.Kind) { f.metricField = k }

type fakeList struct {
	rows    []ListEntry
	renders int
	updates int
}

func (l *fakeList) Render(e ListEntry) {
	l.renders++
	l.rows = append(l.rows, e)
}

func (l *fakeList) Update(e ListEntry) {
	l.updates++
	for i := range l.rows {
		if l.rows[i].ID == e.ID {
			l.rows[i] = e
		}
	}
}

func (l *fakeList) Remove(id string) {
	for i := range l.rows {
		if l.rows[i].ID == id {
			l.rows = append(l.rows[:i], l.rows[i+1:]...)
			return
		}
	}
}

func (l *fakeList) Clear() { l.rows = nil }

func (l *fakeList) ids() []string {
	out := make([]string, 0, len(l.rows))
	for _, r := range l.rows {
		out = append(out, r.ID)
	}
	return out
}

type fakePage struct {
	alerts   []string
	confirms []string
	reloads  int
}

func (p *fakePage) Alert(msg string)     { p.alerts = append(p.alerts, msg) }
func (p *fakePage) Confirm(prompt string) { p.confirms = append(p.confirms, prompt) }
func (p *fakePage) Reload()              { p.reloads++ }

type failingStorage struct{}

func (failingStorage) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("storage offline")
}

func (failingStorage) Set(context.Context, string, []byte) error {
	return errors.New("storage offline")
}

func (failingStorage) Clear(context.Context) error {
	return errors.New("storage offline")
}
