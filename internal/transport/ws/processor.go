// Package ws connects a browser page to a session over a websocket: page events
// are decoded and applied to the session one at a time, and the session's
// effects go back as command frames.
package ws

import (
	"context"
	"errors"
	"log"

	"example.com/tracker/internal/observability"
	"example.com/tracker/internal/session"
)

// Reader exposes the part of a websocket connection the processor reads from.
type Reader interface {
	ReadMessage() (messageType int, p []byte, err error)
}

// Option configures optional behaviour for the Processor.
type Option func(*Processor)

// WithLogger overrides the logger used to report errors.
func WithLogger(logger *log.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// Processor reads page events, decodes them and applies them to a session
// controller in arrival order.
type Processor struct {
	reader Reader
	page   *Page
	ctrl   *session.Controller
	logger *log.Logger
}

// NewProcessor constructs a Processor for one connection.
func NewProcessor(reader Reader, page *Page, ctrl *session.Controller, opts ...Option) *Processor {
	p := &Processor{
		reader: reader,
		page:   page,
		ctrl:   ctrl,
		logger: log.New(log.Writer(), "[ws] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes events until the connection fails, a command cannot be
// written, or the context is cancelled.
func (p *Processor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, raw, err := p.reader.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		}

		event, decodeErr := DecodeEvent(raw)
		if decodeErr != nil {
			p.logger.Printf("decode error: %v", decodeErr)
			observability.RecordPageEvent("unknown", "decode_error")
			continue
		}

		if handleErr := p.dispatch(ctx, event); handleErr != nil {
			p.logger.Printf("handler error (type=%s): %v", event.Type, handleErr)
			observability.RecordPageEvent(event.Type, "error")
			continue
		}
		observability.RecordPageEvent(event.Type, "ok")

		if writeErr := p.page.Err(); writeErr != nil {
			return writeErr
		}
	}
}

func (p *Processor) dispatch(ctx context.Context, ev Event) error {
	switch ev.Type {
	case EventMapReady:
		center, err := ev.center()
		if err != nil {
			return err
		}
		p.ctrl.MapReady(center)
	case EventGeolocationFailed:
		p.ctrl.GeolocationFailed()
	case EventMapClick:
		coords, err := ev.coords()
		if err != nil {
			return err
		}
		if !p.page.click(coords) {
			return errors.New("map click before the map exists")
		}
	case EventFormSubmit:
		values, err := ev.formValues()
		if err != nil {
			return err
		}
		p.ctrl.Submit(ctx, values)
	case EventFormCancel:
		p.ctrl.Cancel()
	case EventTypeChanged:
		var d typeData
		if err := ev.decodeData(&d); err != nil {
			return err
		}
		p.ctrl.TypeChanged(d.Type)
	case EventWorkoutDelete:
		id, err := ev.id()
		if err != nil {
			return err
		}
		p.ctrl.Delete(ctx, id)
	case EventWorkoutEdit:
		id, err := ev.id()
		if err != nil {
			return err
		}
		p.ctrl.Edit(ctx, id)
	case EventWorkoutFocus:
		id, err := ev.id()
		if err != nil {
			return err
		}
		p.ctrl.Focus(ctx, id)
	case EventWorkoutsClear:
		p.ctrl.RequestClear()
	case EventConfirmResult:
		var d confirmData
		if err := ev.decodeData(&d); err != nil {
			return err
		}
		p.ctrl.ConfirmClear(ctx, d.OK)
	default:
		return errUnknownEvent
	}
	return nil
}
