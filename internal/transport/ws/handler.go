package ws

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"example.com/tracker/internal/observability"
	"example.com/tracker/internal/persistence"
	"example.com/tracker/internal/session"
)

// HandlerConfig configures the websocket endpoint.
type HandlerConfig struct {
	// BaseContext bounds every session; cancelling it ends open connections.
	BaseContext context.Context
	// AllowedOrigins lists browser origins allowed to connect. Empty means
	// same-origin only; "*" allows any origin.
	AllowedOrigins []string
	// SessionOptions are applied to every session controller.
	SessionOptions []session.Option
	Logger         *log.Logger
}

// Handler upgrades requests to websockets and runs one session per connection.
type Handler struct {
	upgrader websocket.Upgrader
	storage  persistence.Storage
	base     context.Context
	opts     []session.Option
	logger   *log.Logger
}

// NewHandler constructs a Handler persisting sessions to storage.
func NewHandler(storage persistence.Storage, cfg HandlerConfig) *Handler {
	h := &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		storage: storage,
		base:    cfg.BaseContext,
		opts:    cfg.SessionOptions,
		logger:  cfg.Logger,
	}
	if h.base == nil {
		h.base = context.Background()
	}
	if h.logger == nil {
		h.logger = log.New(log.Writer(), "[ws] ", log.LstdFlags|log.Lshortfile)
	}
	if len(cfg.AllowedOrigins) > 0 {
		h.upgrader.CheckOrigin = originChecker(cfg.AllowedOrigins)
	}
	return h
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, candidate := range allowed {
			if candidate == "*" || strings.EqualFold(candidate, origin) {
				return true
			}
		}
		return false
	}
}

// ServeHTTP runs a session for the lifetime of the connection.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	observability.SessionOpened()
	defer observability.SessionClosed()

	ctx, cancel := context.WithCancel(h.base)
	defer cancel()
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	page := NewPage(conn, h.logger)
	opts := append([]session.Option{session.WithLogger(h.logger)}, h.opts...)
	ctrl := session.NewController(session.Collaborators{
		Map:     page,
		Form:    page,
		List:    page,
		Page:    page,
		Storage: h.storage,
	}, opts...)

	ctrl.Restore(ctx)

	err = NewProcessor(conn, page, ctrl, WithLogger(h.logger)).Run(ctx)
	switch {
	case err == nil,
		errors.Is(err, context.Canceled),
		websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
	default:
		h.logger.Printf("session ended: %v", err)
	}
}
