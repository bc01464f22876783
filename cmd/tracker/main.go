package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/cli/browser"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"example.com/tracker/internal/api"
	"example.com/tracker/internal/config"
	"example.com/tracker/internal/persistence"
	"example.com/tracker/internal/persistence/postgres"
	"example.com/tracker/internal/persistence/sqlite"
	"example.com/tracker/internal/session"
	httptransport "example.com/tracker/internal/transport/http"
	"example.com/tracker/internal/transport/ws"
	"example.com/tracker/internal/web"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("failed to load .env: %v", err)
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	editMode, ok := session.ParseEditMode(cfg.EditMode)
	if !ok {
		log.Fatalf("invalid configuration: unknown TRACKER_EDIT_MODE %q", cfg.EditMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storage, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open %s storage: %v", cfg.Storage, err)
	}
	defer closeStorage()

	router := newRouter(ctx, cfg, storage,
		session.WithSnapshotKey(cfg.SnapshotKey),
		session.WithZoom(cfg.MapZoom),
		session.WithEditMode(editMode),
	)

	ln, err := net.Listen("tcp", cfg.HTTPAddress)
	if err != nil {
		log.Fatalf("failed to listen on %s: %v", cfg.HTTPAddress, err)
	}

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:           cfg.HTTPAddress,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}, router)

	url := fmt.Sprintf("http://%s/", ln.Addr().String())
	log.Printf("tracker listening on %s (storage=%s, edit mode=%s)", url, cfg.Storage, editMode)
	if cfg.OpenBrowser {
		if err := browser.OpenURL(url); err != nil {
			log.Printf("could not open browser: %v", err)
		}
	}

	if err := httptransport.Serve(ctx, server, ln, cfg.ShutdownTimeout); err != nil {
		log.Printf("server error: %v", err)
	}
	log.Printf("tracker stopped")
}

func openStorage(ctx context.Context, cfg config.Config) (persistence.Storage, func(), error) {
	switch cfg.Storage {
	case config.StorageSQLite:
		s, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				log.Printf("close sqlite: %v", err)
			}
		}, nil
	case config.StoragePostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		s := postgres.NewStorage(pool)
		if err := s.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return s, pool.Close, nil
	case config.StorageMemory:
		return persistence.NewMemoryStorage(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}
}

func newRouter(ctx context.Context, cfg config.Config, storage persistence.Storage, opts ...session.Option) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ws", ws.NewHandler(storage, ws.HandlerConfig{
		BaseContext:    ctx,
		AllowedOrigins: cfg.AllowedOrigins,
		SessionOptions: opts,
	}).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		if len(cfg.AllowedOrigins) > 0 {
			r.Use(cors.New(cors.Options{
				AllowedOrigins: cfg.AllowedOrigins,
				AllowedMethods: []string{http.MethodGet, http.MethodOptions},
				AllowedHeaders: []string{"Accept", "Content-Type"},
			}).Handler)
		}
		api.NewHandler(storage, api.WithSnapshotKey(cfg.SnapshotKey)).RegisterRoutes(r)
	})

	r.Handle("/*", web.Handler())
	return r
}
