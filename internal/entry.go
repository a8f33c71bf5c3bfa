// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/vitrine/internal/api"
	"github.com/starford/vitrine/internal/catalog"
	"github.com/starford/vitrine/internal/index"
	"github.com/starford/vitrine/internal/loader"
	"github.com/starford/vitrine/internal/media"
	"github.com/starford/vitrine/internal/session"
	"github.com/starford/vitrine/internal/sse"
	"github.com/starford/vitrine/internal/storage"
	"github.com/starford/vitrine/internal/viewport"
)

// NewLogger builds the structured JSON logger used by every command.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// NewSource builds the catalog source selected by cfg.
func NewSource(cfg CatalogConfig) (catalog.Source, error) {
	switch cfg.Source {
	case SourceHTTP:
		return catalog.NewHTTPSource(cfg.URL, cfg.Timeout), nil
	default:
		store, err := storage.NewFS(filepath.Dir(cfg.Path))
		if err != nil {
			return nil, fmt.Errorf("init catalog storage: %w", err)
		}
		return catalog.NewFileSource(store, filepath.Base(cfg.Path)), nil
	}
}

// NewResolver builds the media resolver selected by cfg.
func NewResolver(cfg MediaConfig) (media.Resolver, error) {
	switch cfg.Mode {
	case MediaModeHTTP:
		return media.NewHTTPResolver(cfg.BaseURL, cfg.Timeout)
	default:
		store, err := storage.NewFS(cfg.Root)
		if err != nil {
			return nil, fmt.Errorf("init media storage: %w", err)
		}
		return media.NewFSResolver(store), nil
	}
}

// SessionConfig maps the loader and viewport sections onto a session config.
func (c *Config) SessionConfig() session.Config {
	return session.Config{
		Loader: loader.Config{
			BatchSize:     c.Loader.BatchSize,
			ThrottleDelay: c.Loader.ThrottleDelay,
			KickoffDelay:  c.Loader.KickoffDelay,
			MaxIdlePasses: c.Loader.MaxIdlePasses,
		},
		ViewportThrottle: c.Loader.ViewportThrottle,
		Grid: viewport.GridConfig{
			Width:            c.Viewport.Width,
			Height:           c.Viewport.Height,
			CardHeight:       c.Viewport.CardHeight,
			Gap:              c.Viewport.Gap,
			Top:              c.Viewport.Top,
			MinColumnWidth:   c.Viewport.MinColumnWidth,
			MobileBreakpoint: c.Viewport.MobileBreakpoint,
		},
	}
}

// MirrorTo keeps db in step with every successful catalog load.
func MirrorTo(cat *catalog.Store, db index.CatalogIndex, logger *slog.Logger) {
	cat.Subscribe(func(snap catalog.Snapshot) {
		if _, err := index.Sync(db, snap.Checksum, snap.Records, logger); err != nil {
			logger.Warn("index sync failed", slog.String("error", err.Error()))
		}
	})
}

type catalogLoader interface {
	Load(ctx context.Context) error
}

// reloadOnChange adapts a session load to the watcher callback.
func reloadOnChange(l catalogLoader, logger *slog.Logger) catalog.ReloadFunc {
	return func(ctx context.Context) {
		if err := l.Load(ctx); err != nil {
			logger.Warn("catalog reload failed", slog.String("error", err.Error()))
			return
		}
		logger.Info("catalog reloaded after change")
	}
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := app.logger
	if logger == nil {
		logger = NewLogger(os.Stdout, cfg.App.LogLevel)
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("catalog_source", cfg.Catalog.Source),
		slog.String("media_mode", cfg.Media.Mode),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	src, err := NewSource(cfg.Catalog)
	if err != nil {
		return err
	}
	res, err := NewResolver(cfg.Media)
	if err != nil {
		return err
	}

	// Initialize SQLite index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	broker := sse.NewBroker(
		sse.WithProgressThrottle(500*time.Millisecond),
		sse.WithReplay(session.EventCatalogLoaded, session.EventCatalogFailed, session.EventViewRebuilt),
		sse.WithHeartbeat(30*time.Second))
	defer broker.Close()

	cat := catalog.NewStore(logger)
	MirrorTo(cat, db, logger)

	g, gCtx := errgroup.WithContext(ctx)

	sess := session.New(gCtx, cfg.SessionConfig(), cat, src, res,
		session.WithLogger(logger),
		session.WithPublisher(broker))
	defer sess.Close()

	// Initial load; a failure leaves the session in its failed state and
	// is retried by a reload or resume request.
	if err := sess.Load(gCtx); err != nil {
		logger.Warn("initial catalog load failed", slog.String("error", err.Error()))
	}

	apiRouter := api.NewRouter(sess, db, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", liveHandler)
	r.Get("/health/ready", readyHandler(cat, db))

	if cfg.Media.Mode == MediaModeFS {
		r.Get("/images/{name}", api.NewMediaHandler(cfg.Media.Root).ServeFile)
	}

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	// Reload the catalog when its file changes.
	if cfg.Catalog.Source == SourceFile && cfg.Catalog.Watch {
		g.Go(func() error {
			if err := catalog.Watch(gCtx, cfg.Catalog.Path, logger, reloadOnChange(sess, logger)); err != nil {
				logger.Warn("watcher disabled", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
