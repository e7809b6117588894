// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/sync/errgroup"

	"github.com/starford/techdocs/internal/api"
	"github.com/starford/techdocs/internal/auth"
	"github.com/starford/techdocs/internal/docservice"
	"github.com/starford/techdocs/internal/index"
	"github.com/starford/techdocs/internal/markdown"
	"github.com/starford/techdocs/internal/mcpserver"
	"github.com/starford/techdocs/internal/sse"
	"github.com/starford/techdocs/internal/storage"
	"github.com/starford/techdocs/internal/watcher"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// setup builds the logger, storage, optional index and document service
// shared by the HTTP and MCP entry points. The returned cleanup closes the
// index.
func (app *application) setup(extra ...docservice.Option) (*slog.Logger, storage.Provider, index.DocumentIndex, *docservice.Service, func(), error) {
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("docs_path", cfg.Docs.Path),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.Bool("index_enabled", cfg.Index.Enabled),
		slog.Bool("watcher_enabled", cfg.Watcher.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure document root exists.
	if err := os.MkdirAll(cfg.Docs.Path, 0o755); err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("create docs dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Docs.Path)
	if err != nil {
		return nil, nil, nil, nil, nil, fmt.Errorf("init storage: %w", err)
	}

	cleanup := func() {}
	svcOpts := []docservice.Option{
		docservice.WithLogger(logger),
		docservice.WithRenderer(markdown.NewRenderer(markdown.Options{
			UnsafeHTML: cfg.Markdown.UnsafeHTML,
			HardWraps:  cfg.Markdown.HardWraps,
		})),
	}

	var idx index.DocumentIndex
	if cfg.Index.Enabled {
		db, err := index.Open(cfg.Index.Path)
		if err != nil {
			return nil, nil, nil, nil, nil, fmt.Errorf("init index: %w", err)
		}
		cleanup = func() { _ = db.Close() }
		idx = db

		st, err := index.Sync(db, store, logger)
		if err != nil {
			logger.Warn("initial sync failed", slog.String("error", err.Error()))
		} else {
			logger.Info("search index ready",
				slog.Int("documents", st.Total),
				slog.Int("indexed", st.Indexed),
				slog.Int("removed", st.Removed),
				slog.Int("failed", st.Failed))
		}
		svcOpts = append(svcOpts, docservice.WithIndex(db))
	}

	svc := docservice.NewService(store, append(svcOpts, extra...)...)
	return logger, store, idx, svc, cleanup, nil
}

// Run starts the HTTP application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Without the watcher the service announces its own changes.
	var extra []docservice.Option
	if !cfg.Watcher.Enabled {
		extra = append(extra, docservice.WithPublisher(broker))
	}

	logger, store, idx, svc, cleanup, err := app.setup(extra...)
	if err != nil {
		return err
	}
	defer cleanup()

	authn := auth.New(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry, cfg.Auth.Credentials())
	if cfg.Auth.AuthEnabled() && len(cfg.Auth.Users) == 0 {
		logger.Warn("auth is enforced but no users are configured; nobody can log in")
	}
	apiRouter := api.NewRouter(svc, authn, cfg.Auth.AuthEnabled(), broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.App.HTTP.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "If-Match"},
		ExposedHeaders:   []string{"ETag"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := store.Stat(""); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"docs root unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	// Built front ends, when configured.
	if dir := cfg.Web.ViewerDir; dir != "" {
		r.Handle("/viewer", http.RedirectHandler("/viewer/", http.StatusMovedPermanently))
		r.Handle("/viewer/*", http.StripPrefix("/viewer", spaHandler(dir)))
	}
	if dir := cfg.Web.EditorDir; dir != "" {
		r.Handle("/*", spaHandler(dir))
	}

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start file watcher: refresh the index and notify browsers.
	if cfg.Watcher.Enabled {
		handlers := []watcher.Handler{
			func(ev watcher.Event) { broker.PublishDocumentEvent(string(ev.Op), ev.Path) },
		}
		if idx != nil {
			handlers = append(handlers, index.WatchHandler(idx, store, logger))
		}
		g.Go(func() error {
			err := watcher.Watch(gCtx, watcher.Options{
				Root:   store.Root(),
				Ignore: cfg.Watcher.Ignore,
				Logger: logger,
			}, handlers...)
			if err != nil {
				// The API works without the watcher; only live updates are lost.
				logger.Error("watcher stopped", slog.String("error", err.Error()))
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

		// SSE streams stay open until their clients go away.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools over stdio until stdin closes.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}

	logger, _, _, svc, cleanup, err := app.setup()
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("Starting MCP server on stdio")
	return mcpserver.New(svc, app.version).ServeStdio()
}

// spaHandler serves a built single-page app from dir, answering unknown
// paths with index.html so client-side routes survive a reload.
func spaHandler(dir string) http.Handler {
	root := http.Dir(dir)
	files := http.FileServer(root)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, err := root.Open(path.Clean("/" + r.URL.Path))
		if err != nil {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		_ = f.Close()
		files.ServeHTTP(w, r)
	})
}
