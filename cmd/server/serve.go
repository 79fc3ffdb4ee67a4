package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/Goutam990/medibook-console/internal/api"
	"github.com/Goutam990/medibook-console/internal/apiclient"
	"github.com/Goutam990/medibook-console/internal/auth"
	"github.com/Goutam990/medibook-console/internal/events"
	"github.com/Goutam990/medibook-console/internal/guard"
	"github.com/Goutam990/medibook-console/internal/metrics"
	"github.com/Goutam990/medibook-console/internal/middleware"
	"github.com/Goutam990/medibook-console/internal/session"
	"github.com/Goutam990/medibook-console/internal/store"
	"github.com/Goutam990/medibook-console/web"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(a *app) *cobra.Command {
	var ephemeral bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the console HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context(), ephemeral)
		},
	}
	cmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "keep the device session in memory only")
	return cmd
}

func openStorage(ctx context.Context, dbPath string, ephemeral bool) (store.Storage, error) {
	if ephemeral {
		slog.InfoContext(ctx, "Using in-memory device storage")
		return store.NewMemory(), nil
	}

	s, err := store.NewSQLite(dbPath)
	if err != nil {
		return nil, fmt.Errorf("initialize database: %w", err)
	}
	if err := s.Ping(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("database health check: %w", err)
	}
	slog.InfoContext(ctx, "Database connected", "path", dbPath)
	return s, nil
}

//nolint:funlen // Startup wiring is intentionally sequential to keep dependency setup explicit.
func (a *app) serve(ctx context.Context, ephemeral bool) error {
	cfg := a.cfg
	slog.InfoContext(ctx, "Starting server",
		"addr", cfg.Addr(),
		"api_base_url", cfg.APIBaseURL,
		"dev", cfg.IsDevelopment(),
		"payments", cfg.Payments.Enabled,
	)

	storage, err := openStorage(ctx, cfg.DBPath, ephemeral)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := storage.Close(); closeErr != nil {
			slog.Error("Failed to close device storage", "error", closeErr)
		}
	}()

	var (
		m         *metrics.Metrics
		observer  apiclient.Observer
		logins    auth.Recorder
		decisions guard.Recorder
	)
	if cfg.MetricsEnabled {
		m = metrics.New()
		observer, logins, decisions = m, m, m
	}

	sessions := session.New(storage, slog.Default())

	client := apiclient.New(apiclient.Config{
		HTTP:     &http.Client{Timeout: cfg.APITimeout},
		Tokens:   sessions,
		Observer: observer,
		BaseURL:  cfg.APIBaseURL,
	})
	authenticator := auth.New(client, sessions, logins, slog.Default())

	templates, err := web.ParseTemplates()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	hub := events.NewHub(sessions, cfg.AllowedOrigins, slog.Default())
	handler := api.NewHandler(api.Options{
		Backend:   client,
		Auth:      authenticator,
		Sessions:  sessions,
		Storage:   storage,
		Decisions: decisions,
		Templates: templates,
		Cache:     api.NewListCache(cfg.ListCacheTTL),
		Payments: api.Payments{
			Enabled:        cfg.Payments.Enabled,
			PublishableKey: cfg.Payments.PublishableKey,
			Fee:            cfg.Payments.Fee,
			Currency:       cfg.Payments.Currency,
		},
		DefaultDoctor:  cfg.DefaultDoctor,
		SecureCookies:  !cfg.IsDevelopment(),
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         slog.Default(),
	})

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.LogContext)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/ping"))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	handler.RegisterRoutes(r)
	r.Get("/ws/session", hub.ServeHTTP)
	r.Handle("/static/*", web.StaticHandler())
	if m != nil {
		r.Handle("/metrics", m.Handler())
	}

	hub.Start(ctx)
	if m != nil {
		trackSession(ctx, sessions, m)
	}

	// Views render the loading page until this finishes.
	go sessions.Restore(ctx)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // websocket connections stay open
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal.
	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	hub.CloseAll()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server stopped successfully")
	return nil
}

// trackSession keeps the authenticated gauge in step with the session store.
func trackSession(ctx context.Context, sessions *session.Store, m *metrics.Metrics) {
	updates, unsubscribe := sessions.Subscribe()
	go func() {
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-updates:
				if !ok {
					return
				}
				m.SetAuthenticated(snap)
			}
		}
	}()
}
