// Package app assembles the web server: configuration, logging,
// metrics, stores, services, router and graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"

	"medpulse/internal/booking"
	"medpulse/internal/config"
	"medpulse/internal/infrastructure"
	"medpulse/internal/medical"
	custommw "medpulse/internal/middleware"
	handlers "medpulse/internal/transport/http"
	ws "medpulse/internal/websocket"
)

// DefaultAdminPassword seeds the admin account on first start. Rotate
// it immediately in anything beyond local development.
const DefaultAdminPassword = "admin123"

// Application is the composed web server.
type Application struct {
	Config  *config.Config
	Router  *chi.Mux
	Server  *http.Server
	Logger  *slog.Logger
	Metrics *infrastructure.Metrics
	Hub     *ws.Hub

	Booking   *booking.Service
	Analytics medical.Analytics

	closers []func() error
}

// New loads configuration and wires every component.
func New() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}
	logger.Info("application starting",
		slog.String("service", infrastructure.ServiceName),
		slog.String("version", infrastructure.ServiceVersion),
		slog.String("store_driver", cfg.Store.Driver))

	metrics, err := infrastructure.InitializeMetrics(logger)
	if err != nil {
		return nil, fmt.Errorf("initialize metrics: %w", err)
	}

	a := &Application{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
	}

	store, analytics, err := a.buildStores(context.Background())
	if err != nil {
		return nil, err
	}

	a.Hub = ws.NewHub(cfg.WebSocket, logger, metrics)
	a.Booking = booking.NewService(store, logger, cfg.Auth.BcryptCost, a.Hub)
	a.Analytics = analytics

	if err := a.Booking.EnsureAdmin(context.Background(), DefaultAdminPassword); err != nil {
		return nil, fmt.Errorf("seed admin account: %w", err)
	}

	a.setupRouter()
	a.Server = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      a.Router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return a, nil
}

// buildStores selects the booking store and the analytics backend per
// the configured driver.
func (a *Application) buildStores(ctx context.Context) (booking.Store, medical.Analytics, error) {
	cfg := a.Config.Store
	switch cfg.Driver {
	case "bigquery":
		store, err := booking.NewBigQueryStore(ctx, cfg.BigQuery)
		if err != nil {
			return nil, nil, fmt.Errorf("bigquery booking store: %w", err)
		}
		a.closers = append(a.closers, store.Close)

		analytics, err := medical.NewBigQueryAnalytics(ctx, cfg.BigQuery)
		if err != nil {
			return nil, nil, fmt.Errorf("bigquery analytics: %w", err)
		}
		a.closers = append(a.closers, analytics.Close)
		return store, analytics, nil

	default:
		store, err := booking.NewJSONStore(cfg.JSONPath)
		if err != nil {
			return nil, nil, fmt.Errorf("json booking store: %w", err)
		}

		datasetPath := a.Config.Report.MedicalDataset
		data, err := medical.LoadDataset(datasetPath)
		if errors.Is(err, os.ErrNotExist) {
			a.Logger.Warn("medical dataset missing, generating",
				slog.String("path", datasetPath))
			data = medical.GenerateDataset(medical.DefaultSeed)
			if err := medical.SaveDataset(datasetPath, data); err != nil {
				return nil, nil, err
			}
		} else if err != nil {
			return nil, nil, err
		}
		return store, medical.NewLocalAnalytics(data), nil
	}
}

// setupRouter configures the full route tree. The websocket route and
// /metrics stay outside the heavy middleware group.
func (a *Application) setupRouter() {
	cfg := a.Config
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)

	r.Get("/ws", a.Hub.ServeHTTP)
	r.Handle("/metrics", a.Metrics.Handler)

	health := handlers.NewHealthHandler(cfg.Store.Driver)
	auth := handlers.NewAuthHandler(a.Booking, cfg.Auth, a.Logger, a.Metrics)
	appts := handlers.NewAppointmentsHandler(a.Booking, a.Logger, a.Metrics)
	admin := handlers.NewAdminHandler(a.Booking, a.Logger, a.Metrics)
	analytics := handlers.NewAnalyticsHandler(a.Analytics, a.Logger, a.Metrics)
	pipe := handlers.NewPipelineHandler(cfg.Report.DataDir, cfg.Report.OutDir, a.Logger, a.Metrics)

	r.Group(func(r chi.Router) {
		r.Use(custommw.StructuredLogger(a.Logger))
		r.Use(custommw.Metrics(a.Metrics))
		r.Use(custommw.Recoverer(a.Logger))
		r.Use(custommw.Timeout(cfg.Server.RequestTimeout, a.Logger))
		r.Use(custommw.SecurityHeaders)
		r.Use(custommw.Compress(5))
		if cfg.Security.EnableCORS {
			r.Use(custommw.CORS(custommw.CORSConfig{AllowedOrigins: cfg.Security.AllowedOrigins}))
		}
		if cfg.Security.RateLimit.Enabled {
			r.Use(custommw.NewRateLimiter(
				cfg.Security.RateLimit.RPS,
				cfg.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		r.Mount("/api/health", health.Routes())
		r.Get("/api/version", health.Version)
		r.Mount("/api/auth", auth.Routes())

		r.Group(func(r chi.Router) {
			r.Use(custommw.Auth(cfg.Auth.JWTSecret))
			r.Mount("/api/appointments", appts.Routes())

			r.Group(func(r chi.Router) {
				r.Use(custommw.RequireAdmin)
				r.Mount("/api/admin", admin.Routes())
				r.Mount("/api/analytics", analytics.Routes())
				r.Mount("/api/pipeline", pipe.Routes())
			})
		})
	})

	a.Router = r
}

// Start begins serving. It returns once the listener stops.
func (a *Application) Start() error {
	go a.Hub.Run()
	a.Logger.Info("server listening", slog.String("addr", a.Server.Addr))
	if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop drains in-flight requests and releases every component.
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var firstErr error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("server shutdown", slog.String("error", err.Error()))
		firstErr = err
	}
	a.Hub.Shutdown()
	for _, close := range a.closers {
		if err := close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if err := a.Metrics.Shutdown(shutdownCtx); err != nil && firstErr == nil {
		firstErr = err
	}
	infrastructure.CloseLogFile()
	a.Logger.Info("application stopped")
	return firstErr
}

// Run serves until an interrupt arrives, then shuts down gracefully.
func (a *Application) Run() error {
	errCh := make(chan error, 1)
	go func() { errCh <- a.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		a.Logger.Info("signal received", slog.String("signal", sig.String()))
		return a.Stop(context.Background())
	}
}
