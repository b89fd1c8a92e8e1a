// Package app assembles one blog service process from its configuration:
// storage, peers, services, router and the HTTP server around them.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/config"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/handler"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/metrics"
	"github.com/vortex-c/nust-social-app-cloud-computing-project/internal/middleware"
)

// App is a fully wired service ready to serve.
type App struct {
	cfg     *config.Config
	logger  zerolog.Logger
	handler http.Handler

	// closers release resources in reverse order of acquisition.
	closers []func() error
}

// New builds the service named by cfg.Service. On error every resource
// acquired so far is released.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (_ *App, err error) {
	if !cfg.Service.Valid() {
		return nil, fmt.Errorf("unknown service %q", cfg.Service)
	}

	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	deps := handler.RouterDeps{
		Service:    cfg.Service,
		Logger:     logger,
		ServiceKey: cfg.Auth.InternalKey,
		CORS:       cfg.CORS,
	}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		deps.Metrics = metrics.NewCollector(reg, string(cfg.Service))
		deps.MetricsHandler = metrics.Handler(reg)
		deps.MetricsPath = cfg.Metrics.Path
	}

	if cfg.RateLimit.Enabled {
		rl := middleware.NewRateLimiter(middleware.RateLimiterConfigFrom(cfg.RateLimit), logger)
		a.onClose(func() error {
			rl.Stop()
			return nil
		})
		deps.RateLimiter = rl
	}

	repos, err := openRepositories(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.onClose(repos.Database.Close)

	switch cfg.Service {
	case config.ServiceAuth:
		a.handler, err = buildAuth(cfg, repos, deps, logger)
	case config.ServicePosts:
		a.handler, err = a.buildPosts(ctx, cfg, repos, deps, logger)
	case config.ServiceComments:
		a.handler, err = a.buildComments(ctx, cfg, repos, deps, logger)
	}
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("database", cfg.Database.Driver).
		Bool("metrics", cfg.Metrics.Enabled).
		Bool("rate_limit", cfg.RateLimit.Enabled).
		Msg("Service initialized")

	return a, nil
}

func (a *App) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Handler returns the service's root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves until ctx is cancelled, then shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         a.cfg.Server.Addr(),
		Handler:      a.handler,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info().Msg("Shutting down server...")

	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	a.logger.Info().Msg("Server stopped")
	return nil
}

// Close releases the database, cache and background workers.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
