package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/okian/gauntlet/internal/adapters/http/api"
	"github.com/okian/gauntlet/internal/adapters/http/site"
	"github.com/okian/gauntlet/internal/adapters/http/swagger"
	app "github.com/okian/gauntlet/internal/app"
	"github.com/okian/gauntlet/internal/config"
	"github.com/okian/gauntlet/pkg/logger"
	"github.com/okian/gauntlet/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

const (
	exitOK   = 0
	exitFail = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger is configured from cfg, so it is not available yet.
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		return exitFail
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logging:", err)
		return exitFail
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := newService(cfg, log)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return exitFail
	}

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		log.Error(ctx, "failed to bind", logger.String("addr", cfg.Addr()), logger.Error(err))
		_ = svc.Stop(ctx)
		return exitFail
	}

	if err := serve(ctx, cfg, ln, svc, log); err != nil {
		log.Error(ctx, "server exited with error", logger.Error(err))
		return exitFail
	}
	log.Info(ctx, "server stopped")
	return exitOK
}

func newService(cfg *config.Config, log logger.Logger) *app.Service {
	return app.New(
		app.WithLogger(log.Named("service")),
		app.WithDBPath(cfg.DBPath),
		app.WithMaxOpenConns(cfg.DBMaxOpenConns),
		app.WithBusyTimeout(cfg.BusyTimeout()),
		app.WithTopLimit(cfg.TopLimit),
	)
}

// newHandler assembles the API, docs and static fallback on one router.
func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) http.Handler {
	server := api.NewServer(svc,
		api.WithLogger(log.Named("http")),
		api.WithMaxBodyBytes(cfg.MaxBodyBytes),
		api.WithCORSOrigins(cfg.CORSAllowedOrigins),
		api.WithFallback(site.NewHandler()),
		api.WithRoutes(func(r chi.Router) { swagger.Register(ctx, r) }),
	)
	return server.Router()
}

// serve runs the HTTP server on ln until ctx is cancelled or serving fails,
// then shuts down in order: stop accepting, wait for in-flight requests,
// drain the service and close storage.
func serve(ctx context.Context, cfg *config.Config, ln net.Listener, svc *app.Service, log logger.Logger) error {
	srv := &http.Server{
		Handler:           newHandler(ctx, cfg, svc, log),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http serve: %w", err)
		}
		return nil
	})

	interval := metrics.RefreshInterval()
	g.Go(func() error {
		startSystemMetricsUpdater(gctx, interval)
		return nil
	})

	g.Go(func() error {
		startServiceMetricsUpdater(gctx, svc, interval)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		svc.BeginDrain(shutdownCtx)
		if err := svc.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("service stop: %w", err))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

// startSystemMetricsUpdater refreshes process metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes service gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics lets Stats refresh the entries and readiness gauges.
func updateServiceMetrics(ctx context.Context, svc *app.Service) {
	_ = svc.Stats(ctx)
}
