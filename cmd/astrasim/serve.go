package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cheeseburger9309/AstraSim/internal/api"
	"github.com/cheeseburger9309/AstraSim/internal/auth"
	"github.com/cheeseburger9309/AstraSim/internal/catalog"
	"github.com/cheeseburger9309/AstraSim/internal/config"
	"github.com/cheeseburger9309/AstraSim/internal/observability"
	"github.com/cheeseburger9309/AstraSim/internal/observer"
	"github.com/cheeseburger9309/AstraSim/internal/passes"
	"github.com/cheeseburger9309/AstraSim/internal/propagation"
	"github.com/cheeseburger9309/AstraSim/internal/stream"
	"github.com/cheeseburger9309/AstraSim/internal/tracker"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load the catalog, run the tracking session and serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, offlineFlag(cmd))
		},
	}
	cmd.Flags().String("addr", ":8080", "HTTP listen address")
	cobra.CheckErr(a.v.BindPFlag("http.addr", cmd.Flags().Lookup("addr")))
	return cmd
}

func (a *app) serve(ctx context.Context, offline bool) error {
	cfg, logger := a.cfg, a.logger

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		Exporter:    cfg.Tracing.Exporter,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, logger)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, logger)

	store := catalog.NewStore()
	cat := a.loadCatalog(ctx, offline)
	store.Set(cat)

	home := configuredObserver(cfg.Observer)
	var locator observer.Locator
	if cfg.Observer.GeoIPDB != "" {
		geo, err := observer.OpenGeoIP(cfg.Observer.GeoIPDB)
		if err != nil {
			logger.Warn("GeoIP database unavailable, observer lookups use the default location",
				"path", cfg.Observer.GeoIPDB, "error", err)
		} else {
			defer geo.Close()
			locator = geo
		}
	}

	pool := propagation.NewWorkerPool(cfg.Propagation.Workers, logger)
	session := tracker.New(cat, pool, trackerConfig(cfg), home, logger)

	srv := api.NewServer(api.Config{
		Addr:       cfg.HTTP.Addr,
		TrustProxy: cfg.HTTP.TrustProxy,
		Auth:       auth.Config{Enabled: cfg.Auth.Enabled, Token: cfg.Auth.Token},
		Stream: stream.Config{
			MaxConcurrentPerIP: cfg.Stream.MaxConcurrentPerIP,
			KeepaliveInterval:  cfg.Stream.KeepaliveInterval,
		},
	}, session, store, locator, logger)

	runCtx, stopSession := context.WithCancel(ctx)
	defer stopSession()
	sessionDone := make(chan error, 1)
	go func() { sessionDone <- session.Run(runCtx) }()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			"addr", cfg.HTTP.Addr,
			"auth_enabled", cfg.Auth.Enabled,
			"tle_fetch_enabled", cfg.TLE.EnableFetch && !offline,
			"catalog_source", cat.Source(),
			"objects", cat.Len(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down server...")
	case err, ok := <-serveErr:
		if ok {
			logger.Error("server listen error", "error", err)
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	stopSession()
	select {
	case <-sessionDone:
	case <-shutdownCtx.Done():
		logger.Warn("tracking session did not stop in time")
	}

	// Open frame streams are ended by the stream handler's shutdown hook.
	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
		if runErr == nil {
			runErr = err
		}
	}

	logger.Info("server stopped")
	return runErr
}

// configuredObserver is the observer from configuration, or the default
// location when none is set.
func configuredObserver(c config.ObserverConfig) observer.Location {
	if c.LatDeg == 0 && c.LonDeg == 0 && c.AltM == 0 {
		return observer.Default
	}
	return observer.Location{LatDeg: c.LatDeg, LonDeg: c.LonDeg, AltM: c.AltM, Source: "config"}
}

func trackerConfig(cfg config.Config) tracker.Config {
	return tracker.Config{
		Tick:         cfg.Tracker.Tick,
		ClockRefresh: cfg.Tracker.ClockRefresh,
		RenderRadius: cfg.Tracker.RenderRadius,
		BaseScale:    float32(cfg.Tracker.BaseScale),
		MarkerRadius: float32(cfg.Tracker.MarkerRadius),
		Passes:       passConfig(cfg.Passes),
	}
}

func passConfig(c config.PassConfig) passes.Config {
	return passes.Config{
		Step:         c.Step,
		Samples:      c.Samples,
		MinElevation: c.MinElevation,
		MaxPasses:    c.MaxPasses,
	}
}
