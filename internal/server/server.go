// Package server exposes health, readiness, metrics and a read-only state
// snapshot over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nholik/admin-state/internal/coordinator"
	"github.com/nholik/admin-state/internal/healthcheck"
	"github.com/nholik/admin-state/internal/metrics"
	"github.com/rs/zerolog"
)

const shutdownTimeout = 5 * time.Second

// StateSource provides the snapshot served on /state.
type StateSource interface {
	Snapshot() coordinator.Snapshot
}

// Options selects what each listener serves. A zero port disables that listener;
// equal ports share one.
type Options struct {
	Tracker     *healthcheck.Tracker
	Metrics     *metrics.Metrics
	State       StateSource
	HealthPort  int
	MetricsPort int
}

// Start launches the configured HTTP servers. They shut down when ctx is done.
func Start(ctx context.Context, logger zerolog.Logger, opts Options) {
	for _, l := range listeners(opts) {
		startServer(ctx, logger, l.mux, l.port, l.label)
	}
}

type listener struct {
	port  int
	label string
	mux   *http.ServeMux
}

func listeners(opts Options) []listener {
	if opts.HealthPort > 0 && opts.HealthPort == opts.MetricsPort {
		mux := http.NewServeMux()
		registerHealthRoutes(mux, opts)
		registerMetricsRoute(mux, opts.Metrics)
		return []listener{{port: opts.HealthPort, label: "health/metrics", mux: mux}}
	}

	var result []listener
	if opts.HealthPort > 0 {
		mux := http.NewServeMux()
		registerHealthRoutes(mux, opts)
		result = append(result, listener{port: opts.HealthPort, label: "health", mux: mux})
	}
	if opts.MetricsPort > 0 {
		mux := http.NewServeMux()
		registerMetricsRoute(mux, opts.Metrics)
		result = append(result, listener{port: opts.MetricsPort, label: "metrics", mux: mux})
	}
	return result
}

func registerHealthRoutes(mux *http.ServeMux, opts Options) {
	mux.HandleFunc("GET /healthz", healthcheck.HealthHandler(opts.Tracker))
	mux.HandleFunc("GET /readyz", healthcheck.ReadyHandler(opts.Tracker))
	if opts.State != nil {
		mux.HandleFunc("GET /state", stateHandler(opts.State))
	}
}

func registerMetricsRoute(mux *http.ServeMux, metricsCollector *metrics.Metrics) {
	if metricsCollector == nil {
		return
	}
	mux.Handle("GET /metrics", metricsCollector.Handler())
}

func stateHandler(source StateSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(source.Snapshot())
	}
}

func startServer(ctx context.Context, logger zerolog.Logger, handler http.Handler, port int, label string) {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("server", label).Int("port", port).Msg("http server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Str("server", label).Int("port", port).Msg("http server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Str("server", label).Int("port", port).Msg("http server shutdown failed")
		}
	}()
}
