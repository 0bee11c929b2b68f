package fetch

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/patzer/pkg/logger"
	"github.com/okian/patzer/pkg/metrics"
)

// Metrics server timeout constants.
const (
	metricsReadHeaderTimeout = 5 * time.Second
	metricsShutdownTimeout   = 3 * time.Second
)

// serveMetrics starts the optional Prometheus listener for the duration of
// a run. The returned stop function shuts it down; it is a no-op when no
// address is configured.
func (r *Runner) serveMetrics(ctx context.Context) func() {
	if r.metricsAddr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              r.metricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadHeaderTimeout,
	}

	go func() {
		logger.Named("fetch").Info(ctx, "serving metrics", logger.String("addr", r.metricsAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Named("fetch").Warn(ctx, "metrics listener failed", logger.Error(err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Named("fetch").Warn(ctx, "metrics listener shutdown failed", logger.Error(err))
		}
	}
}
