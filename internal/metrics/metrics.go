package metrics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TermsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trendscout_terms_generated_total",
			Help: "Search terms accepted from the language model",
		},
	)

	TrendFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendscout_trend_fetches_total",
			Help: "Interest-over-time fetches by outcome",
		},
		[]string{"status"}, // ok, empty, blocked, error
	)

	TrendFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trendscout_trend_fetch_duration_seconds",
			Help:    "Duration of a full per-term trends fetch in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		},
	)

	MarketplaceSearches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendscout_marketplace_searches_total",
			Help: "Marketplace tool invocations by outcome",
		},
		[]string{"status"}, // found, empty, failed
	)

	MarketplaceSearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "trendscout_marketplace_search_duration_seconds",
			Help:    "Wall time of the marketplace search subprocess in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
	)

	ProxyFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trendscout_proxy_failures_total",
			Help: "Total number of proxy failures during trends requests",
		},
		[]string{"proxy_url"},
	)
)

// RecordTrendFetch updates trend metrics for one term.
func RecordTrendFetch(status string, d time.Duration) {
	TrendFetches.WithLabelValues(status).Inc()
	TrendFetchDuration.Observe(d.Seconds())
}

// RecordSearch updates marketplace metrics for one term.
func RecordSearch(status string, d time.Duration) {
	MarketplaceSearches.WithLabelValues(status).Inc()
	MarketplaceSearchDuration.Observe(d.Seconds())
}

// Server encapsulates an HTTP server for Prometheus metrics.
type Server struct {
	srv *http.Server
}

// Start begins listening on the specified port and exposes /metrics. A
// non-positive port disables the server; the returned *Server is still safe
// to Stop.
func Start(port int, logger *slog.Logger) *Server {
	if port <= 0 {
		return &Server{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "port", port, "err", err)
		}
	}()

	return &Server{srv: srv}
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(ctx)
}
