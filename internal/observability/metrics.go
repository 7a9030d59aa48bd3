// Package observability exposes the crawl metrics over Prometheus.
package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sjsage522/alkotekaworker/logger"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alkoteka_requests_total",
			Help: "Catalog API requests by traversal stage and outcome.",
		},
		[]string{"stage", "outcome"},
	)

	ItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alkoteka_items_total",
			Help: "Products emitted or skipped.",
		},
		[]string{"outcome"},
	)

	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alkoteka_errors_total",
			Help: "Errors by type.",
		},
		[]string{"type"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "alkoteka_fetch_duration_seconds",
			Help:    "Duration of catalog API fetches, retries included.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	QueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "alkoteka_queue_length",
			Help: "Requests waiting to be fetched.",
		},
	)
)

// Outcome labels
const (
	OutcomeOK        = "ok"
	OutcomeFailed    = "failed"
	OutcomeDuplicate = "duplicate"
	OutcomeEmitted   = "emitted"
	OutcomeSkipped   = "skipped"
)

// ObserveFetch records one finished fetch
func ObserveFetch(stage, outcome string, took time.Duration) {
	RequestsTotal.WithLabelValues(stage, outcome).Inc()
	FetchDuration.WithLabelValues(stage).Observe(took.Seconds())
}

// Handler routes /metrics and a /health probe
func Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	return r
}

// Start serves /metrics on port in the background. Shut the returned server
// down when the worker exits.
func Start(port string) *http.Server {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError("metrics", err, "metrics listener on :%s stopped", port)
		}
	}()
	logger.LogInfo("metrics", "serving metrics on :%s/metrics", port)
	return srv
}

// Shutdown stops a server returned by Start
func Shutdown(srv *http.Server) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
