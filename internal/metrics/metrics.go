// Package metrics exposes Prometheus instruments for the generation engine,
// the history service and the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lotto"

// Metrics holds every instrument on a private registry.
// All methods are safe on a nil receiver so components can run without metrics.
type Metrics struct {
	registry *prometheus.Registry

	generationRuns     *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	bestConfidence     prometheus.Gauge
	monteCarloRuns     *prometheus.CounterVec
	historyDraws       prometheus.Gauge
	historyRefreshes   *prometheus.CounterVec
	backups            *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New creates the instruments and registers runtime collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		generationRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_runs_total",
			Help:      "Optimizer runs by strategy and outcome",
		}, []string{"strategy", "outcome"}),
		generationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Wall time of optimizer runs",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"strategy"}),
		bestConfidence: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generation_best_confidence",
			Help:      "Top confidence returned by the last successful run",
		}),
		monteCarloRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "montecarlo_runs_total",
			Help:      "Monte Carlo validations by outcome",
		}, []string{"outcome"}),
		historyDraws: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_draws",
			Help:      "Draws currently loaded in the history",
		}),
		historyRefreshes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "history_refreshes_total",
			Help:      "History refreshes by outcome",
		}, []string{"outcome"}),
		backups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backups_total",
			Help:      "Database backups by outcome",
		}, []string{"outcome"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Registry returns the private registry
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "metrics disabled", http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveGeneration records one optimizer run
func (m *Metrics) ObserveGeneration(strategy string, d time.Duration, best float64, err error) {
	if m == nil {
		return
	}
	m.generationRuns.WithLabelValues(strategy, outcome(err)).Inc()
	m.generationDuration.WithLabelValues(strategy).Observe(d.Seconds())
	if err == nil {
		m.bestConfidence.Set(best)
	}
}

// ObserveMonteCarlo records one validation
func (m *Metrics) ObserveMonteCarlo(err error) {
	if m == nil {
		return
	}
	m.monteCarloRuns.WithLabelValues(outcome(err)).Inc()
}

// ObserveRefresh records one history refresh and the resulting draw count
func (m *Metrics) ObserveRefresh(total int, err error) {
	if m == nil {
		return
	}
	m.historyRefreshes.WithLabelValues(outcome(err)).Inc()
	if err == nil {
		m.historyDraws.Set(float64(total))
	}
}

// SetHistoryDraws sets the loaded draw count
func (m *Metrics) SetHistoryDraws(total int) {
	if m == nil {
		return
	}
	m.historyDraws.Set(float64(total))
}

// ObserveBackup records one backup attempt
func (m *Metrics) ObserveBackup(err error) {
	if m == nil {
		return
	}
	m.backups.WithLabelValues(outcome(err)).Inc()
}

// Middleware counts requests per chi route pattern
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
