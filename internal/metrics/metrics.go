package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the studio's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photostudio",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "photostudio",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"method", "route"},
	)

	generations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photostudio",
			Subsystem: "studio",
			Name:      "generations_total",
			Help:      "Generation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	generationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "photostudio",
			Subsystem: "studio",
			Name:      "transform_duration_seconds",
			Help:      "Duration of calls to the image transformer.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 9), // 0.5s to ~2m
		},
	)

	recharges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "photostudio",
			Subsystem: "ledger",
			Name:      "recharge_events_total",
			Help:      "Recharge requests by lifecycle event.",
		},
		[]string{"event"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		generations,
		generationDuration,
		recharges,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler records request counts and latency labelled by chi route pattern.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		method := strings.ToUpper(r.Method)
		httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

// RecordGeneration counts one generation attempt. Outcome is a short label such as
// "success", "insufficient_balance" or "failed".
func RecordGeneration(outcome string) {
	generations.WithLabelValues(outcome).Inc()
}

func ObserveTransform(d time.Duration) {
	generationDuration.Observe(d.Seconds())
}

func RecordRecharge(event string) {
	recharges.WithLabelValues(event).Inc()
}
