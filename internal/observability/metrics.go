package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry          *prometheus.Registry
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	solvesTotal       *prometheus.CounterVec
	solveIterations   *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		solvesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "channel_solves_total",
			Help: "Total circular channel solves by target and outcome.",
		}, []string{"target", "outcome"}),
		solveIterations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "channel_solve_iterations",
			Help:    "Root-finder iterations spent per solve.",
			Buckets: []float64{0, 5, 10, 20, 40, 60, 80, 100},
		}, []string{"target"}),
	}

	m.registry.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.solvesTotal,
		m.solveIterations,
		collectors.NewGoCollector(),
	)

	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		}
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveSolve(target, outcome string, iterations int) {
	if m == nil {
		return
	}
	if target == "" {
		target = "none"
	}
	m.solvesTotal.WithLabelValues(target, outcome).Inc()
	if outcome == "ok" && (target == "diameter" || target == "relative_depth") {
		m.solveIterations.WithLabelValues(target).Observe(float64(iterations))
	}
}
