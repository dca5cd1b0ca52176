package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "bioreactor"

// metrics holds the Prometheus collectors for one server.
//
// Each Server owns its registry so that tests can build many servers in one
// process without duplicate registration panics.
type metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	inserted        prometheus.Counter
	insertFailures  *prometheus.CounterVec
	chartsRendered  prometheus.Counter
	chartDuration   prometheus.Histogram
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP request handling in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "measurements_inserted_total",
			Help:      "Measurements committed through the API.",
		}),
		insertFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "measurement_insert_failures_total",
			Help:      "Rejected or failed measurement inserts by reason.",
		}, []string{"reason"}),
		chartsRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "charts_rendered_total",
			Help:      "PNG charts rendered.",
		}),
		chartDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "chart_render_duration_seconds",
			Help:      "Time spent rendering PNG charts in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.inserted,
		m.insertFailures,
		m.chartsRendered,
		m.chartDuration,
	)
	return m
}

// handler exposes the server's registry in the Prometheus text format.
func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// observeChart records one completed render.
func (m *metrics) observeChart(d time.Duration) {
	m.chartsRendered.Inc()
	m.chartDuration.Observe(d.Seconds())
}

// metricsMiddleware counts requests per chi route pattern. It must run inside
// the router so the pattern is resolved by the time the handler returns.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := wrapWriter(w, r)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		s.metrics.requests.WithLabelValues(r.Method, route, strconv.Itoa(responseStatus(ww))).Inc()
		s.metrics.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
