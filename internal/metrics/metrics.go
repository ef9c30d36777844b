// Package metrics holds the Prometheus collectors of the dashboard.
package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "releaseboard"

// Metrics bundles the collectors. It implements the store and poller
// recorder interfaces.
type Metrics struct {
	TransitionsTotal    *prometheus.CounterVec
	Subscribers         prometheus.Gauge
	UpstreamRequests    *prometheus.CounterVec
	UpstreamDurationSec *prometheus.HistogramVec
	RefreshTicks        prometheus.Counter
	Refreshing          prometheus.Gauge
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPDurationSec     *prometheus.HistogramVec
	RateLimitDropped    prometheus.Counter
}

// New creates the collectors and registers them with registry.
func New(registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		TransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Total number of applied state actions.",
		}, []string{"action"}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state_subscribers",
			Help:      "Number of live state subscribers.",
		}),
		UpstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of status service requests.",
		}, []string{"kind", "outcome"}),
		UpstreamDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_request_duration_seconds",
			Help:      "Status service request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		RefreshTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_ticks_total",
			Help:      "Total number of automatic refresh ticks.",
		}),
		Refreshing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "refreshing",
			Help:      "1 while the automatic refresh ticker is live.",
		}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of dashboard HTTP requests.",
		}, []string{"route", "method", "status"}),
		HTTPDurationSec: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Dashboard HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		RateLimitDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ratelimit_dropped_total",
			Help:      "Total number of requests dropped by the rate limiter.",
		}),
	}

	registry.MustRegister(
		m.TransitionsTotal,
		m.Subscribers,
		m.UpstreamRequests,
		m.UpstreamDurationSec,
		m.RefreshTicks,
		m.Refreshing,
		m.HTTPRequestsTotal,
		m.HTTPDurationSec,
		m.RateLimitDropped,
	)

	return m
}

// ObserveTransition counts one applied action.
func (m *Metrics) ObserveTransition(kind string) {
	m.TransitionsTotal.WithLabelValues(kind).Inc()
}

// SetSubscribers records the number of state subscribers.
func (m *Metrics) SetSubscribers(n int) {
	m.Subscribers.Set(float64(n))
}

// ObserveRequest records one status service request.
func (m *Metrics) ObserveRequest(kind, outcome string, d time.Duration) {
	m.UpstreamRequests.WithLabelValues(kind, outcome).Inc()
	m.UpstreamDurationSec.WithLabelValues(kind).Observe(d.Seconds())
}

// ObserveTick counts one refresh tick.
func (m *Metrics) ObserveTick() {
	m.RefreshTicks.Inc()
}

// SetRefreshing records whether the refresh ticker is live.
func (m *Metrics) SetRefreshing(running bool) {
	if running {
		m.Refreshing.Set(1)
		return
	}
	m.Refreshing.Set(0)
}

// Middleware records request counts and durations labelled by chi route
// pattern, so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startedAt := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		status := strconv.Itoa(wrapped.statusCode)
		route := routePattern(r)
		m.HTTPRequestsTotal.WithLabelValues(route, r.Method, status).Inc()
		m.HTTPDurationSec.WithLabelValues(route, r.Method, status).Observe(time.Since(startedAt).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "other"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(statusCode int) {
	rw.statusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Hijack passes websocket upgrades through wrapped ResponseWriter.
func (rw *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}

// Flush keeps streaming behavior for the event stream.
func (rw *statusRecorder) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
