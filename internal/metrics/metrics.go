// Package metrics exposes request traffic counters in Prometheus format.
package metrics

import (
	"net/http"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metric names exported on /metrics.
const (
	MetricRequests     = "securefiles_http_requests_total"
	MetricDuration     = "securefiles_http_request_duration_seconds"
	MetricResponseSize = "securefiles_http_response_size_bytes"
	MetricInFlight     = "securefiles_http_requests_in_flight"
	MetricRateLimited  = "securefiles_ratelimit_rejected_total"
	MetricClients      = "securefiles_ratelimit_clients"
	MetricBuildInfo    = "securefiles_build_info"
	codeLabel          = "code"
	methodLabel        = "method"
	versionLabel       = "version"
	goVersionLabel     = "goversion"
)

// Metrics owns a private registry so that several servers (or tests) in
// one process never collide on registration.
type Metrics struct {
	registry    *prometheus.Registry
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	size        *prometheus.HistogramVec
	inFlight    prometheus.Gauge
	rateLimited prometheus.Counter
}

// New creates and registers all collectors. version is reported through
// the build info gauge.
func New(version string) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRequests,
			Help: "Number of HTTP requests answered, by status code and method.",
		}, []string{codeLabel, methodLabel}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricDuration,
			Help:    "Time spent answering HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{codeLabel, methodLabel}),
		size: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricResponseSize,
			Help:    "Size of HTTP response bodies.",
			Buckets: prometheus.ExponentialBuckets(256, 4, 10),
		}, []string{codeLabel}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricInFlight,
			Help: "Number of HTTP requests currently being answered.",
		}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRateLimited,
			Help: "Number of requests rejected by the per-client rate limit.",
		}),
	}

	buildInfo := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: MetricBuildInfo,
		Help: "Build information; the value is always 1.",
		ConstLabels: prometheus.Labels{
			versionLabel:   version,
			goVersionLabel: runtime.Version(),
		},
	})
	buildInfo.Set(1)

	m.registry.MustRegister(
		m.requests,
		m.duration,
		m.size,
		m.inFlight,
		m.rateLimited,
		buildInfo,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// TrackClients exports the number of clients the rate limiter currently
// keeps state for.
func (m *Metrics) TrackClients(count func() int) {
	m.registry.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: MetricClients,
		Help: "Number of clients with rate limiter state.",
	}, func() float64 { return float64(count()) }))
}

// Instrument wraps next with request counting, timing and size tracking.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	h := promhttp.InstrumentHandlerDuration(m.duration, next)
	h = promhttp.InstrumentHandlerResponseSize(m.size, h)
	h = promhttp.InstrumentHandlerCounter(m.requests, h)
	return promhttp.InstrumentHandlerInFlight(m.inFlight, h)
}

// RateLimited records one rejected request. Its signature matches
// ratelimit.Limiter.OnReject.
func (m *Metrics) RateLimited(string) {
	m.rateLimited.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		Registry: m.registry,
	})
}
