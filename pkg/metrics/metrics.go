package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "actdone"

// Recorder owns a private registry so tests can build as many as they like.
type Recorder struct {
	registry   *prometheus.Registry
	authEvents *prometheus.CounterVec
	requests   *prometheus.HistogramVec
}

// New registers the auth and HTTP collectors plus the Go runtime collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_events_total",
			Help:      "Identity flow results by flow and outcome.",
		}, []string{"flow", "outcome"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of served HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(
		r.authEvents,
		r.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// AuthEvent counts one identity flow result, e.g. ("login", "invalid_credentials").
func (r *Recorder) AuthEvent(flow, outcome string) {
	if r == nil {
		return
	}
	r.authEvents.WithLabelValues(flow, outcome).Inc()
}

// ObserveRequest records the latency of one request.
func (r *Recorder) ObserveRequest(method, route string, status int, latency time.Duration) {
	if r == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	r.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(latency.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// AuthEventCounter is exported for assertions in other packages' tests.
func (r *Recorder) AuthEventCounter(flow, outcome string) prometheus.Counter {
	return r.authEvents.WithLabelValues(flow, outcome)
}
