package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the transport-level Prometheus metrics. Domain packages own
// their package-level metrics; these cover the HTTP edge.
type Metrics struct {
	Logins        prometheus.Counter
	LoginFailures prometheus.Counter
	Logouts       prometheus.Counter

	RequestDuration *prometheus.HistogramVec
}

// New creates and registers the transport metrics with the given registerer.
// Tests pass a fresh registry to avoid duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Logins: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubgate_logins_total",
			Help: "Successful credential exchanges",
		}),
		LoginFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubgate_login_failures_total",
			Help: "Rejected credential exchanges",
		}),
		Logouts: factory.NewCounter(prometheus.CounterOpts{
			Name: "clubgate_logouts_total",
			Help: "Explicit logouts",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "clubgate_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status class",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"}),
	}
}
