package httpclient

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the client's Prometheus collectors.
type Metrics struct {
	// RequestsTotal counts logical requests by method and outcome
	RequestsTotal *prometheus.CounterVec
	// AttemptsTotal counts transport attempts by method
	AttemptsTotal *prometheus.CounterVec
	// RetriesTotal counts scheduled retries by error type
	RetriesTotal *prometheus.CounterVec
	// RequestDuration tracks logical request latency, retries included
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg when reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docsearch_client_requests_total",
				Help: "Total number of logical API requests",
			},
			[]string{"method", "outcome"},
		),
		AttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docsearch_client_attempts_total",
				Help: "Total number of HTTP attempts, retries included",
			},
			[]string{"method"},
		),
		RetriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docsearch_client_retries_total",
				Help: "Total number of retries scheduled after a retryable error",
			},
			[]string{"error_type"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docsearch_client_request_duration_seconds",
				Help:    "Logical request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.RequestsTotal, m.AttemptsTotal, m.RetriesTotal, m.RequestDuration)
	}
	return m
}
