// Package metrics provides Prometheus metrics for the SDK
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the SDK collectors. A nil *Metrics records nothing.
type Metrics struct {
	// REST request metrics
	RestRequestsTotal   *prometheus.CounterVec
	RestRequestDuration *prometheus.HistogramVec

	// Crypto metrics
	DecryptFailuresTotal *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// With a nil reg the collectors work but are not exported anywhere.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RestRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tutasdk_rest_requests_total",
				Help: "Total number of REST requests by method and status code",
			},
			[]string{"method", "code"},
		),
		RestRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tutasdk_rest_request_duration_seconds",
				Help:    "Duration of REST requests in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method"},
		),
		DecryptFailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tutasdk_decrypt_failures_total",
				Help: "Total number of entities that failed to decrypt, by type",
			},
			[]string{"type"},
		),
	}
}

// RecordRequest records a finished REST request. Transport failures are
// recorded with status 0 and the code label "error".
func (m *Metrics) RecordRequest(method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.RestRequestsTotal.WithLabelValues(method, code).Inc()
	m.RestRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordDecryptFailure counts an entity of typeName that could not be decrypted.
func (m *Metrics) RecordDecryptFailure(typeName string) {
	if m == nil {
		return
	}
	m.DecryptFailuresTotal.WithLabelValues(typeName).Inc()
}
