package rest

import (
	"context"
	"time"

	"github.com/tutasdk/client-go/internal/metrics"
)

// InstrumentedTransport records request counts and latencies of the
// wrapped Transport.
type InstrumentedTransport struct {
	next    Transport
	metrics *metrics.Metrics
}

// Instrument wraps next. A nil m returns next unchanged.
func Instrument(next Transport, m *metrics.Metrics) Transport {
	if m == nil {
		return next
	}
	return &InstrumentedTransport{next: next, metrics: m}
}

// Request implements Transport.
func (t *InstrumentedTransport) Request(ctx context.Context, url string, method Method, opts Options) (*Response, error) {
	start := time.Now()
	resp, err := t.next.Request(ctx, url, method, opts)

	status := 0
	if resp != nil {
		status = resp.Status
	}
	t.metrics.RecordRequest(string(method), status, time.Since(start))

	return resp, err
}
