package service

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var httpRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "gopherqr_http_requests_total",
	Help: "Total number of API requests handled since start.",
})

// RequestCounter counts handled API requests. Reset only affects Count;
// the exported prometheus counter stays monotonic.
type RequestCounter struct {
	n atomic.Int64
}

// NewRequestCounter returns a counter starting at zero.
func NewRequestCounter() *RequestCounter {
	return &RequestCounter{}
}

// Increment adds one request.
func (c *RequestCounter) Increment() {
	c.n.Add(1)
	httpRequestsTotal.Inc()
}

// Count returns the number of requests since start or the last Reset.
func (c *RequestCounter) Count() int64 {
	return c.n.Load()
}

// Reset sets the count back to zero.
func (c *RequestCounter) Reset() {
	c.n.Store(0)
}
