package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CartOpMetrics records outcomes for cart store operations.
type CartOpMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

// NewCartOpMetrics registers the cart operation metrics on the provided
// registerer. A nil registerer yields a no-op recorder.
func NewCartOpMetrics(reg prometheus.Registerer) *CartOpMetrics {
	if reg == nil {
		return &CartOpMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cart_op_duration_seconds",
		Help:    "Duration of cart store operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_op_success",
		Help: "Successful cart store operations.",
	}, []string{"op"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_op_failure",
		Help: "Failed cart store operations.",
	}, []string{"op"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_op_rejected",
		Help: "Cart store operations rejected by the in-flight guard.",
	}, []string{"op"})
	reg.MustRegister(duration, success, failure, rejected)
	return &CartOpMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		rejected: rejected,
	}
}

// ObserveDuration records the duration for the named operation.
func (c *CartOpMetrics) ObserveDuration(op string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(op)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named operation.
func (c *CartOpMetrics) IncSuccess(op string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncFailure increments the failure counter for the named operation.
func (c *CartOpMetrics) IncFailure(op string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncRejected increments the busy-rejection counter for the named operation.
func (c *CartOpMetrics) IncRejected(op string) {
	if c == nil || c.rejected == nil {
		return
	}
	c.rejected.WithLabelValues(normalizeLabel(op)).Inc()
}

func normalizeLabel(op string) string {
	if op == "" {
		return "unknown"
	}
	return op
}
