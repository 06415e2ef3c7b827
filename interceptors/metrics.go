package interceptors

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector is a MetricsCollector backed by Prometheus counters
// and a latency histogram.
type PrometheusCollector struct {
	events   *prometheus.CounterVec
	errors   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPrometheusCollector registers the event handling metrics on reg
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	factory := promauto.With(reg)

	return &PrometheusCollector{
		events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ocn_events",
			Name:      "handled_total",
			Help:      "Events passed to the handler chain, by type",
		}, []string{"type"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ocn_events",
			Name:      "errors_total",
			Help:      "Events whose handling failed, by type and error class",
		}, []string{"type", "error"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ocn_events",
			Name:      "handling_duration_seconds",
			Help:      "Time spent in the handler chain",
			Buckets:   prometheus.DefBuckets,
		}, []string{"type"}),
	}
}

// IncrementEventCount implements MetricsCollector
func (c *PrometheusCollector) IncrementEventCount(eventType string) {
	c.events.WithLabelValues(eventType).Inc()
}

// RecordProcessingTime implements MetricsCollector
func (c *PrometheusCollector) RecordProcessingTime(eventType string, duration time.Duration) {
	c.duration.WithLabelValues(eventType).Observe(duration.Seconds())
}

// IncrementErrorCount implements MetricsCollector
func (c *PrometheusCollector) IncrementErrorCount(eventType string, errorType string) {
	c.errors.WithLabelValues(eventType, errorType).Inc()
}
