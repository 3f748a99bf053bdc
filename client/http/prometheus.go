package http

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsCollector implements MetricsCollector backed by
// prometheus counters and histograms.
type PrometheusMetricsCollector struct {
	requestDuration *prometheus.HistogramVec
	requestCount    *prometheus.CounterVec
	requestErrors   *prometheus.CounterVec
}

// NewPrometheusMetricsCollector builds a collector registered on the given
// registerer (use prometheus.DefaultRegisterer for the process default).
func NewPrometheusMetricsCollector(namespace string, reg prometheus.Registerer) *PrometheusMetricsCollector {
	c := &PrometheusMetricsCollector{
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_client_request_duration_seconds",
			Help:      "Duration of outbound HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_client_requests_total",
			Help:      "Total outbound HTTP requests.",
		}, []string{"method", "path", "status"}),
		requestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_client_request_errors_total",
			Help:      "Total failed outbound HTTP requests.",
		}, []string{"method", "path"}),
	}

	reg.MustRegister(c.requestDuration, c.requestCount, c.requestErrors)
	return c
}

func (c *PrometheusMetricsCollector) RecordRequestDuration(method, path string, statusCode int, duration time.Duration) {
	c.requestDuration.WithLabelValues(method, path, strconv.Itoa(statusCode)).Observe(duration.Seconds())
}

func (c *PrometheusMetricsCollector) RecordRequestCount(method, path string, statusCode int) {
	c.requestCount.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
}

func (c *PrometheusMetricsCollector) RecordRequestError(method, path string) {
	c.requestErrors.WithLabelValues(method, path).Inc()
}
