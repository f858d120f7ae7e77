// Package observability holds the Prometheus metrics for the service.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all Prometheus metrics for the application.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Business metrics
	LogsCreated prometheus.Counter
	LogsUpdated prometheus.Counter
	LogsDeleted prometheus.Counter

	// Degradation metrics
	ListDegradations prometheus.Counter
	AIFallbacks      *prometheus.CounterVec
}

// NewCollector creates a metrics collector on its own registry so tests
// can construct as many as they like without duplicate registration.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		LogsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logs_created_total",
			Help:      "Total number of learning logs created",
		}),
		LogsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logs_updated_total",
			Help:      "Total number of learning logs updated",
		}),
		LogsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logs_deleted_total",
			Help:      "Total number of learning logs deleted",
		}),
		ListDegradations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_degradations_total",
			Help:      "List queries that degraded to an empty result after a storage failure",
		}),
		AIFallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ai_fallbacks_total",
				Help:      "AI requests served by the deterministic fallback",
			},
			[]string{"reason"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.LogsCreated,
		c.LogsUpdated,
		c.LogsDeleted,
		c.ListDegradations,
		c.AIFallbacks,
	)

	return c
}

// Handler exposes the collector's registry for the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
