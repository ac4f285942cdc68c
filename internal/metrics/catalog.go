// Package metrics holds the Prometheus collectors of the catalog service.
// They register on the default registry and are served by promhttp at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Searches counts answered searches by filter type and by where the page
	// came from ("cache" or "live").
	Searches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_searches_total",
		Help: "Catalog searches answered, by type and source.",
	}, []string{"type", "source"})

	SearchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_search_duration_seconds",
		Help:    "Catalog search latency, by type.",
		Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
	}, []string{"type"})

	CacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_errors_total",
		Help: "Result cache operations that failed and were treated as misses.",
	}, []string{"op"})

	AvailabilityUnknown = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_availability_unknown_total",
		Help: "Rows whose availability could not be derived.",
	})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_rate_limited_total",
		Help: "Requests rejected by the rate limiter, by policy.",
	}, []string{"policy"})
)
