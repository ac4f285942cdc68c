package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_http_requests_total",
		Help: "HTTP requests served, by method and status code.",
	}, []string{"method", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_http_request_duration_seconds",
		Help:    "HTTP request latency, by method.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	Panics = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_http_panics_total",
		Help: "Handler panics recovered by the middleware chain.",
	})

	// MaintenanceRuns counts daily job executions by job and outcome.
	MaintenanceRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_maintenance_runs_total",
		Help: "Maintenance job runs, by job and result.",
	}, []string{"job", "result"})
)
