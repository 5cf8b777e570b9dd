// Package metrics provides Prometheus instrumentation for salesmart.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// FactMutationsTotal counts fact store mutations by operation (insert, delete) and outcome.
	FactMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salesmart_fact_mutations_total",
		Help: "Fact store mutations by operation and outcome",
	}, []string{"op", "outcome"})

	// MartWritesTotal counts summary aggregate writes by kind (upsert, remove).
	MartWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salesmart_mart_writes_total",
		Help: "Product sales mart writes by kind",
	}, []string{"kind"})

	// MartInvariantRepairs counts deletions that drove a mart row negative.
	MartInvariantRepairs = promauto.NewCounter(prometheus.CounterOpts{
		Name: "salesmart_mart_invariant_repairs_total",
		Help: "Mart rows removed after a deletion produced a negative quantity",
	})

	// ReportRunsTotal counts customer report runs by trigger (http, scheduler) and outcome.
	ReportRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salesmart_report_runs_total",
		Help: "Customer report runs by trigger and outcome",
	}, []string{"trigger", "outcome"})

	// ReportDuration tracks customer report generation latency.
	ReportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "salesmart_report_duration_seconds",
		Help:    "Customer report generation latency in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"trigger"})

	// HTTPRequestsTotal counts HTTP requests by method, route, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "salesmart_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "salesmart_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request metrics for gin routes.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// Route pattern keeps the path label low-cardinality.
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
