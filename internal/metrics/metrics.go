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
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "colorvibe_http_requests_total",
		Help: "Total number of HTTP requests processed.",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "colorvibe_http_request_duration_seconds",
		Help:    "Histogram of latencies for HTTP requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// StoreWrites counts full-collection writes by operation.
	StoreWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "colorvibe_store_writes_total",
		Help: "Full event-collection writes by store operation.",
	}, []string{"operation"})

	// ChangeSignals counts change signals by source (local or remote).
	ChangeSignals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "colorvibe_change_signals_total",
		Help: "Change signals dispatched to subscribers.",
	}, []string{"source"})

	// Publishes counts admin publish actions.
	Publishes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "colorvibe_publishes_total",
		Help: "Staged color/mode published to live fields.",
	})

	// CleanupRemoved counts events dropped by the retention sweep.
	CleanupRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "colorvibe_cleanup_removed_total",
		Help: "Events removed after their retention window.",
	})

	// Screens tracks open light-screen connections.
	Screens = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "colorvibe_screens_connected",
		Help: "Open light-screen WebSocket connections.",
	})
)

// Middleware records request metrics labelled by the matched route pattern.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
