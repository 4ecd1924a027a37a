// Package metrics exposes Prometheus metrics for the blog cache service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Refresh trigger labels.
const (
	TriggerCold       = "cold"
	TriggerBackground = "background"
	TriggerForced     = "forced"
)

// Metrics tracks cache behavior and HTTP request metrics.
type Metrics struct {
	registry *prometheus.Registry

	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	cacheRefreshes *prometheus.CounterVec
	fetchFailures  prometheus.Counter

	requestDuration *prometheus.HistogramVec
}

// New creates and registers all collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogcache_hits_total",
			Help: "Reads served from cache",
		}, []string{"path"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogcache_misses_total",
			Help: "Reads that required a synchronous source fetch",
		}, []string{"path"}),
		cacheRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blogcache_refreshes_total",
			Help: "Cache refreshes by trigger",
		}, []string{"trigger"}),
		fetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blogcache_fetch_failures_total",
			Help: "Source fetches that failed",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
	}

	registry.MustRegister(
		m.cacheHits,
		m.cacheMisses,
		m.cacheRefreshes,
		m.fetchFailures,
		m.requestDuration,
	)

	return m
}

// CacheHit records a read served from cache.
func (m *Metrics) CacheHit(path string) {
	m.cacheHits.WithLabelValues(path).Inc()
}

// CacheMiss records a read that went to the source.
func (m *Metrics) CacheMiss(path string) {
	m.cacheMisses.WithLabelValues(path).Inc()
}

// Refresh records a cache refresh by trigger.
func (m *Metrics) Refresh(trigger string) {
	m.cacheRefreshes.WithLabelValues(trigger).Inc()
}

// FetchFailure records a failed source fetch.
func (m *Metrics) FetchFailure() {
	m.fetchFailures.Inc()
}

// Middleware returns gin middleware that observes request durations.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.requestDuration.WithLabelValues(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
