package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPMetricsMiddleware creates a Gin middleware that records HTTP metrics
func HTTPMetricsMiddleware(m Recorder) gin.HandlerFunc {
	// If NoopMetrics, return a lightweight middleware that does nothing
	if _, ok := m.(*NoopMetrics); ok {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	metrics, ok := m.(*Metrics)
	if !ok {
		return func(c *gin.Context) {
			start := time.Now()
			c.Next()
			m.RecordHTTPRequest(
				c.Request.Method,
				normalizePath(c.FullPath()),
				c.Writer.Status(),
				time.Since(start),
			)
		}
	}

	return func(c *gin.Context) {
		// Skip metrics endpoint to avoid self-recording
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()

		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		c.Next()

		metrics.RecordHTTPRequest(
			c.Request.Method,
			normalizePath(c.FullPath()), // Use route pattern, not actual path
			c.Writer.Status(),
			time.Since(start),
		)
	}
}

// RecordHTTPRequest records one served request
func (m *Metrics) RecordHTTPRequest(
	method, path string,
	status int,
	duration time.Duration,
) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// normalizePath converts the actual request path to route pattern
// Returns the route pattern (e.g., "/users/:username") or "unknown" if no route matched
func normalizePath(fullPath string) string {
	if fullPath == "" {
		return "unknown"
	}
	return fullPath
}
