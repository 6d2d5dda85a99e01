package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// unmatchedRoute labels requests that matched no route
const unmatchedRoute = "unmatched"

// HTTPMetricsRecorder receives per-request HTTP observations
type HTTPMetricsRecorder interface {
	AddActiveRequests(delta float64)
	ObserveHTTPRequest(method, route string, status int, elapsed time.Duration)
}

// HTTPMetrics returns a middleware that records request count, latency and
// in-flight requests. A nil recorder disables it.
func HTTPMetrics(recorder HTTPMetricsRecorder) gin.HandlerFunc {
	if recorder == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		start := time.Now()
		recorder.AddActiveRequests(1)
		defer recorder.AddActiveRequests(-1)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		recorder.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
