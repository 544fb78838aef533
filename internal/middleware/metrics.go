package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/huddle/pkg/metrics"
)

const unmatchedRoute = "unmatched"

// Metrics records latency per route template and tracks in-flight requests. Paths without a
// registered route share one label so scanners cannot inflate series cardinality. Long-lived
// websocket streams are counted in flight but their latency is not observed.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		metrics.HTTPInFlight.Inc()
		defer metrics.HTTPInFlight.Dec()

		start := time.Now()
		c.Next()

		if c.IsWebsocket() {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		metrics.APILatency.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
