package middleware

import (
	"time"

	"github.com/erp/quotedesk/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// Metrics records request counts and latency by route template
func Metrics(m *telemetry.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
