package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"vulnerability-dashboard/internal/metrics"
)

// Metrics records request count and latency by matched route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.RecordHTTPRequest(c.FullPath(), c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
