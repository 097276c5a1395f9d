package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ai-resource-hub/server/internal/pkg/metrics"
)

// Metrics records request counts and latency by matched route.
func Metrics(skipPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == skipPath {
			c.Next()
			return
		}
		start := time.Now()
		metrics.InFlight(1)
		defer metrics.InFlight(-1)

		c.Next()

		metrics.ObserveRequest(c.Request.Method, c.FullPath(), strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
