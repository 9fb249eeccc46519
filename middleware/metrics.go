package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"meela-intake/monitoring"
)

// RequestMetrics считает запросы по шаблону маршрута, а не по фактическому пути.
func RequestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		monitoring.RequestsInFlight.Inc()
		start := time.Now()
		defer func() {
			monitoring.RequestsInFlight.Dec()
			monitoring.RequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
			monitoring.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
		}()

		c.Next()
	}
}
