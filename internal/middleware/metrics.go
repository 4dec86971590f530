package middleware

import (
	"strconv"
	"time"

	"github.com/SergeiKhy/cinema-lines/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics считает запросы по шаблону маршрута, а не по фактическому пути
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		m.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
