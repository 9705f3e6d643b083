package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestObserver receives the latency of every served request.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, latency time.Duration)
}

// MetricsMiddleware reports request latency labelled by the matched route
// template so path parameters do not explode label cardinality.
func MetricsMiddleware(observer RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		observer.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
