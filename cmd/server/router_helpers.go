package main

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"actdone.backend/internal/interfaces/http/middleware"
)

const serviceName = "actdone-backend"

// newRouter builds the engine with the middleware every route shares.
func newRouter(origins []string, hsts bool, observer middleware.RequestObserver) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())
	if observer != nil {
		r.Use(middleware.MetricsMiddleware(observer))
	}
	r.Use(middleware.SecurityHeaders(hsts))
	applyCORSMiddleware(r, origins)
	r.Use(middleware.ErrorHandler())
	return r
}

// applyCORSMiddleware allows credentialed requests from the configured
// origins only. Preflights are answered directly.
func applyCORSMiddleware(r *gin.Engine, origins []string) {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[strings.TrimRight(o, "/")] = struct{}{}
	}

	r.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if _, ok := allowed[origin]; ok && origin != "" {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")
			h.Set("Access-Control-Max-Age", "600")
			h.Add("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})
}

func registerHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": serviceName,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})
}

func registerMetricsRoute(r *gin.Engine, h http.Handler) {
	if h == nil {
		return
	}
	r.GET("/metrics", gin.WrapH(h))
}
