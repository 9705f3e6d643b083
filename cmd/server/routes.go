package main

import (
	"github.com/gin-gonic/gin"

	"actdone.backend/internal/interfaces/http/handlers"
)

type routeDeps struct {
	authHandler     *handlers.AuthHandler
	taskListHandler *handlers.TaskListHandler
	requireAuth     gin.HandlerFunc
	// rateLimit returns the limiter for one credential endpoint. Nil disables limiting.
	rateLimit func(scope string) gin.HandlerFunc
}

func (d routeDeps) limit(scope string) gin.HandlerFunc {
	if d.rateLimit == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return d.rateLimit(scope)
}

func registerAPIRoutes(r *gin.Engine, d routeDeps) {
	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", d.limit("register"), d.authHandler.Register)
			auth.POST("/login", d.limit("login"), d.authHandler.Login)
			auth.POST("/logout", d.authHandler.Logout)
			auth.GET("/verify-email", d.authHandler.VerifyEmail)
			auth.GET("/me", d.requireAuth, d.authHandler.Me)
			auth.GET("/oauth/:provider/start", d.limit("oauth"), d.authHandler.OAuthStart)
			auth.GET("/oauth/:provider/callback", d.authHandler.OAuthCallback)
		}

		lists := api.Group("/lists")
		lists.Use(d.requireAuth)
		{
			lists.GET("", d.taskListHandler.List)
		}
	}
}
