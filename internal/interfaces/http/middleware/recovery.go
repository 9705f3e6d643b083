package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainerrors "actdone.backend/internal/domain/errors"
	"actdone.backend/internal/interfaces/http/response"
	"actdone.backend/pkg/logger"
)

// RecoveryMiddleware turns a panic into a generic 500 and logs it.
func RecoveryMiddleware() gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		logger.Error(c.Request.Context(), "Panic recovered",
			zap.Any("panic", recovered),
			zap.String("path", c.Request.URL.Path),
			zap.Stack("stack"),
		)
		if c.Writer.Written() {
			c.Abort()
			return
		}
		response.Abort(c, domainerrors.InternalError(fmt.Errorf("panic: %v", recovered)))
	})
}

// ErrorHandler renders the last error a handler attached with c.Error when
// nothing has been written yet.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		response.Error(c, c.Errors.Last().Err)
	}
}
