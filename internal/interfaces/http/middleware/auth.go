package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainerrors "actdone.backend/internal/domain/errors"
	"actdone.backend/internal/interfaces/http/response"
	"actdone.backend/pkg/logger"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "userId"

const msgUnauthorized = "Unauthorized"

// SessionVerifier checks a session token and returns the user it was issued to.
type SessionVerifier interface {
	Verify(token string) (uuid.UUID, error)
}

// RequireAuth admits requests carrying a valid session cookie. Every failure
// gets the same 401 body.
func RequireAuth(verifier SessionVerifier, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			response.Abort(c, domainerrors.Unauthorized(msgUnauthorized))
			return
		}

		userID, err := verifier.Verify(token)
		if err != nil {
			logger.Debug(c.Request.Context(), "Session rejected")
			response.Abort(c, domainerrors.Unauthorized(msgUnauthorized))
			return
		}

		c.Set(UserIDKey, userID)
		ctx := context.WithValue(c.Request.Context(), logger.UserIDKey, userID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetUserID gets the user ID from context
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	val, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := val.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
