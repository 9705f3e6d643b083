package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"

	"actdone.backend/internal/domain/entities"
	domainerrors "actdone.backend/internal/domain/errors"
	"actdone.backend/internal/interfaces/http/middleware"
	"actdone.backend/internal/interfaces/http/response"
	"actdone.backend/internal/usecases"
)

// AuthService is the part of the auth usecase the HTTP layer drives.
type AuthService interface {
	Register(ctx context.Context, input *entities.RegisterInput) (*entities.RegisterResult, error)
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, input *entities.LoginInput) (*entities.AuthResult, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	StartOAuth(ctx context.Context, provider string) (string, error)
	CompleteOAuth(ctx context.Context, provider string, cb usecases.OAuthCallback) (*entities.AuthResult, error)
	SessionTTL() time.Duration
	VerifySuccessURL() string
	OAuthSuccessURL() string
}

// CookieOptions describes the session cookie. It is always HttpOnly,
// SameSite=Lax and scoped to "/".
type CookieOptions struct {
	Name   string
	Domain string
	Secure bool
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	auth   AuthService
	cookie CookieOptions
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth AuthService, cookie CookieOptions) *AuthHandler {
	if cookie.Name == "" {
		cookie.Name = "access_token"
	}
	return &AuthHandler{auth: auth, cookie: cookie}
}

// Register handles password registration
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var input entities.RegisterInput
	if !bindJSON(c, &input) {
		return
	}

	result, err := h.auth.Register(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"message": usecases.MsgRegistered,
		"user":    result.User.Public(false),
	})
}

// VerifyEmail consumes an emailed token and redirects to the client
// GET /api/auth/verify-email?token=
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	if err := h.auth.VerifyEmail(c.Request.Context(), c.Query("token")); err != nil {
		response.Error(c, err)
		return
	}
	c.Redirect(http.StatusFound, h.auth.VerifySuccessURL())
}

// Login handles password login
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var input entities.LoginInput
	if !bindJSON(c, &input) {
		return
	}

	result, err := h.auth.Login(c.Request.Context(), &input)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setSessionCookie(c, result.Session.Token)
	response.Success(c, http.StatusOK, gin.H{
		"message": usecases.MsgLoggedIn,
		"user":    result.User.Public(false),
	})
}

// Logout clears the session cookie. Sessions are stateless, so nothing is revoked.
// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", h.cookie.Domain, h.cookie.Secure, true)
	response.Success(c, http.StatusOK, gin.H{"message": usecases.MsgLoggedOut})
}

// Me returns the authenticated account
// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Unauthorized"))
		return
	}

	user, err := h.auth.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"user": user.Public(true)})
}

// OAuthStart redirects to the provider consent screen
// GET /api/auth/oauth/:provider/start
func (h *AuthHandler) OAuthStart(c *gin.Context) {
	target, err := h.auth.StartOAuth(c.Request.Context(), c.Param("provider"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Redirect(http.StatusFound, target)
}

// OAuthCallback finishes provider sign-in, sets the session and redirects to the client
// GET /api/auth/oauth/:provider/callback?code=&state=
func (h *AuthHandler) OAuthCallback(c *gin.Context) {
	cb := usecases.OAuthCallback{
		Code:  c.Query("code"),
		State: c.Query("state"),
		Error: c.Query("error"),
	}

	result, err := h.auth.CompleteOAuth(c.Request.Context(), c.Param("provider"), cb)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setSessionCookie(c, result.Session.Token)
	c.Redirect(http.StatusFound, h.auth.OAuthSuccessURL())
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, int(h.auth.SessionTTL().Seconds()), "/", h.cookie.Domain, h.cookie.Secure, true)
}

// bindJSON decodes a JSON body. Anything else, including a wrong content
// type, is reported as a missing body.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if c.ContentType() != binding.MIMEJSON {
		response.Error(c, domainerrors.BadRequest(usecases.MsgBodyMissing))
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, domainerrors.BadRequest(usecases.MsgBodyMissing))
		return false
	}
	return true
}
