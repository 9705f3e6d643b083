package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"actdone.backend/internal/domain/entities"
	domainerrors "actdone.backend/internal/domain/errors"
	"actdone.backend/internal/interfaces/http/middleware"
	"actdone.backend/internal/usecases"
)

type authServiceStub struct {
	registerFn      func(context.Context, *entities.RegisterInput) (*entities.RegisterResult, error)
	verifyFn        func(context.Context, string) error
	loginFn         func(context.Context, *entities.LoginInput) (*entities.AuthResult, error)
	getUserFn       func(context.Context, uuid.UUID) (*entities.User, error)
	startOAuthFn    func(context.Context, string) (string, error)
	completeOAuthFn func(context.Context, string, usecases.OAuthCallback) (*entities.AuthResult, error)
}

func (s *authServiceStub) Register(ctx context.Context, in *entities.RegisterInput) (*entities.RegisterResult, error) {
	return s.registerFn(ctx, in)
}

func (s *authServiceStub) VerifyEmail(ctx context.Context, token string) error {
	return s.verifyFn(ctx, token)
}

func (s *authServiceStub) Login(ctx context.Context, in *entities.LoginInput) (*entities.AuthResult, error) {
	return s.loginFn(ctx, in)
}

func (s *authServiceStub) GetUserByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return s.getUserFn(ctx, id)
}

func (s *authServiceStub) StartOAuth(ctx context.Context, provider string) (string, error) {
	return s.startOAuthFn(ctx, provider)
}

func (s *authServiceStub) CompleteOAuth(ctx context.Context, provider string, cb usecases.OAuthCallback) (*entities.AuthResult, error) {
	return s.completeOAuthFn(ctx, provider, cb)
}

func (s *authServiceStub) SessionTTL() time.Duration { return 30 * time.Minute }

func (s *authServiceStub) VerifySuccessURL() string { return "http://app.test/verify-email/success" }

func (s *authServiceStub) OAuthSuccessURL() string { return "http://app.test/" }

func init() {
	gin.SetMode(gin.TestMode)
}

func sampleUser() *entities.User {
	return &entities.User{
		ID:              uuid.MustParse("0b7c1a52-3e7f-4a7a-9f3c-6a1d2b3c4d5e"),
		Email:           "ada@example.com",
		Name:            null.StringFrom("Ada"),
		PasswordHash:    null.StringFrom("$2a$10$secrethash"),
		ExternalID:      null.StringFrom("google-sub-1"),
		IsEmailVerified: true,
		CreatedAt:       time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func newAuthRouter(stub *authServiceStub, cookie CookieOptions, userID *uuid.UUID) *gin.Engine {
	h := NewAuthHandler(stub, cookie)
	r := gin.New()
	withUser := func(c *gin.Context) {
		if userID != nil {
			c.Set(middleware.UserIDKey, *userID)
		}
		c.Next()
	}
	r.POST("/register", h.Register)
	r.GET("/verify-email", h.VerifyEmail)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	r.GET("/me", withUser, h.Me)
	r.GET("/oauth/:provider/start", h.OAuthStart)
	r.GET("/oauth/:provider/callback", h.OAuthCallback)
	return r
}

func doJSON(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == name {
			return ck
		}
	}
	t.Fatalf("cookie %q not set; headers=%v", name, rec.Header())
	return nil
}

func TestAuthHandler_Register(t *testing.T) {
	var got *entities.RegisterInput
	stub := &authServiceStub{
		registerFn: func(_ context.Context, in *entities.RegisterInput) (*entities.RegisterResult, error) {
			got = in
			u := sampleUser()
			u.IsEmailVerified = false
			return &entities.RegisterResult{User: u, VerificationURL: "http://api.test/api/auth/verify-email?token=abc"}, nil
		},
	}
	r := newAuthRouter(stub, CookieOptions{}, nil)

	rec := doJSON(r, http.MethodPost, "/register", `{"email":"Ada@Example.com","password":"Secur3!pass","name":"Ada"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, got)
	assert.Equal(t, "Ada@Example.com", got.Email)
	require.NotNil(t, got.Name)
	assert.Equal(t, "Ada", *got.Name)

	assert.JSONEq(t, `{
		"message": "User registered successfully. Please check your email to verify your account.",
		"user": {"id":"0b7c1a52-3e7f-4a7a-9f3c-6a1d2b3c4d5e","email":"ada@example.com","name":"Ada","is_email_verified":false}
	}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "secrethash")
	assert.NotContains(t, rec.Body.String(), "google-sub-1")
	assert.NotContains(t, rec.Body.String(), "token=abc")
}

func TestAuthHandler_Register_BodyMissing(t *testing.T) {
	stub := &authServiceStub{
		registerFn: func(context.Context, *entities.RegisterInput) (*entities.RegisterResult, error) {
			t.Fatal("usecase must not run")
			return nil, nil
		},
	}
	r := newAuthRouter(stub, CookieOptions{}, nil)
	want := `{"code":"INVALID_INPUT","message":"` + usecases.MsgBodyMissing + `"}`

	rec := doJSON(r, http.MethodPost, "/register", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, want, rec.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader("email=a@b.co&password=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, want, rec.Body.String())
}

func TestAuthHandler_Register_UsecaseErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"conflict", domainerrors.Conflict(usecases.MsgEmailInUse), http.StatusConflict,
			`{"code":"CONFLICT","message":"Email already in use. Please login instead."}`},
		{"mail failure", domainerrors.InternalErrorWithMessage(usecases.MsgRegistrationMailFailed, domainerrors.ErrDeliveryFailed), http.StatusInternalServerError,
			`{"code":"INTERNAL_ERROR","message":"Registration failed while sending verification email. Please try again later."}`},
		{"weak password", domainerrors.BadRequest(usecases.MsgWeakPassword), http.StatusBadRequest,
			`{"code":"INVALID_INPUT","message":"` + usecases.MsgWeakPassword + `"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &authServiceStub{
				registerFn: func(context.Context, *entities.RegisterInput) (*entities.RegisterResult, error) {
					return nil, tc.err
				},
			}
			rec := doJSON(newAuthRouter(stub, CookieOptions{}, nil), http.MethodPost, "/register", `{"email":"a@b.co","password":"x"}`)
			assert.Equal(t, tc.status, rec.Code)
			assert.JSONEq(t, tc.body, rec.Body.String())
		})
	}
}

func TestAuthHandler_VerifyEmail(t *testing.T) {
	var seen string
	stub := &authServiceStub{
		verifyFn: func(_ context.Context, token string) error {
			seen = token
			if token == "used" {
				return domainerrors.NewAppError(http.StatusBadRequest, domainerrors.CodeTokenUsed, usecases.MsgTokenUsed, domainerrors.ErrTokenUsed)
			}
			return nil
		},
	}
	r := newAuthRouter(stub, CookieOptions{}, nil)

	rec := doJSON(r, http.MethodGet, "/verify-email?token=abc123", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://app.test/verify-email/success", rec.Header().Get("Location"))
	assert.Equal(t, "abc123", seen)

	rec = doJSON(r, http.MethodGet, "/verify-email?token=used", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"code":"TOKEN_USED","message":"Token already used. Email is already verified."}`, rec.Body.String())
}

func TestAuthHandler_Login_SetsSessionCookie(t *testing.T) {
	stub := &authServiceStub{
		loginFn: func(_ context.Context, in *entities.LoginInput) (*entities.AuthResult, error) {
			assert.Equal(t, "ada@example.com", in.Email)
			assert.Equal(t, "Secur3!pass", in.Password)
			return &entities.AuthResult{User: sampleUser(), Session: entities.Session{Token: "jwt-token"}}, nil
		},
	}
	r := newAuthRouter(stub, CookieOptions{Name: "access_token", Secure: true, Domain: "actdone.test"}, nil)

	rec := doJSON(r, http.MethodPost, "/login", `{"email":"ada@example.com","password":"Secur3!pass"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{
		"message": "Logged in successfully.",
		"user": {"id":"0b7c1a52-3e7f-4a7a-9f3c-6a1d2b3c4d5e","email":"ada@example.com","name":"Ada","is_email_verified":true}
	}`, rec.Body.String())

	ck := sessionCookie(t, rec, "access_token")
	assert.Equal(t, "jwt-token", ck.Value)
	assert.Equal(t, 1800, ck.MaxAge)
	assert.Equal(t, "/", ck.Path)
	assert.Equal(t, "actdone.test", ck.Domain)
	assert.True(t, ck.HttpOnly)
	assert.True(t, ck.Secure)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
}

func TestAuthHandler_Login_FailuresLeaveNoCookie(t *testing.T) {
	invalid := domainerrors.NewAppError(http.StatusUnauthorized, domainerrors.CodeInvalidCredentials, usecases.MsgInvalidCredentials, domainerrors.ErrInvalidCredentials)
	stub := &authServiceStub{
		loginFn: func(_ context.Context, in *entities.LoginInput) (*entities.AuthResult, error) {
			switch in.Email {
			case "pending@example.com":
				return nil, domainerrors.NewAppError(http.StatusForbidden, domainerrors.CodeEmailNotVerified, usecases.MsgEmailNotVerified, domainerrors.ErrEmailNotVerified)
			default:
				return nil, invalid
			}
		},
	}
	r := newAuthRouter(stub, CookieOptions{Name: "access_token"}, nil)

	unknown := doJSON(r, http.MethodPost, "/login", `{"email":"nobody@example.com","password":"x"}`)
	wrong := doJSON(r, http.MethodPost, "/login", `{"email":"ada@example.com","password":"y"}`)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, unknown.Body.String(), wrong.Body.String())
	assert.Empty(t, unknown.Result().Cookies())

	pending := doJSON(r, http.MethodPost, "/login", `{"email":"pending@example.com","password":"x"}`)
	assert.Equal(t, http.StatusForbidden, pending.Code)
	assert.Empty(t, pending.Result().Cookies())

	missing := doJSON(r, http.MethodPost, "/login", ``)
	assert.Equal(t, http.StatusBadRequest, missing.Code)
}

func TestAuthHandler_Logout_ClearsCookie(t *testing.T) {
	r := newAuthRouter(&authServiceStub{}, CookieOptions{Name: "access_token"}, nil)

	rec := doJSON(r, http.MethodPost, "/logout", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Logged out successfully."}`, rec.Body.String())

	ck := sessionCookie(t, rec, "access_token")
	assert.Empty(t, ck.Value)
	assert.Less(t, ck.MaxAge, 0)
	assert.True(t, ck.HttpOnly)
}

func TestAuthHandler_Me(t *testing.T) {
	user := sampleUser()
	stub := &authServiceStub{
		getUserFn: func(_ context.Context, id uuid.UUID) (*entities.User, error) {
			if id != user.ID {
				return nil, domainerrors.NotFound(usecases.MsgUserNotFound)
			}
			return user, nil
		},
	}

	rec := doJSON(newAuthRouter(stub, CookieOptions{}, &user.ID), http.MethodGet, "/me", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":{
		"id":"0b7c1a52-3e7f-4a7a-9f3c-6a1d2b3c4d5e","email":"ada@example.com","name":"Ada",
		"is_email_verified":true,"created_at":"2026-01-02T03:04:05Z"}}`, rec.Body.String())

	other := uuid.New()
	rec = doJSON(newAuthRouter(stub, CookieOptions{}, &other), http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(newAuthRouter(stub, CookieOptions{}, nil), http.MethodGet, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandler_OAuthStart(t *testing.T) {
	stub := &authServiceStub{
		startOAuthFn: func(_ context.Context, provider string) (string, error) {
			if provider != "google" {
				return "", domainerrors.NotFound(usecases.MsgProviderUnknown)
			}
			return "https://idp.example.com/auth?state=s1", nil
		},
	}
	r := newAuthRouter(stub, CookieOptions{}, nil)

	rec := doJSON(r, http.MethodGet, "/oauth/google/start", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://idp.example.com/auth?state=s1", rec.Header().Get("Location"))

	rec = doJSON(r, http.MethodGet, "/oauth/github/start", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthHandler_OAuthCallback(t *testing.T) {
	var seen usecases.OAuthCallback
	stub := &authServiceStub{
		completeOAuthFn: func(_ context.Context, provider string, cb usecases.OAuthCallback) (*entities.AuthResult, error) {
			seen = cb
			if cb.Error != "" {
				return nil, domainerrors.BadRequest(usecases.MsgOAuthDenied)
			}
			return &entities.AuthResult{User: sampleUser(), Session: entities.Session{Token: "jwt-oauth"}, Outcome: entities.ResolveMerged}, nil
		},
	}
	r := newAuthRouter(stub, CookieOptions{Name: "access_token"}, nil)

	rec := doJSON(r, http.MethodGet, "/oauth/google/callback?code=c1&state=s1", "")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://app.test/", rec.Header().Get("Location"))
	assert.Equal(t, usecases.OAuthCallback{Code: "c1", State: "s1"}, seen)
	assert.Equal(t, "jwt-oauth", sessionCookie(t, rec, "access_token").Value)

	rec = doJSON(r, http.MethodGet, "/oauth/google/callback?error=access_denied&state=s1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "access_denied", seen.Error)
	assert.Empty(t, rec.Result().Cookies())
}

func TestNewAuthHandler_DefaultCookieName(t *testing.T) {
	h := NewAuthHandler(&authServiceStub{}, CookieOptions{})
	assert.Equal(t, "access_token", h.cookie.Name)
}
