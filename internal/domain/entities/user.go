package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// User is an account. At least one of PasswordHash and ExternalID is set.
type User struct {
	ID              uuid.UUID   `json:"id"`
	Email           string      `json:"email"`
	Name            null.String `json:"name"`
	PasswordHash    null.String `json:"-"`
	ExternalID      null.String `json:"-"`
	IsEmailVerified bool        `json:"is_email_verified"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// HasPassword reports whether the account can sign in with a password.
func (u *User) HasPassword() bool {
	return u.PasswordHash.Valid && u.PasswordHash.String != ""
}

// HasExternalIdentity reports whether the account is linked to the provider.
func (u *User) HasExternalIdentity() bool {
	return u.ExternalID.Valid && u.ExternalID.String != ""
}

// HasAuthMethod reports whether the account can authenticate at all.
func (u *User) HasAuthMethod() bool {
	return u.HasPassword() || u.HasExternalIdentity()
}

// PublicUser is the client-facing projection of a User.
type PublicUser struct {
	ID              uuid.UUID   `json:"id"`
	Email           string      `json:"email"`
	Name            null.String `json:"name"`
	IsEmailVerified bool        `json:"is_email_verified"`
	CreatedAt       *time.Time  `json:"created_at,omitempty"`
}

// Public projects u without credentials. withCreatedAt adds the creation time.
func (u *User) Public(withCreatedAt bool) PublicUser {
	p := PublicUser{
		ID:              u.ID,
		Email:           u.Email,
		Name:            u.Name,
		IsEmailVerified: u.IsEmailVerified,
	}
	if withCreatedAt {
		created := u.CreatedAt
		p.CreatedAt = &created
	}
	return p
}

// NormalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RegisterInput is the body of a password registration. Field order is the
// order in which validation failures are reported.
type RegisterInput struct {
	Email    string  `json:"email" validate:"required,account_email"`
	Password string  `json:"password" validate:"required,password_length,password_policy"`
	Name     *string `json:"name" validate:"omitempty,max=100"`
}

// Normalize trims surrounding whitespace. The password is left untouched.
func (in *RegisterInput) Normalize() {
	in.Email = NormalizeEmail(in.Email)
	if in.Name != nil {
		trimmed := strings.TrimSpace(*in.Name)
		in.Name = &trimmed
	}
}

// LoginInput represents input for user login
type LoginInput struct {
	Email    string `json:"email" validate:"required,account_email"`
	Password string `json:"password" validate:"required"`
}

// ExternalIdentity is a provider-asserted identity after a successful code exchange.
type ExternalIdentity struct {
	ExternalID    string
	Email         string
	DisplayName   string
	EmailVerified *bool
}

// ResolveOutcome says which branch the identity resolver took.
type ResolveOutcome string

const (
	ResolveExisting ResolveOutcome = "existing"
	ResolveMerged   ResolveOutcome = "merged"
	ResolveCreated  ResolveOutcome = "created"
)

// ResolveResult is the account an external identity maps to.
type ResolveResult struct {
	Outcome ResolveOutcome
	User    *User
}

// Session is a signed session token and its expiry.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// AuthResult is returned by successful login and provider sign-in.
type AuthResult struct {
	User    *User
	Session Session
	Outcome ResolveOutcome
}

// RegisterResult is returned by a successful registration.
type RegisterResult struct {
	User            *User
	VerificationURL string
}
