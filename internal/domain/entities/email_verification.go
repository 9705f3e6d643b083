package entities

import (
	"time"

	"github.com/google/uuid"
)

// EmailVerification is a single-use proof-of-ownership token for an account email.
type EmailVerification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

// IsUsed reports whether the token was already consumed.
func (v *EmailVerification) IsUsed() bool {
	return v.UsedAt != nil
}

// IsExpired reports whether the token is past its window at now.
func (v *EmailVerification) IsExpired(now time.Time) bool {
	return !now.Before(v.ExpiresAt)
}
