package repositories

import (
	"context"
	"time"

	"actdone.backend/internal/domain/entities"
	"github.com/google/uuid"
)

// UserRepository is the credential store. Email and external id are unique;
// violations surface as errors.ErrAlreadyExists.
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	GetByExternalID(ctx context.Context, externalID string) (*entities.User, error)
	// LinkExternalIdentity attaches externalID and marks the email verified.
	LinkExternalIdentity(ctx context.Context, id uuid.UUID, externalID string) error
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
}

// EmailVerificationRepository is the token ledger's storage.
type EmailVerificationRepository interface {
	Create(ctx context.Context, verification *entities.EmailVerification) error
	GetByToken(ctx context.Context, token string) (*entities.EmailVerification, error)
	// Consume marks token used if it is unused and unexpired at now. Only one
	// caller can ever observe true for a given token.
	Consume(ctx context.Context, token string, now time.Time) (bool, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
