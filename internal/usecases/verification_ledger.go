package usecases

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"actdone.backend/internal/domain/entities"
	domainerrors "actdone.backend/internal/domain/errors"
	"actdone.backend/internal/domain/repositories"
	"actdone.backend/pkg/crypto"
	"github.com/google/uuid"
)

// DefaultVerificationTTL is how long an emailed link stays valid.
const DefaultVerificationTTL = 24 * time.Hour

// VerificationLedger issues single-use email verification tokens and
// consumes them exactly once.
type VerificationLedger struct {
	repo     repositories.EmailVerificationRepository
	ttl      time.Duration
	now      func() time.Time
	newToken func() (string, error)
}

func NewVerificationLedger(repo repositories.EmailVerificationRepository, ttl time.Duration) *VerificationLedger {
	if ttl <= 0 {
		ttl = DefaultVerificationTTL
	}
	return &VerificationLedger{
		repo:     repo,
		ttl:      ttl,
		now:      time.Now,
		newToken: crypto.GenerateVerificationToken,
	}
}

// WithClock replaces the ledger's time source.
func (l *VerificationLedger) WithClock(now func() time.Time) *VerificationLedger {
	l.now = now
	return l
}

func (l *VerificationLedger) TTL() time.Duration {
	return l.ttl
}

// Issue records a fresh token for userID expiring TTL from now.
func (l *VerificationLedger) Issue(ctx context.Context, userID uuid.UUID) (*entities.EmailVerification, error) {
	token, err := l.newToken()
	if err != nil {
		return nil, fmt.Errorf("generate verification token: %w", err)
	}

	now := l.now()
	v := &entities.EmailVerification{
		UserID:    userID,
		Token:     token,
		ExpiresAt: now.Add(l.ttl),
		CreatedAt: now,
	}
	if err := l.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Consume marks token used and returns its owner. A rejected token is
// classified as ErrTokenInvalid, ErrTokenUsed or ErrTokenExpired, checked
// in that order.
func (l *VerificationLedger) Consume(ctx context.Context, token string) (uuid.UUID, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return uuid.Nil, domainerrors.ErrTokenInvalid
	}

	now := l.now()
	consumed, err := l.repo.Consume(ctx, token, now)
	if err != nil {
		return uuid.Nil, err
	}

	record, err := l.repo.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return uuid.Nil, domainerrors.ErrTokenInvalid
		}
		return uuid.Nil, err
	}
	if consumed {
		return record.UserID, nil
	}

	switch {
	case record.IsUsed():
		return uuid.Nil, domainerrors.ErrTokenUsed
	case record.IsExpired(now):
		return uuid.Nil, domainerrors.ErrTokenExpired
	default:
		return uuid.Nil, domainerrors.ErrTokenInvalid
	}
}
