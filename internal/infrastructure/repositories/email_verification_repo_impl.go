package repositories

import (
	"context"
	"time"

	"actdone.backend/internal/domain/entities"
	"actdone.backend/internal/infrastructure/models"
	"gorm.io/gorm"
)

// EmailVerificationRepository implements email verification operations
type EmailVerificationRepository struct {
	db *gorm.DB
}

// NewEmailVerificationRepository creates a new email verification repository
func NewEmailVerificationRepository(db *gorm.DB) *EmailVerificationRepository {
	return &EmailVerificationRepository{db: db}
}

// Create stores a freshly issued token.
func (r *EmailVerificationRepository) Create(ctx context.Context, v *entities.EmailVerification) error {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	m := &models.EmailVerification{
		ID:        v.ID,
		UserID:    v.UserID,
		Token:     v.Token,
		ExpiresAt: v.ExpiresAt.UTC(),
		UsedAt:    v.UsedAt,
		CreatedAt: v.CreatedAt.UTC(),
	}
	if err := GetDB(ctx, r.db).Omit("User").Create(m).Error; err != nil {
		return translateError(err)
	}
	v.ID = m.ID
	return nil
}

// GetByToken returns the ledger row for token.
func (r *EmailVerificationRepository) GetByToken(ctx context.Context, token string) (*entities.EmailVerification, error) {
	var m models.EmailVerification
	if err := GetDB(ctx, r.db).Where("token = ?", token).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return &entities.EmailVerification{
		ID:        m.ID,
		UserID:    m.UserID,
		Token:     m.Token,
		ExpiresAt: m.ExpiresAt,
		UsedAt:    m.UsedAt,
		CreatedAt: m.CreatedAt,
	}, nil
}

// Consume flips used_at in one conditional UPDATE so concurrent callers race
// on the row, not on a read-then-write.
func (r *EmailVerificationRepository) Consume(ctx context.Context, token string, now time.Time) (bool, error) {
	now = now.UTC()
	result := GetDB(ctx, r.db).
		Model(&models.EmailVerification{}).
		Where("token = ? AND used_at IS NULL AND expires_at > ?", token, now).
		Update("used_at", now)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// DeleteExpiredBefore removes tokens whose window closed before cutoff.
func (r *EmailVerificationRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := GetDB(ctx, r.db).
		Where("expires_at < ?", cutoff.UTC()).
		Delete(&models.EmailVerification{})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
