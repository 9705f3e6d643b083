package repositories

import (
	"context"
	"time"

	"actdone.backend/internal/domain/entities"
	domainerrors "actdone.backend/internal/domain/errors"
	"actdone.backend/internal/infrastructure/models"
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
)

// UserRepository implements user data operations
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts user and fills in its generated id and timestamps.
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	if !user.HasAuthMethod() || user.Email == "" {
		return domainerrors.ErrInvalidInput
	}

	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}

	m := &models.User{
		ID:              user.ID,
		Email:           entities.NormalizeEmail(user.Email),
		Name:            user.Name.Ptr(),
		PasswordHash:    user.PasswordHash.Ptr(),
		ExternalID:      user.ExternalID.Ptr(),
		IsEmailVerified: user.IsEmailVerified,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}

	if err := GetDB(ctx, r.db).Create(m).Error; err != nil {
		return translateError(err)
	}
	user.ID = m.ID
	user.Email = m.Email
	return nil
}

// GetByID gets a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByEmail looks a user up by normalized email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.first(ctx, "email = ?", entities.NormalizeEmail(email))
}

// GetByExternalID looks a user up by provider subject.
func (r *UserRepository) GetByExternalID(ctx context.Context, externalID string) (*entities.User, error) {
	if externalID == "" {
		return nil, domainerrors.ErrNotFound
	}
	return r.first(ctx, "external_id = ?", externalID)
}

// LinkExternalIdentity attaches externalID to the account and marks its email
// verified. An account already linked to a different subject is a conflict.
func (r *UserRepository) LinkExternalIdentity(ctx context.Context, id uuid.UUID, externalID string) error {
	result := GetDB(ctx, r.db).
		Model(&models.User{}).
		Where("id = ? AND (external_id IS NULL OR external_id = ?)", id, externalID).
		Updates(map[string]interface{}{
			"external_id":       externalID,
			"is_email_verified": true,
			"updated_at":        time.Now().UTC(),
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domainerrors.ErrAlreadyExists
	}
	return nil
}

// MarkEmailVerified sets is_email_verified. Repeating it is harmless.
func (r *UserRepository) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	result := GetDB(ctx, r.db).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_email_verified": true,
			"updated_at":        time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *UserRepository) first(ctx context.Context, query string, args ...interface{}) (*entities.User, error) {
	var m models.User
	if err := GetDB(ctx, r.db).Where(query, args...).First(&m).Error; err != nil {
		return nil, translateError(err)
	}
	return userToEntity(&m), nil
}

func userToEntity(m *models.User) *entities.User {
	return &entities.User{
		ID:              m.ID,
		Email:           m.Email,
		Name:            null.StringFromPtr(m.Name),
		PasswordHash:    null.StringFromPtr(m.PasswordHash),
		ExternalID:      null.StringFromPtr(m.ExternalID),
		IsEmailVerified: m.IsEmailVerified,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
