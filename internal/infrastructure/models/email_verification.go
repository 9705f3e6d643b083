package models

import (
	"time"

	"actdone.backend/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EmailVerification struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	Token     string     `gorm:"type:varchar(128);uniqueIndex;not null"`
	ExpiresAt time.Time  `gorm:"not null;index"`
	UsedAt    *time.Time `gorm:"index"`
	CreatedAt time.Time  `gorm:"not null"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (EmailVerification) TableName() string { return "email_verification_tokens" }

func (v *EmailVerification) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = utils.NewID()
	}
	return nil
}
