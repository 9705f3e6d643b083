package models

import (
	"time"

	"actdone.backend/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email           string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name            *string   `gorm:"type:varchar(100)"`
	PasswordHash    *string   `gorm:"type:varchar(255)"`
	ExternalID      *string   `gorm:"type:varchar(255);uniqueIndex"`
	IsEmailVerified bool      `gorm:"not null;default:false"`
	CreatedAt       time.Time `gorm:"not null"`
	UpdatedAt       time.Time `gorm:"not null"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = utils.NewID()
	}
	return nil
}
