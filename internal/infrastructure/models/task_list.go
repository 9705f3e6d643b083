package models

import (
	"time"

	"actdone.backend/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskList struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_task_lists_one_default,where:is_default = true"`
	Name      string    `gorm:"type:varchar(100);not null"`
	SortOrder int       `gorm:"not null;default:0"`
	IsDefault bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (TaskList) TableName() string { return "task_lists" }

func (l *TaskList) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = utils.NewID()
	}
	return nil
}
