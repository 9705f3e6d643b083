package repositories

import (
	"context"
	"time"

	"actdone.backend/internal/domain/entities"
	"actdone.backend/internal/infrastructure/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskListRepository implements task list persistence
type TaskListRepository struct {
	db *gorm.DB
}

func NewTaskListRepository(db *gorm.DB) *TaskListRepository {
	return &TaskListRepository{db: db}
}

// CreateDefault provisions the user's default list at sort position 0.
// A second default for the same user violates a partial unique index.
func (r *TaskListRepository) CreateDefault(ctx context.Context, userID uuid.UUID, name string) (*entities.TaskList, error) {
	now := time.Now().UTC()
	m := &models.TaskList{
		UserID:    userID,
		Name:      name,
		SortOrder: 0,
		IsDefault: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := GetDB(ctx, r.db).Omit("User").Create(m).Error; err != nil {
		return nil, translateError(err)
	}
	return taskListToEntity(m), nil
}

// ListByUser returns the user's lists ordered by sort order then age.
func (r *TaskListRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.TaskList, error) {
	var rows []models.TaskList
	err := GetDB(ctx, r.db).
		Where("user_id = ?", userID).
		Order("sort_order ASC").
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	lists := make([]*entities.TaskList, 0, len(rows))
	for i := range rows {
		lists = append(lists, taskListToEntity(&rows[i]))
	}
	return lists, nil
}

func taskListToEntity(m *models.TaskList) *entities.TaskList {
	return &entities.TaskList{
		ID:        m.ID,
		UserID:    m.UserID,
		Name:      m.Name,
		SortOrder: m.SortOrder,
		IsDefault: m.IsDefault,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
