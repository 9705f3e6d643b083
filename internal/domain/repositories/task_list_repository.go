package repositories

import (
	"context"

	"actdone.backend/internal/domain/entities"
	"github.com/google/uuid"
)

// TaskListRepository provisions and reads task lists.
type TaskListRepository interface {
	CreateDefault(ctx context.Context, userID uuid.UUID, name string) (*entities.TaskList, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entities.TaskList, error)
}
