package usecases

import (
	"context"

	"actdone.backend/internal/domain/entities"
	domainerrors "actdone.backend/internal/domain/errors"
	"actdone.backend/internal/domain/repositories"
	"github.com/google/uuid"
)

// TaskListUsecase exposes the lists provisioned for an account.
type TaskListUsecase struct {
	repo repositories.TaskListRepository
}

func NewTaskListUsecase(repo repositories.TaskListRepository) *TaskListUsecase {
	return &TaskListUsecase{repo: repo}
}

// ListForUser returns userID's lists in display order.
func (u *TaskListUsecase) ListForUser(ctx context.Context, userID uuid.UUID) ([]*entities.TaskList, error) {
	lists, err := u.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, domainerrors.InternalError(err)
	}
	return lists, nil
}
