package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"actdone.backend/internal/domain/entities"
	domainerrors "actdone.backend/internal/domain/errors"
	"actdone.backend/internal/interfaces/http/middleware"
	"actdone.backend/internal/interfaces/http/response"
)

type taskListService interface {
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*entities.TaskList, error)
}

// TaskListHandler exposes the caller's task lists read-only.
type TaskListHandler struct {
	service taskListService
}

func NewTaskListHandler(service taskListService) *TaskListHandler {
	return &TaskListHandler{service: service}
}

// List returns the authenticated user's lists
// GET /api/lists
func (h *TaskListHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Error(c, domainerrors.Unauthorized("Unauthorized"))
		return
	}

	lists, err := h.service.ListForUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if lists == nil {
		lists = []*entities.TaskList{}
	}
	response.Success(c, http.StatusOK, gin.H{"lists": lists})
}
