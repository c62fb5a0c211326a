package polls

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/liveclass/polling/internal/middleware"
	"github.com/liveclass/polling/internal/models"
	"github.com/liveclass/polling/pkg/response"
)

// HistoryStore lists stored polls by owning teacher.
type HistoryStore interface {
	ListByTeacher(ctx context.Context, teacher string) ([]*models.Poll, error)
}

// Handler handles poll HTTP endpoints.
type Handler struct {
	store  HistoryStore
	logger *zap.Logger
}

// NewHandler creates a polls handler.
func NewHandler(store HistoryStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, logger: logger}
}

// History handles GET /polls/:teacherUsername. A teacher may only read their own polls.
func (h *Handler) History(c *gin.Context) {
	teacher := strings.TrimSpace(c.Param("teacherUsername"))
	if !models.IsTeacherName(teacher) {
		response.BadRequest(c, "invalid teacher username")
		return
	}
	if c.GetString(middleware.ContextUsername) != teacher {
		response.Forbidden(c, "you can only view your own polls")
		return
	}

	list, err := h.store.ListByTeacher(c.Request.Context(), teacher)
	if err != nil {
		h.logger.Error("list poll history", zap.String("teacher", teacher), zap.Error(err))
		response.Internal(c, "failed to load polls")
		return
	}
	response.List(c, list)
}
