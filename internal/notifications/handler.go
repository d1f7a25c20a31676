package notifications

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/planner-suite/backend/internal/middleware"
	"github.com/planner-suite/backend/internal/models"
	"github.com/planner-suite/backend/pkg/response"
)

// Item is a notification with its decoded payload for API responses.
type Item struct {
	models.Notification
	Decoded Payload `json:"decoded"`
}

// Handler handles notification HTTP endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates a notification handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// ListMine handles GET /notifications. Query ?unread=1 filters to unread.
func (h *Handler) ListMine(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListByUser(c.Request.Context(), userID, c.Query("unread") == "1")
	if err != nil {
		h.logger.Error("list notifications failed", zap.Error(err))
		response.Internal(c, "failed to list notifications")
		return
	}
	items := make([]Item, 0, len(list))
	for i := range list {
		items = append(items, Item{Notification: list[i], Decoded: DecodePayload(&list[i])})
	}
	response.OK(c, items)
}

// MarkRead handles POST /notifications/:id/read.
func (h *Handler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid notification id")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.repo.MarkRead(c.Request.Context(), id, userID); err != nil {
		response.NotFound(c, "notification not found or already read")
		return
	}
	response.NoContent(c)
}

// MarkAllRead handles POST /notifications/read-all.
func (h *Handler) MarkAllRead(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	n, err := h.repo.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("mark all read failed", zap.Error(err))
		response.Internal(c, "failed to mark notifications read")
		return
	}
	response.OK(c, gin.H{"marked": n})
}
