package participants

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/planner-suite/backend/internal/events"
	"github.com/planner-suite/backend/internal/middleware"
	"github.com/planner-suite/backend/internal/models"
	"github.com/planner-suite/backend/pkg/queue"
	"github.com/planner-suite/backend/pkg/response"
)

// InviteRequest is the body for POST /events/:id/participants.
type InviteRequest struct {
	UserID string `json:"user_id" binding:"required,uuid"`
}

// RespondRequest is the body for POST /events/:id/participants/respond.
type RespondRequest struct {
	Response string `json:"response" binding:"required,oneof=confirmed declined"`
}

// Handler handles participant HTTP endpoints.
type Handler struct {
	repo      *Repository
	eventRepo *events.Repository
	jobs      *queue.Queue
	logger    *zap.Logger
}

// NewHandler creates a participant handler.
func NewHandler(repo *Repository, eventRepo *events.Repository, jobs *queue.Queue, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, eventRepo: eventRepo, jobs: jobs, logger: logger}
}

// Invite handles POST /events/:id/participants (creator or admin). The
// invited user gets a notification through the job queue.
func (h *Handler) Invite(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.eventRepo.GetByID(c.Request.Context(), eventID)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role, _ := middleware.RoleFromContext(c)
	if e.CreatedBy != actor && role != models.RoleAdmin {
		response.Forbidden(c, "only the creator can invite participants")
		return
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		response.BadRequest(c, "invalid user_id")
		return
	}

	p, err := h.repo.Invite(c.Request.Context(), eventID, userID)
	if err != nil {
		h.logger.Error("invite failed", zap.Error(err), zap.String("event_id", eventID.String()))
		response.Internal(c, "failed to invite participant")
		return
	}
	// The invitation row is already committed; a queue hiccup only delays
	// the notification.
	if err := h.jobs.EnqueueNotification(c.Request.Context(), queue.NotificationPayload{
		UserID:      userID,
		Type:        models.NotificationInvitation,
		Title:       "Invitation",
		Message:     "Vous êtes invité à " + e.Title,
		RelatedType: models.RelatedParticipant,
		RelatedID:   &p.ID,
	}); err != nil {
		h.logger.Warn("notification enqueue failed", zap.Error(err), zap.String("user_id", userID.String()))
	}
	response.Created(c, p)
}

// Respond handles POST /events/:id/participants/respond: the current user
// confirms or declines their own invitation. Confirmations respect the
// event's max_participants.
func (h *Handler) Respond(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	if _, err := h.repo.Get(c.Request.Context(), eventID, userID); err != nil {
		response.NotFound(c, "no invitation for this event")
		return
	}

	status := models.ParticipantStatus(req.Response)
	var p *models.EventParticipant
	if status == models.ParticipantConfirmed {
		p, err = h.repo.Confirm(c.Request.Context(), eventID, userID)
		if errors.Is(err, ErrEventFull) {
			response.Conflict(c, "event is full")
			return
		}
	} else {
		p, err = h.repo.SetStatus(c.Request.Context(), eventID, userID, status)
	}
	if err != nil {
		h.logger.Error("respond failed", zap.Error(err))
		response.Internal(c, "failed to record response")
		return
	}
	response.OK(c, p)
}

// ListByEvent handles GET /events/:id/participants.
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	list, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		h.logger.Error("list participants failed", zap.Error(err))
		response.Internal(c, "failed to list participants")
		return
	}
	response.OK(c, list)
}

// ListMine handles GET /participants/mine: the current user's invitations.
func (h *Handler) ListMine(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list my invitations failed", zap.Error(err))
		response.Internal(c, "failed to list invitations")
		return
	}
	response.OK(c, list)
}
