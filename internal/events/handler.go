package events

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/planner-suite/backend/internal/middleware"
	"github.com/planner-suite/backend/internal/models"
	"github.com/planner-suite/backend/pkg/queue"
	"github.com/planner-suite/backend/pkg/response"
)

// CreateRequest is the body for POST /events.
type CreateRequest struct {
	Title           string `json:"title" binding:"required"`
	Description     string `json:"description"`
	TargetGroup     string `json:"target_group" binding:"required,oneof=artistes techniques both"`
	StartDate       string `json:"start_date" binding:"required,datetime=2006-01-02"`
	EndDate         string `json:"end_date" binding:"required,datetime=2006-01-02"`
	Location        string `json:"location"`
	Budget          *int64 `json:"budget"`
	MaxParticipants *int   `json:"max_participants"`
}

// UpdateRequest is the body for PATCH /events/:id. Nil fields are unchanged.
type UpdateRequest struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	TargetGroup     *string `json:"target_group"`
	StartDate       *string `json:"start_date"`
	EndDate         *string `json:"end_date"`
	Location        *string `json:"location"`
	Budget          *int64  `json:"budget"`
	MaxParticipants *int    `json:"max_participants"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	repo   *Repository
	jobs   *queue.Queue
	logger *zap.Logger
}

// NewHandler creates an event handler.
func NewHandler(repo *Repository, jobs *queue.Queue, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jobs: jobs, logger: logger}
}

// Create handles POST /events (regisseur or admin).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.EndDate < req.StartDate {
		response.BadRequest(c, "end_date before start_date")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	e := &models.Event{
		Title:           req.Title,
		Description:     req.Description,
		TargetGroup:     models.TargetGroup(req.TargetGroup),
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Location:        req.Location,
		Budget:          req.Budget,
		MaxParticipants: req.MaxParticipants,
		CreatedBy:       userID,
	}
	if err := h.repo.Create(c.Request.Context(), e); err != nil {
		h.logger.Error("create event failed", zap.Error(err))
		response.Internal(c, "failed to create event")
		return
	}
	response.Created(c, e)
}

// List handles GET /events. Query ?status= filters by lifecycle state,
// ?mine=1 returns only events created by the current user.
func (h *Handler) List(c *gin.Context) {
	var status *models.EventStatus
	if s := c.Query("status"); s != "" {
		st := models.EventStatus(s)
		switch st {
		case models.EventDraft, models.EventPublished, models.EventCancelled, models.EventCompleted:
			status = &st
		default:
			response.BadRequest(c, "invalid status")
			return
		}
	}
	var createdBy *uuid.UUID
	if c.Query("mine") == "1" {
		uid := c.MustGet(middleware.ContextUserID).(uuid.UUID)
		createdBy = &uid
	}
	list, err := h.repo.List(c.Request.Context(), status, createdBy)
	if err != nil {
		h.logger.Error("list events failed", zap.Error(err))
		response.Internal(c, "failed to list events")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /events/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	response.OK(c, e)
}

// Update handles PATCH /events/:id (creator or admin).
func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, ok := h.requireOwnership(c, id)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p := UpdateParams{
		Title:           req.Title,
		Description:     req.Description,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Location:        req.Location,
		Budget:          req.Budget,
		MaxParticipants: req.MaxParticipants,
	}
	if req.TargetGroup != nil {
		tg := models.TargetGroup(*req.TargetGroup)
		switch tg {
		case models.GroupArtistes, models.GroupTechniques, models.GroupBoth:
			p.TargetGroup = &tg
		default:
			response.BadRequest(c, "invalid target_group")
			return
		}
	}
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	updated, err := h.repo.Update(c.Request.Context(), e.ID, actor, p)
	if err != nil {
		h.logger.Error("update event failed", zap.Error(err), zap.String("event_id", id.String()))
		response.Internal(c, "failed to update event")
		return
	}
	response.OK(c, updated)
}

// Publish handles POST /events/:id/publish (creator or admin). Participants
// of the event's target group are notified through the job queue.
func (h *Handler) Publish(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if _, ok := h.requireOwnership(c, id); !ok {
		return
	}
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	published, err := h.repo.Publish(c.Request.Context(), id, actor)
	if err != nil {
		response.BadRequest(c, "event not found or not a draft")
		return
	}
	h.notifyParticipants(c, published, models.NotificationEventPublished, "Événement publié")
	response.OK(c, published)
}

// Cancel handles POST /events/:id/cancel (creator or admin).
func (h *Handler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if _, ok := h.requireOwnership(c, id); !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)
	actor := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	cancelled, err := h.repo.Cancel(c.Request.Context(), id, actor, req.Reason)
	if err != nil {
		response.BadRequest(c, "event not found or already closed")
		return
	}
	h.notifyParticipants(c, cancelled, models.NotificationEventCancelled, "Événement annulé")
	response.OK(c, cancelled)
}

// notifyParticipants enqueues a notification job for every invited or
// confirmed participant. The transition is already committed; enqueue
// failures are logged and do not fail the request.
func (h *Handler) notifyParticipants(c *gin.Context, e *models.Event, typ models.NotificationType, title string) {
	ids, err := h.repo.ParticipantIDs(c.Request.Context(), e.ID)
	if err != nil {
		h.logger.Warn("participant lookup for notification failed", zap.Error(err), zap.String("event_id", e.ID.String()))
		return
	}
	for _, userID := range ids {
		if err := h.jobs.EnqueueNotification(c.Request.Context(), queue.NotificationPayload{
			UserID:      userID,
			Type:        typ,
			Title:       title,
			Message:     e.Title,
			RelatedType: models.RelatedEvent,
			RelatedID:   &e.ID,
		}); err != nil {
			h.logger.Warn("notification enqueue failed", zap.Error(err), zap.String("user_id", userID.String()))
		}
	}
}

// Delete handles DELETE /events/:id (creator or admin). Deletion is refused
// for published events or events with confirmed participants.
func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if _, ok := h.requireOwnership(c, id); !ok {
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, ErrNotDeletable) {
			response.Conflict(c, "event has confirmed participants or is published")
			return
		}
		h.logger.Error("delete event failed", zap.Error(err), zap.String("event_id", id.String()))
		response.Internal(c, "failed to delete event")
		return
	}
	response.NoContent(c)
}

// History handles GET /events/:id/history.
func (h *Handler) History(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	list, err := h.repo.History(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("event history failed", zap.Error(err))
		response.Internal(c, "failed to load event history")
		return
	}
	response.OK(c, list)
}

// requireOwnership loads the event and checks the caller is its creator or
// an admin. On failure it writes the response and returns ok=false.
func (h *Handler) requireOwnership(c *gin.Context, id uuid.UUID) (*models.Event, bool) {
	e, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "event not found")
		return nil, false
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role, _ := middleware.RoleFromContext(c)
	if e.CreatedBy != userID && role != models.RoleAdmin {
		response.Forbidden(c, "only the creator can modify this event")
		return nil, false
	}
	return e, true
}
