package proposals

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/planner-suite/backend/internal/events"
	"github.com/planner-suite/backend/internal/middleware"
	"github.com/planner-suite/backend/internal/models"
	"github.com/planner-suite/backend/pkg/queue"
	"github.com/planner-suite/backend/pkg/response"
)

// CreateRequest is the body for POST /events/:id/proposals.
type CreateRequest struct {
	ProposedStart string `json:"proposed_start" binding:"required,datetime=2006-01-02"`
	ProposedEnd   string `json:"proposed_end" binding:"required,datetime=2006-01-02"`
}

// VoteRequest is the body for POST /proposals/:id/vote.
type VoteRequest struct {
	InFavor *bool `json:"in_favor" binding:"required"`
}

// Handler handles date proposal HTTP endpoints.
type Handler struct {
	repo      *Repository
	eventRepo *events.Repository
	jobs      *queue.Queue
	logger    *zap.Logger
}

// NewHandler creates a proposal handler.
func NewHandler(repo *Repository, eventRepo *events.Repository, jobs *queue.Queue, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, eventRepo: eventRepo, jobs: jobs, logger: logger}
}

// Create handles POST /events/:id/proposals.
func (h *Handler) Create(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if _, err := h.eventRepo.GetByID(c.Request.Context(), eventID); err != nil {
		response.NotFound(c, "event not found")
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.ProposedEnd < req.ProposedStart {
		response.BadRequest(c, "proposed_end before proposed_start")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	p := &models.DateProposal{
		EventID:       eventID,
		ProposedStart: req.ProposedStart,
		ProposedEnd:   req.ProposedEnd,
		ProposedBy:    userID,
	}
	if err := h.repo.Create(c.Request.Context(), p); err != nil {
		h.logger.Error("create proposal failed", zap.Error(err))
		response.Internal(c, "failed to create proposal")
		return
	}
	response.Created(c, p)
}

// ListByEvent handles GET /events/:id/proposals.
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	list, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		h.logger.Error("list proposals failed", zap.Error(err))
		response.Internal(c, "failed to list proposals")
		return
	}
	response.OK(c, list)
}

// Vote handles POST /proposals/:id/vote.
func (h *Handler) Vote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid proposal id")
		return
	}
	var req VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	p, err := h.repo.Vote(c.Request.Context(), id, userID, *req.InFavor)
	if err != nil {
		response.Conflict(c, "vote not recorded: already voted or proposal closed")
		return
	}
	if err := h.jobs.EnqueueNotification(c.Request.Context(), queue.NotificationPayload{
		UserID:      p.ProposedBy,
		Type:        models.NotificationProposalVote,
		Title:       "Nouveau vote",
		Message:     "Un vote a été enregistré sur votre proposition de dates.",
		RelatedType: models.RelatedProposal,
		RelatedID:   &p.ID,
	}); err != nil {
		h.logger.Warn("notification enqueue failed", zap.Error(err), zap.String("proposal_id", p.ID.String()))
	}
	response.OK(c, p)
}

// SetStatus handles POST /proposals/:id/status (creator or admin): retain
// or reject a proposal.
func (h *Handler) SetStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid proposal id")
		return
	}
	var req struct {
		Status string `json:"status" binding:"required,oneof=retained rejected"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.NotFound(c, "proposal not found")
		return
	}
	e, err := h.eventRepo.GetByID(c.Request.Context(), p.EventID)
	if err != nil {
		response.NotFound(c, "event not found")
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role, _ := middleware.RoleFromContext(c)
	if e.CreatedBy != userID && role != models.RoleAdmin {
		response.Forbidden(c, "only the event creator can close proposals")
		return
	}
	updated, err := h.repo.SetStatus(c.Request.Context(), id, models.ProposalStatus(req.Status))
	if err != nil {
		response.Conflict(c, "proposal already closed")
		return
	}
	response.OK(c, updated)
}
