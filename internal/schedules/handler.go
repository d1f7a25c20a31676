package schedules

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/planner-suite/backend/internal/events"
	"github.com/planner-suite/backend/internal/middleware"
	"github.com/planner-suite/backend/internal/models"
	"github.com/planner-suite/backend/pkg/response"
)

// EntryRequest is the body for creating or replacing a schedule entry.
type EntryRequest struct {
	ScheduleDate      string   `json:"schedule_date" binding:"required,datetime=2006-01-02"`
	StartTime         string   `json:"start_time" binding:"required,datetime=15:04"`
	EndTime           string   `json:"end_time" binding:"required,datetime=15:04"`
	Title             string   `json:"title" binding:"required"`
	Description       string   `json:"description"`
	TargetGroups      []string `json:"target_groups" binding:"required,min=1,dive,oneof=artistes techniques both"`
	Location          string   `json:"location"`
	RequiredSkills    []string `json:"required_skills"`
	IsMandatory       bool     `json:"is_mandatory"`
	ResponsiblePerson string   `json:"responsible_person"`
}

// Handler handles daily schedule HTTP endpoints.
type Handler struct {
	repo      *Repository
	eventRepo *events.Repository
	logger    *zap.Logger
}

// NewHandler creates a schedule handler.
func NewHandler(repo *Repository, eventRepo *events.Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, eventRepo: eventRepo, logger: logger}
}

// Create handles POST /events/:id/schedules (creator or admin).
func (h *Handler) Create(c *gin.Context) {
	eventID, ok := h.requireEventOwnership(c)
	if !ok {
		return
	}
	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	s := &models.DailySchedule{
		EventID:           eventID,
		ScheduleDate:      req.ScheduleDate,
		StartTime:         req.StartTime,
		EndTime:           req.EndTime,
		Title:             req.Title,
		Description:       req.Description,
		TargetGroups:      toGroups(req.TargetGroups),
		Location:          req.Location,
		RequiredSkills:    req.RequiredSkills,
		IsMandatory:       req.IsMandatory,
		ResponsiblePerson: req.ResponsiblePerson,
	}
	if err := h.repo.Create(c.Request.Context(), s); err != nil {
		h.logger.Error("create schedule failed", zap.Error(err))
		response.Internal(c, "failed to create schedule")
		return
	}
	response.Created(c, s)
}

// ListByEvent handles GET /events/:id/schedules.
func (h *Handler) ListByEvent(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	list, err := h.repo.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		h.logger.Error("list schedules failed", zap.Error(err))
		response.Internal(c, "failed to list schedules")
		return
	}
	response.OK(c, list)
}

// Update handles PUT /events/:id/schedules/:scheduleId (creator or admin).
func (h *Handler) Update(c *gin.Context) {
	eventID, ok := h.requireEventOwnership(c)
	if !ok {
		return
	}
	scheduleID, err := uuid.Parse(c.Param("scheduleId"))
	if err != nil {
		response.BadRequest(c, "invalid schedule id")
		return
	}
	existing, err := h.repo.GetByID(c.Request.Context(), scheduleID)
	if err != nil || existing.EventID != eventID {
		response.NotFound(c, "schedule not found")
		return
	}
	var req EntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	existing.ScheduleDate = req.ScheduleDate
	existing.StartTime = req.StartTime
	existing.EndTime = req.EndTime
	existing.Title = req.Title
	existing.Description = req.Description
	existing.TargetGroups = toGroups(req.TargetGroups)
	existing.Location = req.Location
	existing.RequiredSkills = req.RequiredSkills
	existing.IsMandatory = req.IsMandatory
	existing.ResponsiblePerson = req.ResponsiblePerson
	if err := h.repo.Update(c.Request.Context(), existing); err != nil {
		h.logger.Error("update schedule failed", zap.Error(err))
		response.Internal(c, "failed to update schedule")
		return
	}
	response.OK(c, existing)
}

// Delete handles DELETE /events/:id/schedules/:scheduleId (creator or admin).
func (h *Handler) Delete(c *gin.Context) {
	eventID, ok := h.requireEventOwnership(c)
	if !ok {
		return
	}
	scheduleID, err := uuid.Parse(c.Param("scheduleId"))
	if err != nil {
		response.BadRequest(c, "invalid schedule id")
		return
	}
	existing, err := h.repo.GetByID(c.Request.Context(), scheduleID)
	if err != nil || existing.EventID != eventID {
		response.NotFound(c, "schedule not found")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), scheduleID); err != nil {
		h.logger.Error("delete schedule failed", zap.Error(err))
		response.Internal(c, "failed to delete schedule")
		return
	}
	response.NoContent(c)
}

func (h *Handler) requireEventOwnership(c *gin.Context) (uuid.UUID, bool) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return uuid.Nil, false
	}
	e, err := h.eventRepo.GetByID(c.Request.Context(), eventID)
	if err != nil {
		response.NotFound(c, "event not found")
		return uuid.Nil, false
	}
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role, _ := middleware.RoleFromContext(c)
	if e.CreatedBy != userID && role != models.RoleAdmin {
		response.Forbidden(c, "only the creator can modify this event's planning")
		return uuid.Nil, false
	}
	return eventID, true
}

func toGroups(ss []string) []models.TargetGroup {
	out := make([]models.TargetGroup, 0, len(ss))
	for _, s := range ss {
		out = append(out, models.TargetGroup(s))
	}
	return out
}
