package profiles

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/planner-suite/backend/internal/middleware"
	"github.com/planner-suite/backend/internal/models"
	"github.com/planner-suite/backend/internal/session"
	"github.com/planner-suite/backend/pkg/response"
)

// UpdateRequest is the body for PATCH /profiles/me. The role cannot be
// changed through this endpoint.
type UpdateRequest struct {
	FullName           *string `json:"full_name"`
	Phone              *string `json:"phone"`
	AvailabilityStatus *string `json:"availability_status"`
}

// Handler handles profile HTTP endpoints.
type Handler struct {
	repo     *Repository
	sessions *session.Service
	cookies  session.CookieCodec
	logger   *zap.Logger
}

// NewHandler creates a profile handler.
func NewHandler(repo *Repository, sessions *session.Service, cookies session.CookieCodec, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, sessions: sessions, cookies: cookies, logger: logger}
}

// GetMe handles GET /profiles/me.
func (h *Handler) GetMe(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	p, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.NotFound(c, "profile not found")
		return
	}
	response.OK(c, p)
}

// UpdateMe handles PATCH /profiles/me.
func (h *Handler) UpdateMe(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	p := UpdateParams{FullName: req.FullName, Phone: req.Phone}
	if req.AvailabilityStatus != nil {
		s := models.AvailabilityStatus(*req.AvailabilityStatus)
		switch s {
		case models.AvailabilityAvailable, models.AvailabilityBusy, models.AvailabilityUnavailable:
			p.AvailabilityStatus = &s
		default:
			response.BadRequest(c, "invalid availability_status")
			return
		}
	}
	updated, err := h.repo.Update(c.Request.Context(), userID, p)
	if err != nil {
		h.logger.Error("update profile failed", zap.Error(err))
		response.Internal(c, "failed to update profile")
		return
	}
	response.OK(c, updated)
}

// List handles GET /profiles (regisseur or admin; for inviting staff).
// Query ?role= filters by role.
func (h *Handler) List(c *gin.Context) {
	var role *models.Role
	if s := c.Query("role"); s != "" {
		r, ok := models.ParseRole(s)
		if !ok {
			response.BadRequest(c, "invalid role")
			return
		}
		role = &r
	}
	list, err := h.repo.List(c.Request.Context(), role)
	if err != nil {
		h.logger.Error("list profiles failed", zap.Error(err))
		response.Internal(c, "failed to list profiles")
		return
	}
	response.OK(c, list)
}

// DeleteMe handles DELETE /profiles/me: the complete cascade removal, then
// session revocation and cookie clearing.
func (h *Handler) DeleteMe(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	if err := h.repo.DeleteComplete(c.Request.Context(), userID); err != nil {
		h.logger.Error("delete profile failed", zap.Error(err), zap.String("user_id", userID.String()))
		response.Internal(c, "failed to delete profile")
		return
	}
	if sid, ok := c.Get(middleware.ContextSessionID); ok {
		if id, ok := sid.(uuid.UUID); ok {
			if err := h.sessions.Revoke(c.Request.Context(), id); err != nil {
				h.logger.Warn("revoke session failed", zap.Error(err))
			}
		}
	}
	h.cookies.Clear(c.Writer)
	response.NoContent(c)
}
