package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/planner-suite/backend/internal/models"
	"github.com/planner-suite/backend/internal/session"
	"github.com/planner-suite/backend/pkg/queue"
	"github.com/planner-suite/backend/pkg/response"
	"github.com/planner-suite/backend/pkg/utils"
)

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role"` // optional, defaults to intermittent
	Phone    string `json:"phone"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ResetPasswordRequest is the body for POST /auth/reset-password.
type ResetPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ConfirmResetRequest is the body for POST /auth/reset-password/confirm.
type ConfirmResetRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// SessionResponse is the auth response with the session bundle and profile.
type SessionResponse struct {
	Session *session.Session `json:"session"`
	Profile *models.Profile  `json:"profile"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo     *Repository
	sessions *session.Service
	cookies  session.CookieCodec
	managers *Registry
	tokens   *OneTimeTokens
	jobs     *queue.Queue
	logger   *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, sessions *session.Service, cookies session.CookieCodec, managers *Registry, tokens *OneTimeTokens, jobs *queue.Queue, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, sessions: sessions, cookies: cookies, managers: managers, tokens: tokens, jobs: jobs, logger: logger}
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	role := models.RoleIntermittent
	if req.Role != "" {
		r, ok := models.ParseRole(req.Role)
		if !ok || r == models.RoleAdmin {
			response.BadRequest(c, "invalid role")
			return
		}
		role = r
	}

	if _, err := h.repo.GetByEmail(c.Request.Context(), req.Email); err == nil {
		response.BadRequest(c, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	profile, err := h.repo.Create(c.Request.Context(), req.Email, hash, req.FullName, role, req.Phone)
	if err != nil {
		h.logger.Error("create profile failed", zap.Error(err))
		response.Internal(c, "failed to create profile")
		return
	}

	sess, err := h.sessions.Create(c.Request.Context(), profile)
	if err != nil {
		h.logger.Error("create session failed", zap.Error(err))
		response.Internal(c, "failed to create session")
		return
	}
	h.cookies.Write(c.Writer, sess)
	h.managers.SignedIn(c.Request.Context(), sess)

	if err := h.jobs.EnqueueNotification(c.Request.Context(), queue.NotificationPayload{
		UserID:  profile.ID,
		Type:    models.NotificationSystem,
		Title:   "Bienvenue",
		Message: "Votre compte Planner Suite est actif.",
	}); err != nil {
		h.logger.Warn("welcome enqueue failed", zap.Error(err))
	}

	response.Created(c, SessionResponse{Session: sess, Profile: profile})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	profile, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Unauthorized(c, "invalid email or password")
		return
	}
	if !utils.CheckPassword(req.Password, profile.PasswordHash) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	sess, err := h.sessions.Create(c.Request.Context(), profile)
	if err != nil {
		h.logger.Error("create session failed", zap.Error(err))
		response.Internal(c, "failed to create session")
		return
	}
	h.cookies.Write(c.Writer, sess)
	h.managers.SignedIn(c.Request.Context(), sess)

	response.OK(c, SessionResponse{Session: sess, Profile: profile})
}

// Logout handles POST /auth/logout: revokes the session and clears the cookie.
func (h *Handler) Logout(c *gin.Context) {
	if raw, err := c.Cookie(h.cookies.Name); err == nil {
		if id, _, err := h.cookies.Decode(raw); err == nil {
			if err := h.sessions.Revoke(c.Request.Context(), id); err != nil {
				h.logger.Warn("revoke session failed", zap.Error(err))
			}
			h.managers.SignedOut(id)
		}
	}
	h.cookies.Clear(c.Writer)
	response.NoContent(c)
}

// ResetPassword handles POST /auth/reset-password. Always responds 204 so
// the endpoint does not leak which emails exist.
func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	profile, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err == nil {
		token, err := h.tokens.IssueReset(c.Request.Context(), profile.ID)
		if err != nil {
			h.logger.Error("issue reset token failed", zap.Error(err))
		} else {
			if err := h.jobs.EnqueueNotification(c.Request.Context(), queue.NotificationPayload{
				UserID:  profile.ID,
				Type:    models.NotificationSystem,
				Title:   "Réinitialisation du mot de passe",
				Message: "Lien de réinitialisation: /auth/callback?token=" + token,
			}); err != nil {
				h.logger.Warn("reset enqueue failed", zap.Error(err))
			}
		}
	}
	response.NoContent(c)
}

// ConfirmReset handles POST /auth/reset-password/confirm.
func (h *Handler) ConfirmReset(c *gin.Context) {
	var req ConfirmResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID, err := h.tokens.RedeemReset(c.Request.Context(), req.Token)
	if err != nil {
		response.Unauthorized(c, "invalid or expired token")
		return
	}
	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}
	if err := h.repo.UpdatePassword(c.Request.Context(), userID, hash); err != nil {
		h.logger.Error("update password failed", zap.Error(err))
		response.Internal(c, "failed to update password")
		return
	}
	response.NoContent(c)
}

// Callback handles GET /auth/callback and GET /api/auth/callback. It
// exchanges a one-time token for a session and redirects to the requested
// target or the site root.
func (h *Handler) Callback(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.BadRequest(c, "token required")
		return
	}
	userID, err := h.tokens.RedeemCallback(c.Request.Context(), token)
	if err != nil {
		response.Unauthorized(c, "invalid or expired token")
		return
	}
	profile, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		response.Unauthorized(c, "unknown profile")
		return
	}
	sess, err := h.sessions.Create(c.Request.Context(), profile)
	if err != nil {
		h.logger.Error("create session failed", zap.Error(err))
		response.Internal(c, "failed to create session")
		return
	}
	h.cookies.Write(c.Writer, sess)
	h.managers.SignedIn(c.Request.Context(), sess)

	target := c.Query("redirectTo")
	if target == "" || target[0] != '/' {
		target = "/"
	}
	c.Redirect(http.StatusFound, target)
}
