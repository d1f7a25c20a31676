package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/planner-suite/backend/internal/auth"
	"github.com/planner-suite/backend/internal/guard"
	"github.com/planner-suite/backend/internal/models"
	"github.com/planner-suite/backend/internal/session"
)

// Guard returns the navigation guard middleware. It resolves the session
// from the cookie, refreshes it proactively when near expiry (best effort;
// a failed refresh is logged and the request continues), resolves the role
// only when the path is role-restricted, evaluates the guard chain, and
// turns a non-allow decision into a redirect. Authorization mismatches
// never surface as errors.
func Guard(chain guard.Chain, sessions *session.Service, cookies session.CookieCodec, profiles auth.ProfileReader, managers *auth.Registry, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := guard.Request{Path: c.Request.URL.Path}

		var current *session.Session
		if raw, err := c.Cookie(cookies.Name); err == nil {
			if id, refresh, err := cookies.Decode(raw); err == nil {
				sess, err := sessions.Get(c.Request.Context(), id)
				switch {
				case err == nil:
					current = sess
				case session.IsTokenExpired(err):
					// Access expiry within the session max age is
					// recoverable through the refresh token.
					current = sess
				default:
					current = nil
				}
				if current != nil && current.NearExpiry(time.Now()) {
					rotated, err := sessions.Refresh(c.Request.Context(), id, refresh)
					if err != nil {
						logger.Warn("proactive session refresh failed",
							zap.String("session_id", id.String()), zap.Error(err))
						if current.Expired(time.Now()) {
							current = nil
						}
					} else {
						cookies.Write(c.Writer, rotated)
						if managers != nil {
							managers.TokenRefreshed(rotated)
						}
						current = rotated
					}
				}
			}
		}

		if current != nil {
			req.Authenticated = true
			req.Role = current.Role
			if guard.NeedsRole(req.Path) {
				// Role rules read the profile, not the session claim, so a
				// role change takes effect without waiting out the session.
				profile, err := profiles.GetByID(c.Request.Context(), current.UserID)
				if err != nil {
					logger.Warn("profile fetch failed in guard", zap.Error(err))
					req.Role = ""
				} else {
					req.Role = profile.Role
				}
			}
			c.Set(ContextUserID, current.UserID)
			c.Set(ContextUserRole, string(req.Role))
			c.Set(ContextSessionID, current.ID)
		}

		decision := chain.Evaluate(req)
		if !decision.Allow {
			c.Redirect(http.StatusFound, decision.Target)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RoleFromContext returns the role set by Guard or Auth, if any.
func RoleFromContext(c *gin.Context) (models.Role, bool) {
	v, ok := c.Get(ContextUserRole)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return models.Role(s), s != ""
}
