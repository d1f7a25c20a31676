package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/planner-suite/backend/internal/auth"
	"github.com/planner-suite/backend/internal/session"
	"github.com/planner-suite/backend/pkg/response"
)

const (
	// ContextUserID is the key for user ID in gin context.
	ContextUserID = "user_id"
	// ContextUserRole is the key for user role in gin context.
	ContextUserRole = "user_role"
	// ContextSessionID is the key for the session ID in gin context.
	ContextSessionID = "session_id"
)

// Auth returns a middleware that authenticates a request from either a
// Bearer access token or the session cookie, and sets the user identity in
// the gin context. The cookie path runs through the session's auth manager:
// an expired access window is refreshed with the cookie's refresh token and
// the lookup retried once, with the rotated bundle written back as a cookie.
func Auth(sessions *session.Service, cookies session.CookieCodec, managers *auth.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				response.Unauthorized(c, "invalid authorization header")
				c.Abort()
				return
			}
			claims, err := sessions.ValidateAccessToken(parts[1])
			if err != nil {
				if session.IsTokenExpired(err) {
					response.Unauthorized(c, "token expired")
				} else {
					response.Unauthorized(c, "invalid token")
				}
				c.Abort()
				return
			}
			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextUserRole, string(claims.Role))
			c.Set(ContextSessionID, claims.SessionID)
			c.Next()
			return
		}

		raw, err := c.Cookie(cookies.Name)
		if err != nil {
			response.Unauthorized(c, "missing session")
			c.Abort()
			return
		}
		id, refresh, err := cookies.Decode(raw)
		if err != nil {
			response.Unauthorized(c, "invalid session cookie")
			c.Abort()
			return
		}
		mgr, err := managers.For(c.Request.Context(), &session.Session{ID: id, RefreshToken: refresh})
		if err != nil {
			response.Unauthorized(c, "invalid session")
			c.Abort()
			return
		}
		var sess *session.Session
		err = mgr.ExecuteAuthOperation(c.Request.Context(), func(ctx context.Context) error {
			s, err := sessions.Get(ctx, id)
			if err != nil {
				return err
			}
			sess = s
			return nil
		})
		if err != nil {
			managers.Drop(id)
			if session.IsTokenExpired(err) {
				response.Unauthorized(c, "session expired")
			} else {
				response.Unauthorized(c, "invalid session")
			}
			c.Abort()
			return
		}
		// A retry rotated the refresh token; hand the new bundle back.
		if rotated := mgr.Session(); rotated != nil && rotated.RefreshToken != "" && rotated.RefreshToken != refresh {
			cookies.Write(c.Writer, rotated)
		}
		c.Set(ContextUserID, sess.UserID)
		c.Set(ContextUserRole, string(sess.Role))
		c.Set(ContextSessionID, sess.ID)
		c.Next()
	}
}
