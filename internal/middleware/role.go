package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/planner-suite/backend/internal/models"
	"github.com/planner-suite/backend/pkg/response"
)

// RequireRole returns a middleware that allows only the given roles on API
// endpoints. Page navigation uses the guard; this protects direct API calls.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)
		if !ok {
			response.Unauthorized(c, "missing user context")
			c.Abort()
			return
		}
		if _, ok := allowed[role]; !ok {
			response.Forbidden(c, "insufficient permissions")
			c.Abort()
			return
		}
		c.Next()
	}
}
