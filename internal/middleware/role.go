package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/color-vibe/backend/internal/models"
	"github.com/color-vibe/backend/pkg/response"
)

// RequireRole returns a middleware that allows only the given roles.
// The role is a routing convention carried in the token, not an ownership check.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[string]struct{})
	for _, r := range roles {
		allowed[string(r)] = struct{}{}
	}
	return func(c *gin.Context) {
		roleVal, ok := c.Get(ContextUserRole)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, "missing user context")
			return
		}
		role, _ := roleVal.(string)
		if _, ok := allowed[role]; !ok {
			response.Abort(c, http.StatusForbidden, "insufficient permissions")
			return
		}
		c.Next()
	}
}
