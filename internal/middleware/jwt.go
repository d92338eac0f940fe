package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/color-vibe/backend/internal/auth"
	"github.com/color-vibe/backend/pkg/response"
)

const (
	// ContextUserID is the key for user ID in gin context.
	ContextUserID = "user_id"
	// ContextUserRole is the key for user role in gin context.
	ContextUserRole = "user_role"
	// ContextUserName is the key for the display name in gin context.
	ContextUserName = "user_name"
)

// JWT returns a middleware that validates a bearer JWT and sets the profile claims in context.
func JWT(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Abort(c, http.StatusUnauthorized, "missing authorization header")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Abort(c, http.StatusUnauthorized, "invalid authorization header")
			return
		}
		claims, err := jwtService.Validate(parts[1])
		if err != nil {
			response.Abort(c, http.StatusUnauthorized, "invalid or expired token")
			return
		}
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserRole, claims.Role)
		c.Set(ContextUserName, claims.Name)
		c.Next()
	}
}
