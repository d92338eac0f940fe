package realtime

import (
	"github.com/gin-gonic/gin"

	"github.com/color-vibe/backend/pkg/response"
)

// AudienceCount handles GET /events/:id/audience: screens on this instance.
func AudienceCount(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		response.OK(c, gin.H{"event_id": id, "count": hub.AudienceCount(id)})
	}
}
