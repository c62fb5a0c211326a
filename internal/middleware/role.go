package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/liveclass/polling/internal/models"
	"github.com/liveclass/polling/pkg/response"
)

// RequireRole returns a middleware that allows only the given roles. It must run after Session.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	allowed := make(map[models.Role]struct{})
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		roleVal, ok := c.Get(ContextRole)
		if !ok {
			response.Abort(c, http.StatusUnauthorized, "missing user context")
			return
		}
		role, _ := roleVal.(models.Role)
		if _, ok := allowed[role]; !ok {
			response.Abort(c, http.StatusForbidden, "insufficient permissions")
			return
		}
		c.Next()
	}
}

// RequireTeacher allows only teacher sessions.
func RequireTeacher() gin.HandlerFunc {
	return RequireRole(models.RoleTeacher)
}
