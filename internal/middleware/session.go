package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/liveclass/polling/internal/models"
	"github.com/liveclass/polling/pkg/response"
)

const (
	// ContextUsername is the key for the session display name in gin context.
	ContextUsername = "username"
	// ContextRole is the key for the session role in gin context.
	ContextRole = "role"
	// HeaderUsername carries the display name issued at login.
	HeaderUsername = "X-Username"
)

// TeacherLookup checks that a teacher username was issued by teacher login.
type TeacherLookup interface {
	Exists(ctx context.Context, username string) (bool, error)
}

// Session resolves the caller's display name from the X-Username header or the username
// query parameter. Teacher names must exist in the store; student names are trusted.
func Session(teachers TeacherLookup, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		username := strings.TrimSpace(c.GetHeader(HeaderUsername))
		if username == "" {
			username = strings.TrimSpace(c.Query("username"))
		}
		if username == "" {
			response.Abort(c, http.StatusUnauthorized, "no username provided")
			return
		}

		role := models.RoleOf(username)
		if role == models.RoleTeacher {
			ok, err := teachers.Exists(c.Request.Context(), username)
			if err != nil {
				logger.Error("session validation failed", zap.String("username", username), zap.Error(err))
				response.Abort(c, http.StatusInternalServerError, "session validation failed")
				return
			}
			if !ok {
				response.Abort(c, http.StatusUnauthorized, "invalid teacher session")
				return
			}
		}

		c.Set(ContextUsername, username)
		c.Set(ContextRole, role)
		c.Next()
	}
}
