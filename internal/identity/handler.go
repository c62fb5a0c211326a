// Package identity issues display names: generated teacher usernames and self-declared
// student names.
package identity

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/liveclass/polling/internal/models"
	"github.com/liveclass/polling/pkg/response"
)

const (
	// MaxNameLength is the longest accepted student name, in characters.
	MaxNameLength = 50
	// maxAttempts bounds username generation when numbers collide.
	maxAttempts = 10
)

// TeacherStore records issued teacher usernames.
type TeacherStore interface {
	Create(ctx context.Context, username string) (*models.Teacher, error)
}

// StudentLoginRequest is the body for POST /student-login.
type StudentLoginRequest struct {
	Name string `json:"name" binding:"required"`
}

// LoginResponse is returned by both login endpoints.
type LoginResponse struct {
	Status   string `json:"status"`
	Username string `json:"username"`
}

// Handler handles login HTTP endpoints.
type Handler struct {
	store    TeacherStore
	generate func() string
	logger   *zap.Logger
}

// NewHandler creates an identity handler.
func NewHandler(store TeacherStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{store: store, generate: RandomTeacherName, logger: logger}
}

// RandomTeacherName returns "teacher" followed by four random digits.
func RandomTeacherName() string {
	return fmt.Sprintf("%s%d", models.TeacherNamePrefix, 1000+rand.Intn(9000))
}

// TeacherLogin handles POST /teacher-login. It mints an unused teacher username.
func (h *Handler) TeacherLogin(c *gin.Context) {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		name := h.generate()
		t, err := h.store.Create(c.Request.Context(), name)
		if errors.Is(err, ErrUsernameTaken) {
			h.logger.Debug("teacher username collision", zap.String("username", name), zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			h.logger.Error("create teacher", zap.Error(err))
			response.Internal(c, "failed to create teacher session")
			return
		}
		h.logger.Info("teacher login", zap.String("username", t.Username))
		c.JSON(http.StatusCreated, LoginResponse{Status: "success", Username: t.Username})
		return
	}
	h.logger.Warn("teacher username space exhausted", zap.Int("attempts", maxAttempts))
	response.ServiceUnavailable(c, "no teacher username available, try again")
}

// StudentLogin handles POST /student-login. The name is trusted as declared.
func (h *Handler) StudentLogin(c *gin.Context) {
	var req StudentLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	name, err := NormalizeStudentName(req.Name)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, LoginResponse{Status: "success", Username: name})
}

// NormalizeStudentName trims name and checks its length.
func NormalizeStudentName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("name is required")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", fmt.Errorf("name must be at most %d characters", MaxNameLength)
	}
	return name, nil
}
