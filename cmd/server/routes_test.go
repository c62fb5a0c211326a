package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/liveclass/polling/internal/identity"
	"github.com/liveclass/polling/internal/models"
	"github.com/liveclass/polling/internal/polls"
	"github.com/liveclass/polling/internal/realtime"
	"github.com/liveclass/polling/internal/session"
)

type memTeachers struct {
	names map[string]bool
}

func (m *memTeachers) Create(_ context.Context, username string) (*models.Teacher, error) {
	if m.names[username] {
		return nil, identity.ErrUsernameTaken
	}
	m.names[username] = true
	return &models.Teacher{Username: username, CreatedAt: time.Now()}, nil
}

func (m *memTeachers) Exists(_ context.Context, username string) (bool, error) {
	return m.names[username], nil
}

type memHistory struct{}

func (memHistory) ListByTeacher(_ context.Context, teacher string) ([]*models.Poll, error) {
	return []*models.Poll{{Question: "Q?", TeacherName: teacher}}, nil
}

func testRouter(t *testing.T) (*gin.Engine, *memTeachers) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	teachers := &memTeachers{names: map[string]bool{}}
	hub := realtime.NewHub(nil)
	return newRouter(routerDeps{
		hub:      hub,
		coord:    session.NewCoordinator(hub, nil, nil, session.DefaultOptions(), nil),
		identity: identity.NewHandler(teachers, nil),
		polls:    polls.NewHandler(memHistory{}, nil),
		teachers: teachers,
		logger:   zap.NewNop(),
	}), teachers
}

func TestHealth(t *testing.T) {
	r, _ := testRouter(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","connections":0}`, w.Body.String())
}

func TestTeacherLoginThenHistory(t *testing.T) {
	r, _ := testRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/teacher-login", nil))
	require.Equal(t, http.StatusCreated, w.Code)
	var login identity.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	req := httptest.NewRequest(http.MethodGet, "/polls/"+login.Username, nil)
	req.Header.Set("X-Username", login.Username)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"teacherUsername":"`+login.Username+`"`)

	req = httptest.NewRequest(http.MethodGet, "/polls/"+login.Username, nil)
	req.Header.Set("X-Username", "alice")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/polls/teacher0000", nil)
	req.Header.Set("X-Username", "teacher0000")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStudentLoginRoute(t *testing.T) {
	r, _ := testRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/student-login", strings.NewReader(`{"name":" bob "}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","username":"bob"}`, w.Body.String())
}
