package polls

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liveclass/polling/internal/middleware"
	"github.com/liveclass/polling/internal/models"
)

type fakeHistory struct {
	polls []*models.Poll
	err   error
	asked string
}

func (f *fakeHistory) ListByTeacher(_ context.Context, teacher string) ([]*models.Poll, error) {
	f.asked = teacher
	return f.polls, f.err
}

func newHistoryRouter(store HistoryStore, sessionName string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/polls/:teacherUsername", func(c *gin.Context) {
		if sessionName != "" {
			c.Set(middleware.ContextUsername, sessionName)
		}
		c.Next()
	}, NewHandler(store, nil).History)
	return r
}

func TestHistoryReturnsOwnPolls(t *testing.T) {
	store := &fakeHistory{polls: []*models.Poll{testPoll()}}
	r := newHistoryRouter(store, "teacher1234")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/polls/teacher1234", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Success bool          `json:"success"`
		Data    []models.Poll `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Color?", body.Data[0].Question)
	assert.Equal(t, "teacher1234", store.asked)
}

func TestHistoryRejectsOtherTeacher(t *testing.T) {
	store := &fakeHistory{}
	r := newHistoryRouter(store, "teacher9999")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/polls/teacher1234", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, store.asked)
}

func TestHistoryRejectsStudentPath(t *testing.T) {
	r := newHistoryRouter(&fakeHistory{}, "alice")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/polls/alice", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHistoryStoreFailure(t *testing.T) {
	r := newHistoryRouter(&fakeHistory{err: errors.New("boom")}, "teacher1234")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/polls/teacher1234", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
