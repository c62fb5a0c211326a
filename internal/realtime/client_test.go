package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liveclass/polling/internal/models"
	"github.com/liveclass/polling/internal/session"
)

func newOriginRequest(origin string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	return req
}

func newTestServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil)
	coord := session.NewCoordinator(hub, nil, nil, session.DefaultOptions(), nil)
	r := gin.New()
	r.GET("/ws", ServeWs(hub, coord, NewUpgrader(nil), nil))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, event string, payload interface{}) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(WSMessage{Event: event, Data: data}))
}

// readUntil reads messages until one with the given event arrives.
func readUntil(t *testing.T, conn *websocket.Conn, event string, out interface{}) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg WSMessage
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %s", event)
		if msg.Event != event {
			continue
		}
		if out != nil {
			require.NoError(t, json.Unmarshal(msg.Data, out))
		}
		return
	}
}

func TestClassroomOverWebSocket(t *testing.T) {
	srv, hub := newTestServer(t)
	teacher := dial(t, srv)
	student := dial(t, srv)

	send(t, teacher, session.EventJoin, session.JoinRequest{Name: "teacher1"})
	readUntil(t, teacher, session.EventParticipantsUpdate, nil)
	send(t, student, session.EventJoin, session.JoinRequest{Name: "alice"})
	var roster []string
	readUntil(t, student, session.EventParticipantsUpdate, &roster)
	assert.Equal(t, []string{"teacher1", "alice"}, roster)
	assert.Equal(t, 2, hub.ConnectionCount())

	send(t, teacher, session.EventCreatePoll, session.CreatePollRequest{
		TeacherName:  "teacher1",
		Question:     "Color?",
		Options:      []session.OptionInput{{Text: "Red", IsCorrect: true}, {Text: "Blue"}},
		TimerSeconds: 30,
	})
	var poll models.Poll
	readUntil(t, student, session.EventPollCreated, &poll)
	assert.Equal(t, "Color?", poll.Question)
	assert.Equal(t, 30, poll.TimerSeconds)

	send(t, student, session.EventSubmitAnswer, session.SubmitAnswerRequest{Name: "alice", PollID: poll.ID, Option: "Red"})
	var tally map[string]int
	readUntil(t, teacher, session.EventPollResults, &tally)
	assert.Equal(t, map[string]int{"Red": 1}, tally)
	var status session.AnswerStatus
	readUntil(t, teacher, session.EventAnswerStatus, &status)
	assert.Equal(t, session.AnswerStatus{Total: 1, Answered: 1, AllAnswered: true}, status)

	send(t, student, session.EventSubmitAnswer, session.SubmitAnswerRequest{Name: "alice", PollID: poll.ID, Option: "Blue"})
	var answerErr session.ErrorPayload
	readUntil(t, student, session.EventAnswerError, &answerErr)
	assert.Equal(t, "You have already answered this question.", answerErr.Message)
}

func TestKickOverWebSocket(t *testing.T) {
	srv, _ := newTestServer(t)
	teacher := dial(t, srv)
	student := dial(t, srv)

	send(t, teacher, session.EventJoin, session.JoinRequest{Name: "teacher1"})
	readUntil(t, teacher, session.EventParticipantsUpdate, nil)
	send(t, student, session.EventJoin, session.JoinRequest{Name: "xavier"})
	readUntil(t, student, session.EventParticipantsUpdate, nil)

	send(t, teacher, session.EventKickOut, session.KickRequest{Name: "xavier"})
	var notice session.Notice
	readUntil(t, student, session.EventKickedOut, &notice)
	assert.True(t, notice.KickedFromChat)

	send(t, student, session.EventChatMessage, session.ChatMessage{Name: "xavier", Text: "hi"})
	var chatErr session.ErrorPayload
	readUntil(t, student, session.EventChatError, &chatErr)
	assert.Equal(t, session.ChatErrorKicked, chatErr.Type)
}

func TestStudentLoginOverWebSocket(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv)

	send(t, conn, "nonsense", map[string]string{})
	send(t, conn, session.EventStudentLogin, session.JoinRequest{Name: "  bob "})

	var ack session.LoginSuccess
	readUntil(t, conn, session.EventLoginSuccess, &ack)
	assert.Equal(t, "bob", ack.Name)
	assert.Equal(t, "Login successful", ack.Message)
}

func TestDisconnectUpdatesRoster(t *testing.T) {
	srv, hub := newTestServer(t)
	teacher := dial(t, srv)
	student := dial(t, srv)

	send(t, teacher, session.EventJoin, session.JoinRequest{Name: "teacher1"})
	readUntil(t, teacher, session.EventParticipantsUpdate, nil)
	send(t, student, session.EventJoin, session.JoinRequest{Name: "alice"})
	readUntil(t, student, session.EventParticipantsUpdate, nil)

	require.NoError(t, student.Close())

	var roster []string
	for len(roster) != 1 {
		readUntil(t, teacher, session.EventParticipantsUpdate, &roster)
	}
	assert.Equal(t, []string{"teacher1"}, roster)
	assert.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestMalformedRequestsGetErrorEvents(t *testing.T) {
	srv, _ := newTestServer(t)
	conn := dial(t, srv)

	require.NoError(t, conn.WriteJSON(WSMessage{
		Event: session.EventSubmitAnswer,
		Data:  json.RawMessage(`{"name":"alice","pollId":"not-a-uuid","option":"Red"}`),
	}))
	var answerErr session.ErrorPayload
	readUntil(t, conn, session.EventAnswerError, &answerErr)
	assert.Equal(t, msgBadAnswerRequest, answerErr.Message)

	require.NoError(t, conn.WriteJSON(WSMessage{
		Event: session.EventCreatePoll,
		Data:  json.RawMessage(`{"teacherName":"teacher1","options":"Red"}`),
	}))
	var createErr session.ErrorPayload
	readUntil(t, conn, session.EventPollCreationError, &createErr)
	assert.Equal(t, msgBadPollRequest, createErr.Message)

	require.NoError(t, conn.WriteJSON(WSMessage{Event: session.EventSubmitAnswer}))
	readUntil(t, conn, session.EventAnswerError, &answerErr)
	assert.Equal(t, msgBadAnswerRequest, answerErr.Message)
}
