package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(id string, buffer int) *Client {
	return &Client{ID: id, send: make(chan WSMessage, buffer)}
}

func TestHubToAll(t *testing.T) {
	h := NewHub(nil)
	a, b := newTestClient("a", 1), newTestClient("b", 1)
	h.Register(a)
	h.Register(b)

	h.ToAll("participantsUpdate", []string{"alice"})

	for _, c := range []*Client{a, b} {
		msg := <-c.send
		assert.Equal(t, "participantsUpdate", msg.Event)
		assert.JSONEq(t, `["alice"]`, string(msg.Data))
	}
}

func TestHubToOne(t *testing.T) {
	h := NewHub(nil)
	a, b := newTestClient("a", 1), newTestClient("b", 1)
	h.Register(a)
	h.Register(b)

	h.ToOne("b", "answerError", map[string]string{"message": "nope"})
	h.ToOne("missing", "answerError", nil)

	assert.Empty(t, a.send)
	require.Len(t, b.send, 1)
	msg := <-b.send
	assert.JSONEq(t, `{"message":"nope"}`, string(msg.Data))
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	h := NewHub(nil)
	c := newTestClient("a", 1)
	h.Register(c)

	h.ToAll("first", 1)
	h.ToAll("second", 2)

	require.Len(t, c.send, 1)
	assert.Equal(t, "first", (<-c.send).Event)
}

func TestHubPassesRawPayloadThrough(t *testing.T) {
	h := NewHub(nil)
	c := newTestClient("a", 1)
	h.Register(c)

	h.ToOne("a", "raw", json.RawMessage(`{"x":1}`))

	assert.Equal(t, `{"x":1}`, string((<-c.send).Data))
}

func TestHubUnregisterClosesSend(t *testing.T) {
	h := NewHub(nil)
	c := newTestClient("a", 1)
	h.Register(c)
	assert.Equal(t, 1, h.ConnectionCount())

	h.Unregister(c)
	h.Unregister(c)

	assert.Equal(t, 0, h.ConnectionCount())
	_, open := <-c.send
	assert.False(t, open)

	h.ToAll("after", nil)
}

func TestNewUpgraderOrigins(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		want    bool
	}{
		{"no list", nil, "http://evil.example", true},
		{"wildcard", []string{"*"}, "http://evil.example", true},
		{"listed", []string{"http://localhost:5173/"}, "http://localhost:5173", true},
		{"unlisted", []string{"http://localhost:5173"}, "http://evil.example", false},
		{"no origin header", []string{"http://localhost:5173"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewUpgrader(tt.allowed)
			req := newOriginRequest(tt.origin)
			assert.Equal(t, tt.want, u.CheckOrigin(req))
		})
	}
}
