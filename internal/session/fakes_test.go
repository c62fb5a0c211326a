package session

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/liveclass/polling/internal/models"
)

// sent is one event captured by recordingRouter. conn is empty for broadcasts.
type sent struct {
	conn    string
	event   string
	payload interface{}
}

type recordingRouter struct {
	mu   sync.Mutex
	msgs []sent
}

func (r *recordingRouter) ToAll(event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, sent{event: event, payload: payload})
}

func (r *recordingRouter) ToOne(connID string, event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, sent{conn: connID, event: event, payload: payload})
}

func (r *recordingRouter) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = nil
}

func (r *recordingRouter) all() []sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]sent(nil), r.msgs...)
}

// last returns the most recent event with the given name.
func (r *recordingRouter) last(event string) (sent, bool) {
	msgs := r.all()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].event == event {
			return msgs[i], true
		}
	}
	return sent{}, false
}

func (r *recordingRouter) count(event string) int {
	n := 0
	for _, m := range r.all() {
		if m.event == event {
			n++
		}
	}
	return n
}

// to returns the direct messages of the given event sent to conn.
func (r *recordingRouter) to(conn, event string) []sent {
	var out []sent
	for _, m := range r.all() {
		if m.conn == conn && m.event == event {
			out = append(out, m)
		}
	}
	return out
}

type vote struct {
	pollID uuid.UUID
	option string
}

type fakeRecorder struct {
	mu    sync.Mutex
	polls []*models.Poll
	votes []vote
}

func (f *fakeRecorder) RecordPoll(p *models.Poll) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls = append(f.polls, p)
}

func (f *fakeRecorder) RecordVote(pollID uuid.UUID, option string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.votes = append(f.votes, vote{pollID: pollID, option: option})
}

func (f *fakeRecorder) voteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.votes)
}

type upperFilter struct{}

func (upperFilter) Censor(text string) string { return strings.ToUpper(text) }
