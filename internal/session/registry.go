package session

import (
	"sort"

	"github.com/samber/lo"

	"github.com/liveclass/polling/internal/models"
)

// connection is one open transport session known to the registry.
type connection struct {
	id           string
	name         string
	chatEligible bool
	seq          uint64
}

// Registry maps open connections to display names. Every joined connection is part of
// the poll roster; chatEligible decides whether it also appears in the chat roster.
type Registry struct {
	conns map[string]*connection
	seq   uint64
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*connection)}
}

// Join records name for connID. A connection that joins again keeps its join position.
func (r *Registry) Join(connID, name string, chatEligible bool) {
	if c, ok := r.conns[connID]; ok {
		c.name = name
		c.chatEligible = chatEligible
		return
	}
	r.seq++
	r.conns[connID] = &connection{id: connID, name: name, chatEligible: chatEligible, seq: r.seq}
}

// Leave removes connID and returns what was recorded for it.
func (r *Registry) Leave(connID string) (connection, bool) {
	c, ok := r.conns[connID]
	if !ok {
		return connection{}, false
	}
	delete(r.conns, connID)
	return *c, true
}

// Lookup returns the display name joined on connID.
func (r *Registry) Lookup(connID string) (string, bool) {
	c, ok := r.conns[connID]
	if !ok {
		return "", false
	}
	return c.name, true
}

// HasName reports whether any open connection carries name.
func (r *Registry) HasName(name string) bool {
	for _, c := range r.conns {
		if c.name == name {
			return true
		}
	}
	return false
}

// ConnectionsFor returns the ids of every connection joined as name, in join order.
func (r *Registry) ConnectionsFor(name string) []string {
	return lo.FilterMap(r.ordered(), func(c *connection, _ int) (string, bool) {
		return c.id, c.name == name
	})
}

// SetChatEligible updates every connection of name and reports whether any changed.
func (r *Registry) SetChatEligible(name string, eligible bool) bool {
	changed := false
	for _, c := range r.conns {
		if c.name == name && c.chatEligible != eligible {
			c.chatEligible = eligible
			changed = true
		}
	}
	return changed
}

// ChatRoster returns the distinct chat-eligible names in join order.
func (r *Registry) ChatRoster() []string {
	return lo.Uniq(lo.FilterMap(r.ordered(), func(c *connection, _ int) (string, bool) {
		return c.name, c.chatEligible
	}))
}

// PollRoster returns the distinct names of all joined connections.
func (r *Registry) PollRoster() []string {
	return lo.Uniq(lo.Map(r.ordered(), func(c *connection, _ int) string {
		return c.name
	}))
}

// Students returns the poll roster without teacher names.
func (r *Registry) Students() []string {
	return lo.Reject(r.PollRoster(), func(name string, _ int) bool {
		return models.IsTeacherName(name)
	})
}

// Len returns the number of joined connections.
func (r *Registry) Len() int {
	return len(r.conns)
}

func (r *Registry) ordered() []*connection {
	out := lo.Values(r.conns)
	sort.Slice(out, func(i, j int) bool { return out[i].seq < out[j].seq })
	return out
}
