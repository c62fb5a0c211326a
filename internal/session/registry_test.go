package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRosters(t *testing.T) {
	r := NewRegistry()
	r.Join("c1", "teacher1", true)
	r.Join("c2", "alice", true)
	r.Join("c3", "bob", false)
	r.Join("c4", "alice", true)

	assert.Equal(t, []string{"teacher1", "alice"}, r.ChatRoster())
	assert.Equal(t, []string{"teacher1", "alice", "bob"}, r.PollRoster())
	assert.Equal(t, []string{"alice", "bob"}, r.Students())
	assert.Equal(t, []string{"c2", "c4"}, r.ConnectionsFor("alice"))
	assert.Equal(t, 4, r.Len())
}

func TestRegistryLeave(t *testing.T) {
	r := NewRegistry()
	r.Join("c1", "alice", true)
	r.Join("c2", "alice", true)

	conn, ok := r.Leave("c1")
	require.True(t, ok)
	assert.Equal(t, "alice", conn.name)
	assert.True(t, r.HasName("alice"))

	_, ok = r.Leave("c1")
	assert.False(t, ok)

	r.Leave("c2")
	assert.False(t, r.HasName("alice"))
	assert.Empty(t, r.PollRoster())
}

func TestRegistryRejoinKeepsPosition(t *testing.T) {
	r := NewRegistry()
	r.Join("c1", "alice", true)
	r.Join("c2", "bob", true)
	r.Join("c1", "alicia", true)

	assert.Equal(t, []string{"alicia", "bob"}, r.ChatRoster())
	name, ok := r.Lookup("c1")
	require.True(t, ok)
	assert.Equal(t, "alicia", name)
}

func TestRegistrySetChatEligible(t *testing.T) {
	r := NewRegistry()
	r.Join("c1", "xavier", true)
	r.Join("c2", "xavier", true)

	assert.True(t, r.SetChatEligible("xavier", false))
	assert.False(t, r.SetChatEligible("xavier", false))
	assert.False(t, r.SetChatEligible("nobody", false))
	assert.Empty(t, r.ChatRoster())
	assert.Equal(t, []string{"xavier"}, r.PollRoster())
}

func TestModerationLedger(t *testing.T) {
	m := NewModerationLedger()
	assert.True(t, m.Ban("bob"))
	assert.False(t, m.Ban("bob"))
	assert.True(t, m.Ban("alice"))
	assert.Equal(t, []string{"alice", "bob"}, m.Banned())

	assert.True(t, m.Clear("bob"))
	assert.False(t, m.Clear("bob"))
	assert.False(t, m.IsBanned("bob"))
	assert.True(t, m.IsBanned("alice"))
}
