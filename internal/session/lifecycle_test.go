package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liveclass/polling/internal/models"
)

func TestParseReplacePolicy(t *testing.T) {
	p, err := ParseReplacePolicy("")
	require.NoError(t, err)
	assert.Equal(t, ReplaceGuarded, p)

	p, err = ParseReplacePolicy("owner")
	require.NoError(t, err)
	assert.Equal(t, ReplaceOwnerOnly, p)

	_, err = ParseReplacePolicy("anyone")
	assert.Error(t, err)
}

func TestLifecycleCanReplace(t *testing.T) {
	start := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	poll := &models.Poll{ID: uuid.New(), TeacherName: "teacher1", TimerSeconds: 30}

	tests := []struct {
		name        string
		closed      bool
		requester   string
		allAnswered bool
		elapsed     time.Duration
		policy      ReplacePolicy
		want        bool
	}{
		{"open poll", false, "teacher1", false, 10 * time.Second, ReplaceGuarded, false},
		{"all answered", false, "teacher1", true, 10 * time.Second, ReplaceGuarded, true},
		{"timer elapsed", false, "teacher1", false, 30 * time.Second, ReplaceGuarded, true},
		{"closed", true, "teacher1", false, 0, ReplaceGuarded, true},
		{"other teacher guarded", false, "teacher2", false, 0, ReplaceGuarded, false},
		{"other teacher owner policy", false, "teacher2", false, 0, ReplaceOwnerOnly, true},
		{"owner under owner policy", false, "teacher1", false, 0, ReplaceOwnerOnly, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle()
			l.Start(poll, start)
			if tt.closed {
				require.True(t, l.Close())
			}
			got := l.CanReplace(tt.requester, tt.allAnswered, start.Add(tt.elapsed), tt.policy)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLifecycleIdleAlwaysReplaceable(t *testing.T) {
	l := NewLifecycle()
	assert.Equal(t, StateIdle, l.State())
	assert.Nil(t, l.Current())
	assert.True(t, l.CanReplace("teacher1", false, time.Now(), ReplaceGuarded))
	assert.False(t, l.Close())
}

func TestLifecycleCloseOnlyFromActive(t *testing.T) {
	l := NewLifecycle()
	p := &models.Poll{ID: uuid.New(), TimerSeconds: 5}
	l.Start(p, time.Now())

	assert.True(t, l.IsCurrent(p.ID))
	assert.True(t, l.Close())
	assert.False(t, l.Close())
	assert.Equal(t, StateClosed, l.State())
	assert.Equal(t, "closed", l.State().String())
}
