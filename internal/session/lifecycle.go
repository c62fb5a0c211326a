package session

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/liveclass/polling/internal/models"
)

// State is the state of the single poll slot.
type State int

const (
	StateIdle State = iota
	StateActive
	// StateClosed is entered when the deadline fires. Answer progress is checked live.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// ReplacePolicy decides whether the creation guard applies when a teacher other than
// the current poll's owner creates a poll.
type ReplacePolicy string

const (
	// ReplaceGuarded applies the creation guard to every teacher.
	ReplaceGuarded ReplacePolicy = "guarded"
	// ReplaceOwnerOnly guards only the owning teacher; others replace the poll at once.
	ReplaceOwnerOnly ReplacePolicy = "owner"
)

// ParseReplacePolicy validates a policy name. Empty selects ReplaceGuarded.
func ParseReplacePolicy(s string) (ReplacePolicy, error) {
	switch ReplacePolicy(s) {
	case "", ReplaceGuarded:
		return ReplaceGuarded, nil
	case ReplaceOwnerOnly:
		return ReplaceOwnerOnly, nil
	default:
		return "", fmt.Errorf("unknown poll replace policy %q", s)
	}
}

// Lifecycle holds the single current poll and its state.
type Lifecycle struct {
	state     State
	poll      *models.Poll
	startedAt time.Time
}

// NewLifecycle returns an idle lifecycle.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: StateIdle}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	return l.state
}

// Current returns the poll in the slot, or nil when idle.
func (l *Lifecycle) Current() *models.Poll {
	return l.poll
}

// IsCurrent reports whether id is the poll in the slot.
func (l *Lifecycle) IsCurrent(id uuid.UUID) bool {
	return l.poll != nil && l.poll.ID == id
}

// Expired reports whether the current poll's timer has run out at now.
func (l *Lifecycle) Expired(now time.Time) bool {
	return l.poll != nil && now.Sub(l.startedAt) >= l.poll.Timer()
}

// CanReplace evaluates the creation guard for a create request by requester.
func (l *Lifecycle) CanReplace(requester string, allAnswered bool, now time.Time, policy ReplacePolicy) bool {
	if l.state == StateIdle || l.poll == nil {
		return true
	}
	if policy == ReplaceOwnerOnly && requester != l.poll.TeacherName {
		return true
	}
	return l.state == StateClosed || allAnswered || l.Expired(now)
}

// Start puts p into the slot as the active poll.
func (l *Lifecycle) Start(p *models.Poll, now time.Time) {
	l.poll = p
	l.startedAt = now
	l.state = StateActive
}

// Close marks the active poll's timer as run out and reports whether it did.
func (l *Lifecycle) Close() bool {
	if l.state != StateActive {
		return false
	}
	l.state = StateClosed
	return true
}
