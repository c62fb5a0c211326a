package session

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/liveclass/polling/internal/models"
)

// AnswerLedger holds the answers and live tally of the current poll.
type AnswerLedger struct {
	pollID  uuid.UUID
	answers map[string]models.PollAnswer
	tally   map[string]int
}

// NewAnswerLedger creates an empty ledger.
func NewAnswerLedger() *AnswerLedger {
	return &AnswerLedger{
		answers: make(map[string]models.PollAnswer),
		tally:   make(map[string]int),
	}
}

// Reset empties the ledger for a new poll.
func (a *AnswerLedger) Reset(pollID uuid.UUID) {
	a.pollID = pollID
	a.answers = make(map[string]models.PollAnswer)
	a.tally = make(map[string]int)
}

// Submit records name's answer and counts it. A second answer by the same name is rejected.
func (a *AnswerLedger) Submit(name string, pollID uuid.UUID, option string, at time.Time) error {
	if pollID != a.pollID {
		return ErrStalePoll
	}
	if _, ok := a.answers[name]; ok {
		return ErrAlreadyAnswered
	}
	a.answers[name] = models.PollAnswer{PollID: pollID, Name: name, Option: option, AnsweredAt: at}
	a.tally[option]++
	return nil
}

// Purge drops name's answer. The tally is left as is.
func (a *AnswerLedger) Purge(name string) bool {
	if _, ok := a.answers[name]; !ok {
		return false
	}
	delete(a.answers, name)
	return true
}

// Answer returns name's recorded answer.
func (a *AnswerLedger) Answer(name string) (models.PollAnswer, bool) {
	ans, ok := a.answers[name]
	return ans, ok
}

// Tally returns a copy of the live vote counters.
func (a *AnswerLedger) Tally() map[string]int {
	out := make(map[string]int, len(a.tally))
	for k, v := range a.tally {
		out[k] = v
	}
	return out
}

// AnsweredAmong counts how many of names have answered.
func (a *AnswerLedger) AnsweredAmong(names []string) int {
	return lo.CountBy(names, func(name string) bool {
		_, ok := a.answers[name]
		return ok
	})
}

// AllAnswered reports whether every name in students has answered. True for no students.
func (a *AnswerLedger) AllAnswered(students []string) bool {
	return lo.Every(lo.Keys(a.answers), students)
}
