package models

import (
	"time"

	"github.com/google/uuid"
)

// PollOption is one choice of a poll with its vote counter.
type PollOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
	Votes     int    `json:"votes"`
}

// Poll represents a multiple-choice question asked by a teacher.
type Poll struct {
	ID           uuid.UUID    `json:"id"`
	Question     string       `json:"question"`
	Options      []PollOption `json:"options"`
	TimerSeconds int          `json:"timer"`
	TeacherName  string       `json:"teacherUsername"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// Timer returns the answer window as a duration.
func (p *Poll) Timer() time.Duration {
	return time.Duration(p.TimerSeconds) * time.Second
}

// HasOption reports whether text is one of the poll's option texts.
func (p *Poll) HasOption(text string) bool {
	for _, o := range p.Options {
		if o.Text == text {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can hand the poll to other goroutines.
func (p *Poll) Clone() *Poll {
	cp := *p
	cp.Options = append([]PollOption(nil), p.Options...)
	return &cp
}

// PollAnswer is a participant's answer to a poll.
type PollAnswer struct {
	PollID     uuid.UUID `json:"pollId"`
	Name       string    `json:"name"`
	Option     string    `json:"option"`
	AnsweredAt time.Time `json:"answeredAt"`
}
