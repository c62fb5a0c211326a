package polls

import (
	"context"

	"github.com/google/uuid"

	"github.com/liveclass/polling/internal/models"
	"github.com/liveclass/polling/pkg/queue"
)

// Sink is where recorded polls and votes end up.
type Sink interface {
	SavePoll(ctx context.Context, p *models.Poll) error
	IncrementVote(ctx context.Context, pollID uuid.UUID, option string) error
}

// Enqueuer is the part of the job queue a QueueSink needs.
type Enqueuer interface {
	EnqueuePoll(ctx context.Context, payload queue.PollPayload) error
	EnqueueVote(ctx context.Context, payload queue.VotePayload) error
}

// QueueSink hands polls and votes to the Redis job queue for the worker to apply.
type QueueSink struct {
	queue Enqueuer
}

var (
	_ Sink = (*Repository)(nil)
	_ Sink = (*QueueSink)(nil)
)

// NewQueueSink creates a sink backed by q.
func NewQueueSink(q Enqueuer) *QueueSink {
	return &QueueSink{queue: q}
}

// SavePoll enqueues a poll job.
func (s *QueueSink) SavePoll(ctx context.Context, p *models.Poll) error {
	return s.queue.EnqueuePoll(ctx, ToPayload(p))
}

// IncrementVote enqueues a vote job.
func (s *QueueSink) IncrementVote(ctx context.Context, pollID uuid.UUID, option string) error {
	return s.queue.EnqueueVote(ctx, queue.VotePayload{PollID: pollID, Option: option})
}

// ToPayload converts a poll to its queue form.
func ToPayload(p *models.Poll) queue.PollPayload {
	opts := make([]queue.OptionPayload, len(p.Options))
	for i, o := range p.Options {
		opts[i] = queue.OptionPayload{Text: o.Text, IsCorrect: o.IsCorrect}
	}
	return queue.PollPayload{
		ID:              p.ID,
		Question:        p.Question,
		Options:         opts,
		TimerSeconds:    p.TimerSeconds,
		TeacherUsername: p.TeacherName,
		CreatedAt:       p.CreatedAt,
	}
}

// FromPayload converts a queued poll back to the model. Vote counts start at zero.
func FromPayload(pl queue.PollPayload) *models.Poll {
	opts := make([]models.PollOption, len(pl.Options))
	for i, o := range pl.Options {
		opts[i] = models.PollOption{Text: o.Text, IsCorrect: o.IsCorrect}
	}
	return &models.Poll{
		ID:           pl.ID,
		Question:     pl.Question,
		Options:      opts,
		TimerSeconds: pl.TimerSeconds,
		TeacherName:  pl.TeacherUsername,
		CreatedAt:    pl.CreatedAt,
	}
}
