package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// QueuePersist is the Redis list key for poll and vote persistence jobs.
	QueuePersist = "polling:persist"
	// QueueDLQ is the dead-letter queue for failed jobs after retries.
	QueueDLQ = "polling:dlq"
	// MaxRetries is the number of times to retry a job before moving to DLQ.
	MaxRetries = 3
	// RetryBackoff is the delay between retries.
	RetryBackoff = 2 * time.Second
)

// JobType identifies the job kind.
type JobType string

const (
	JobTypePoll JobType = "poll"
	JobTypeVote JobType = "vote"
)

// OptionPayload is one answer choice of a persisted poll.
type OptionPayload struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

// PollPayload is the payload for poll jobs.
type PollPayload struct {
	ID              uuid.UUID       `json:"id"`
	Question        string          `json:"question"`
	Options         []OptionPayload `json:"options"`
	TimerSeconds    int             `json:"timer_seconds"`
	TeacherUsername string          `json:"teacher_username"`
	CreatedAt       time.Time       `json:"created_at"`
}

// VotePayload is the payload for vote jobs.
type VotePayload struct {
	PollID uuid.UUID `json:"poll_id"`
	Option string    `json:"option"`
}

// Job is a generic job envelope.
type Job struct {
	ID        string          `json:"id"`
	Type      JobType         `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Attempt   int             `json:"attempt"`
	CreatedAt time.Time       `json:"created_at"`
}

// Queue enqueues and dequeues jobs via Redis.
type Queue struct {
	client *redis.Client
	logger *zap.Logger
}

// NewQueue creates a new Redis-backed job queue.
func NewQueue(client *redis.Client, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, logger: logger}
}

// EnqueuePoll enqueues a poll persistence job.
func (q *Queue) EnqueuePoll(ctx context.Context, payload PollPayload) error {
	id, err := q.enqueue(ctx, JobTypePoll, payload)
	if err != nil {
		return err
	}
	q.logger.Debug("enqueued poll job", zap.String("job_id", id), zap.String("poll_id", payload.ID.String()))
	return nil
}

// EnqueueVote enqueues a vote increment job.
func (q *Queue) EnqueueVote(ctx context.Context, payload VotePayload) error {
	id, err := q.enqueue(ctx, JobTypeVote, payload)
	if err != nil {
		return err
	}
	q.logger.Debug("enqueued vote job", zap.String("job_id", id), zap.String("poll_id", payload.PollID.String()))
	return nil
}

func (q *Queue) enqueue(ctx context.Context, jobType JobType, payload interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	job := Job{
		ID:        uuid.New().String(),
		Type:      jobType,
		Payload:   body,
		CreatedAt: time.Now(),
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal job: %w", err)
	}
	if err := q.client.RPush(ctx, QueuePersist, raw).Err(); err != nil {
		return "", fmt.Errorf("rpush: %w", err)
	}
	return job.ID, nil
}

// Dequeue waits up to timeout for a job. It returns a nil job when none arrived or the
// entry could not be decoded.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.client.BLPop(ctx, timeout, QueuePersist).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	if len(result) < 2 {
		return nil, nil
	}
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		q.logger.Warn("invalid job payload", zap.String("raw", result[1]), zap.Error(err))
		if dlqErr := q.client.RPush(ctx, QueueDLQ, result[1]).Err(); dlqErr != nil {
			q.logger.Error("dlq push failed", zap.Error(dlqErr))
		}
		return nil, nil
	}
	return &job, nil
}

// Retry re-enqueues a job with incremented attempt. If attempt >= MaxRetries, pushes to DLQ instead.
func (q *Queue) Retry(ctx context.Context, job *Job) error {
	job.Attempt++
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if job.Attempt >= MaxRetries {
		if err := q.client.RPush(ctx, QueueDLQ, raw).Err(); err != nil {
			q.logger.Error("dlq push failed", zap.Error(err), zap.String("job_id", job.ID))
			return err
		}
		q.logger.Warn("job moved to DLQ", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
		return nil
	}
	if err := q.client.RPush(ctx, QueuePersist, raw).Err(); err != nil {
		return err
	}
	q.logger.Info("job retried", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt))
	return nil
}

// Pending returns the number of jobs waiting to be processed.
func (q *Queue) Pending(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, QueuePersist).Result()
}

// DeadLetters returns the number of jobs in the dead-letter queue.
func (q *Queue) DeadLetters(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, QueueDLQ).Result()
}
