package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/liveclass/polling/internal/polls"
	"github.com/liveclass/polling/pkg/queue"
)

const dequeueWait = time.Second

// JobQueue is the part of the Redis queue the processor consumes.
type JobQueue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*queue.Job, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// PersistProcessor applies queued poll and vote jobs to the durable store.
type PersistProcessor struct {
	store   polls.Sink
	queue   JobQueue
	backoff time.Duration
	logger  *zap.Logger
}

// NewPersistProcessor creates a processor writing to store.
func NewPersistProcessor(store polls.Sink, q JobQueue, logger *zap.Logger) *PersistProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PersistProcessor{store: store, queue: q, backoff: queue.RetryBackoff, logger: logger}
}

// Process executes one job.
func (p *PersistProcessor) Process(ctx context.Context, job *queue.Job) error {
	switch job.Type {
	case queue.JobTypePoll:
		var payload queue.PollPayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal poll payload: %w", err)
		}
		if err := p.store.SavePoll(ctx, polls.FromPayload(payload)); err != nil {
			return err
		}
		p.logger.Debug("poll persisted", zap.String("poll_id", payload.ID.String()))
	case queue.JobTypeVote:
		var payload queue.VotePayload
		if err := json.Unmarshal(job.Payload, &payload); err != nil {
			return fmt.Errorf("unmarshal vote payload: %w", err)
		}
		if err := p.store.IncrementVote(ctx, payload.PollID, payload.Option); err != nil {
			return err
		}
		p.logger.Debug("vote persisted", zap.String("poll_id", payload.PollID.String()), zap.String("option", payload.Option))
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *PersistProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("persist worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx, dequeueWait)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *PersistProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
