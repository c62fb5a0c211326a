package polls

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/liveclass/polling/internal/models"
)

const (
	// DefaultBuffer is the number of pending records held before new ones are dropped.
	DefaultBuffer = 1024
	// DefaultTimeout bounds a single sink write.
	DefaultTimeout = 5 * time.Second
)

// record is one pending write. poll is set for poll records, option for votes.
type record struct {
	poll   *models.Poll
	pollID uuid.UUID
	option string
}

// AsyncRecorder queues polls and votes and writes them to a Sink from one goroutine, so
// writes land in the order they were recorded. Recording never blocks: when the buffer
// is full the record is dropped and logged.
type AsyncRecorder struct {
	sink    Sink
	records chan record
	timeout time.Duration
	dropped atomic.Int64
	failed  atomic.Int64
	logger  *zap.Logger
}

// NewAsyncRecorder creates a recorder. Call Run to start writing.
func NewAsyncRecorder(sink Sink, buffer int, timeout time.Duration, logger *zap.Logger) *AsyncRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &AsyncRecorder{
		sink:    sink,
		records: make(chan record, buffer),
		timeout: timeout,
		logger:  logger,
	}
}

// RecordPoll queues p for saving.
func (r *AsyncRecorder) RecordPoll(p *models.Poll) {
	r.enqueue(record{poll: p, pollID: p.ID})
}

// RecordVote queues one vote for option of pollID.
func (r *AsyncRecorder) RecordVote(pollID uuid.UUID, option string) {
	r.enqueue(record{pollID: pollID, option: option})
}

func (r *AsyncRecorder) enqueue(rec record) {
	select {
	case r.records <- rec:
	default:
		r.dropped.Add(1)
		r.logger.Warn("persistence buffer full, record dropped",
			zap.String("poll_id", rec.pollID.String()),
			zap.Bool("vote", rec.poll == nil))
	}
}

// Run writes queued records until ctx is done, then flushes what is already buffered.
func (r *AsyncRecorder) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.flush()
			r.logger.Info("recorder stopped",
				zap.Int64("dropped", r.dropped.Load()),
				zap.Int64("failed", r.failed.Load()))
			return
		case rec := <-r.records:
			r.write(ctx, rec)
		}
	}
}

func (r *AsyncRecorder) flush() {
	for {
		select {
		case rec := <-r.records:
			r.write(context.Background(), rec)
		default:
			return
		}
	}
}

func (r *AsyncRecorder) write(parent context.Context, rec record) {
	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	var err error
	if rec.poll != nil {
		err = r.sink.SavePoll(ctx, rec.poll)
	} else {
		err = r.sink.IncrementVote(ctx, rec.pollID, rec.option)
	}
	if err != nil {
		r.failed.Add(1)
		r.logger.Error("persist failed",
			zap.String("poll_id", rec.pollID.String()),
			zap.Bool("vote", rec.poll == nil),
			zap.Error(err))
	}
}

// Dropped returns how many records were discarded because the buffer was full.
func (r *AsyncRecorder) Dropped() int64 {
	return r.dropped.Load()
}

// Failed returns how many sink writes returned an error.
func (r *AsyncRecorder) Failed() int64 {
	return r.failed.Load()
}
