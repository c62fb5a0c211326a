package polls

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/liveclass/polling/internal/models"
)

// ErrPollNotFound is returned when a vote targets a poll or option that was never stored.
var ErrPollNotFound = errors.New("poll not found")

// Repository handles poll persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a polls repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SavePoll inserts a poll with its options. Saving the same poll twice is a no-op.
func (r *Repository) SavePoll(ctx context.Context, p *models.Poll) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const pollQuery = `INSERT INTO polls (id, question, timer_seconds, teacher_username, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO NOTHING`
	if _, err := tx.Exec(ctx, pollQuery, p.ID, p.Question, p.TimerSeconds, p.TeacherName, p.CreatedAt); err != nil {
		return fmt.Errorf("insert poll: %w", err)
	}

	const optionQuery = `INSERT INTO poll_options (poll_id, position, text, is_correct, votes)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (poll_id, position) DO NOTHING`
	batch := &pgx.Batch{}
	for i, o := range p.Options {
		batch.Queue(optionQuery, p.ID, i, o.Text, o.IsCorrect, o.Votes)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert poll options: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit poll: %w", err)
	}
	return nil
}

// IncrementVote adds one vote to the named option of a stored poll.
func (r *Repository) IncrementVote(ctx context.Context, pollID uuid.UUID, option string) error {
	const query = `UPDATE poll_options SET votes = votes + 1 WHERE poll_id = $1 AND text = $2`
	tag, err := r.pool.Exec(ctx, query, pollID, option)
	if err != nil {
		return fmt.Errorf("increment vote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s option %q", ErrPollNotFound, pollID, option)
	}
	return nil
}

// ListByTeacher returns every stored poll of a teacher, newest first.
func (r *Repository) ListByTeacher(ctx context.Context, teacher string) ([]*models.Poll, error) {
	const pollQuery = `SELECT id, question, timer_seconds, teacher_username, created_at
		FROM polls WHERE teacher_username = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, pollQuery, teacher)
	if err != nil {
		return nil, fmt.Errorf("list polls: %w", err)
	}
	defer rows.Close()

	list := make([]*models.Poll, 0)
	byID := make(map[uuid.UUID]*models.Poll)
	for rows.Next() {
		p := &models.Poll{Options: []models.PollOption{}}
		if err := rows.Scan(&p.ID, &p.Question, &p.TimerSeconds, &p.TeacherName, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan poll: %w", err)
		}
		list = append(list, p)
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list polls: %w", err)
	}
	if len(list) == 0 {
		return list, nil
	}

	ids := make([]string, 0, len(list))
	for _, p := range list {
		ids = append(ids, p.ID.String())
	}
	const optionQuery = `SELECT poll_id, text, is_correct, votes
		FROM poll_options WHERE poll_id = ANY($1::uuid[]) ORDER BY poll_id, position`
	optRows, err := r.pool.Query(ctx, optionQuery, ids)
	if err != nil {
		return nil, fmt.Errorf("list poll options: %w", err)
	}
	defer optRows.Close()

	for optRows.Next() {
		var pollID uuid.UUID
		var o models.PollOption
		if err := optRows.Scan(&pollID, &o.Text, &o.IsCorrect, &o.Votes); err != nil {
			return nil, fmt.Errorf("scan poll option: %w", err)
		}
		if p, ok := byID[pollID]; ok {
			p.Options = append(p.Options, o)
		}
	}
	if err := optRows.Err(); err != nil {
		return nil, fmt.Errorf("list poll options: %w", err)
	}
	return list, nil
}
