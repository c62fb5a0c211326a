package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/liveclass/polling/internal/models"
)

// ErrUsernameTaken is returned when a teacher username already exists.
var ErrUsernameTaken = errors.New("username taken")

// Repository handles teacher persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a teachers repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create records a new teacher username.
func (r *Repository) Create(ctx context.Context, username string) (*models.Teacher, error) {
	const q = `INSERT INTO teachers (username) VALUES ($1)
		ON CONFLICT (username) DO NOTHING
		RETURNING username, created_at`
	var t models.Teacher
	err := r.pool.QueryRow(ctx, q, username).Scan(&t.Username, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("insert teacher: %w", err)
	}
	return &t, nil
}

// Exists reports whether username was issued by teacher login.
func (r *Repository) Exists(ctx context.Context, username string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM teachers WHERE username = $1)`
	var ok bool
	if err := r.pool.QueryRow(ctx, q, username).Scan(&ok); err != nil {
		return false, fmt.Errorf("lookup teacher: %w", err)
	}
	return ok, nil
}
