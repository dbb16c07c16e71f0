package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-sla-service/internal/domain"
)

// UserRepository defines read access to operators for escalation routing
// and notification delivery.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// FirstByRole returns the earliest-created active user holding the
	// role, or pgx.ErrNoRows when nobody does.
	FirstByRole(ctx context.Context, role domain.UserRole) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, name, email, role, active, created_at, updated_at`

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) FirstByRole(ctx context.Context, role domain.UserRole) (*domain.User, error) {
	query := `SELECT ` + userColumns + `
        FROM users WHERE role=$1 AND active
        ORDER BY created_at ASC LIMIT 1`
	return r.fetchSingle(ctx, query, role)
}

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Role,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}
