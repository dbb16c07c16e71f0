package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-sla-service/internal/domain"
)

// PushTokenRepository owns the registered push-delivery token set.
type PushTokenRepository interface {
	// Upsert registers a token, idempotent by token value: re-registering
	// updates owner and device instead of duplicating.
	Upsert(ctx context.Context, token *domain.PushToken) error
	// ListByOwners returns every token registered to any of the owners.
	ListByOwners(ctx context.Context, ownerIDs []string) ([]domain.PushToken, error)
	// DeleteMany removes tokens by value, silent on values that no longer
	// exist. Returns how many rows were removed.
	DeleteMany(ctx context.Context, tokens []string) (int64, error)
}

type pushTokenRepository struct {
	pool *pgxpool.Pool
}

// NewPushTokenRepository instantiates repository.
func NewPushTokenRepository(pool *pgxpool.Pool) PushTokenRepository {
	return &pushTokenRepository{pool: pool}
}

func (r *pushTokenRepository) Upsert(ctx context.Context, token *domain.PushToken) error {
	const query = `
        INSERT INTO push_tokens (token, owner_id, device)
        VALUES ($1,$2,$3)
        ON CONFLICT (token) DO UPDATE
            SET owner_id=EXCLUDED.owner_id, device=EXCLUDED.device, updated_at=NOW()
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		token.Token,
		token.OwnerID,
		token.Device,
	).Scan(&token.CreatedAt, &token.UpdatedAt)
}

func (r *pushTokenRepository) ListByOwners(ctx context.Context, ownerIDs []string) ([]domain.PushToken, error) {
	if len(ownerIDs) == 0 {
		return nil, nil
	}
	const query = `
        SELECT token, owner_id, device, created_at, updated_at
        FROM push_tokens WHERE owner_id = ANY($1)`
	rows, err := r.pool.Query(ctx, query, ownerIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PushToken
	for rows.Next() {
		var t domain.PushToken
		if err := rows.Scan(&t.Token, &t.OwnerID, &t.Device, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

func (r *pushTokenRepository) DeleteMany(ctx context.Context, tokens []string) (int64, error) {
	if len(tokens) == 0 {
		return 0, nil
	}
	const query = `DELETE FROM push_tokens WHERE token = ANY($1)`
	cmd, err := r.pool.Exec(ctx, query, tokens)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
