package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-sla-service/internal/domain"
)

// NotificationFilter captures listing parameters for a recipient's feed.
type NotificationFilter struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}

// NotificationRepository persists per-recipient in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	ListByRecipient(ctx context.Context, recipientID string, filter NotificationFilter) ([]domain.Notification, error)
	// MarkRead stamps read_at on a single unread notification owned by the
	// recipient. Already-read rows are left untouched.
	MarkRead(ctx context.Context, recipientID, id string, readAt time.Time) error
	// MarkAllRead stamps read_at on every unread notification for the
	// recipient and returns how many rows changed.
	MarkAllRead(ctx context.Context, recipientID string, readAt time.Time) (int64, error)
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository instantiates repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	payload, err := json.Marshal(notification.Data)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO notifications (recipient_id, feature, title, body, data)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		notification.RecipientID,
		notification.Feature,
		notification.Title,
		notification.Body,
		payload,
	).Scan(&notification.ID, &notification.CreatedAt)
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID string, filter NotificationFilter) ([]domain.Notification, error) {
	query := `
        SELECT id, recipient_id, feature, title, body, data, created_at, read_at
        FROM notifications WHERE recipient_id=$1`
	if filter.UnreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := r.pool.Query(ctx, query, recipientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var n domain.Notification
		var payload []byte
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.Feature, &n.Title, &n.Body, &payload, &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &n.Data); err != nil {
				return nil, err
			}
		}
		result = append(result, n)
	}
	return result, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, recipientID, id string, readAt time.Time) error {
	const query = `
        UPDATE notifications SET read_at=$1
        WHERE id=$2 AND recipient_id=$3 AND read_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, readAt, id, recipientID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID string, readAt time.Time) (int64, error) {
	const query = `
        UPDATE notifications SET read_at=$1
        WHERE recipient_id=$2 AND read_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, readAt, recipientID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
