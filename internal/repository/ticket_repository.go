package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/ticket-sla-service/internal/domain"
)

// TicketRepository exposes the slice of ticket persistence the SLA
// sweeps need: candidate listing plus the two one-shot transitions.
type TicketRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	// ListAutoCloseCandidates returns resolved tickets with a resolution
	// timestamp, oldest first.
	ListAutoCloseCandidates(ctx context.Context) ([]domain.Ticket, error)
	// ListEscalationCandidates returns open/pending tickets that carry a
	// full escalation config, an assignee, and no escalation mark yet.
	ListEscalationCandidates(ctx context.Context) ([]domain.Ticket, error)
	// MarkClosed transitions a ticket to CLOSED with the given close time.
	MarkClosed(ctx context.Context, id string, closedAt time.Time) error
	// MarkEscalated stamps the escalation idempotency flag. The flag is
	// written once and never cleared by the sweep.
	MarkEscalated(ctx context.Context, id string, escalatedAt time.Time) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, external_key, subject, contact_name, contact_email, priority, status,
       assigned_to, escalate_value, escalate_unit, escalated_at, resolved_at, closed_at,
       created_at, updated_at`

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTicket(row)
}

func (r *ticketRepository) ListAutoCloseCandidates(ctx context.Context) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
        FROM tickets
        WHERE status=$1 AND resolved_at IS NOT NULL
        ORDER BY resolved_at ASC`
	rows, err := r.pool.Query(ctx, query, domain.TicketStatusResolved)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListEscalationCandidates(ctx context.Context) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
        FROM tickets
        WHERE status IN ($1,$2)
          AND escalated_at IS NULL
          AND escalate_value IS NOT NULL
          AND escalate_unit IS NOT NULL
          AND assigned_to IS NOT NULL
        ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, domain.TicketStatusOpen, domain.TicketStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) MarkClosed(ctx context.Context, id string, closedAt time.Time) error {
	const query = `
        UPDATE tickets SET status=$1, closed_at=$2, updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, domain.TicketStatusClosed, closedAt, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) MarkEscalated(ctx context.Context, id string, escalatedAt time.Time) error {
	const query = `
        UPDATE tickets SET escalated_at=$1, updated_at=NOW()
        WHERE id=$2 AND escalated_at IS NULL`
	cmd, err := r.pool.Exec(ctx, query, escalatedAt, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.ExternalKey,
		&ticket.Subject,
		&ticket.ContactName,
		&ticket.ContactEmail,
		&ticket.Priority,
		&ticket.Status,
		&ticket.AssignedTo,
		&ticket.EscalateValue,
		&ticket.EscalateUnit,
		&ticket.EscalatedAt,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
