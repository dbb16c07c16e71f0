package events

import (
	"time"

	"github.com/spec-kit/ticket-sla-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketAutoClosed EventType = "ticket_auto_closed"
	EventTicketEscalated  EventType = "ticket_escalated"
)

// Event represents a domain event emitted by the sweeps.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	TicketID  string    `json:"ticket_id"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// TicketAutoClosedPayload payload.
type TicketAutoClosedPayload struct {
	ExternalKey string              `json:"external_key"`
	ResolvedAt  time.Time           `json:"resolved_at"`
	ClosedAt    time.Time           `json:"closed_at"`
	Status      domain.TicketStatus `json:"status"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	ExternalKey string                `json:"external_key"`
	Subject     string                `json:"subject"`
	Priority    domain.TicketPriority `json:"priority"`
	ManagerID   string                `json:"manager_id"`
	EscalatedAt time.Time             `json:"escalated_at"`
}
