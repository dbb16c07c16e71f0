package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen              TicketStatus = "OPEN"
	TicketStatusPending           TicketStatus = "PENDING"
	TicketStatusResolved          TicketStatus = "RESOLVED"
	TicketStatusClosed            TicketStatus = "CLOSED"
	TicketStatusWaitingOnCustomer TicketStatus = "WAITING_ON_CUSTOMER"
)

// TicketPriority enumerates SLA urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Ticket is the slice of the ticket aggregate the SLA engine reads and
// writes. Full ticket CRUD belongs to the surrounding application.
type Ticket struct {
	ID            string
	ExternalKey   string
	Subject       string
	ContactName   string
	ContactEmail  string
	Priority      TicketPriority
	Status        TicketStatus
	AssignedTo    *string
	EscalateValue *int
	EscalateUnit  *string
	EscalatedAt   *time.Time
	ResolvedAt    *time.Time
	ClosedAt      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
