package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-sla-service/internal/domain"
	"github.com/spec-kit/ticket-sla-service/internal/events"
	"github.com/spec-kit/ticket-sla-service/internal/mail"
	"github.com/spec-kit/ticket-sla-service/internal/notify"
	"github.com/spec-kit/ticket-sla-service/internal/observability"
	"github.com/spec-kit/ticket-sla-service/internal/repository"
	"github.com/spec-kit/ticket-sla-service/internal/sla"
)

// NotificationSender is the slice of the dispatcher the sweep uses.
type NotificationSender interface {
	SendToRecipients(ctx context.Context, recipientIDs []string, feature, title, body string, data map[string]string) notify.DispatchResult
}

// EmailSender is the slice of the email adapter the sweep uses.
type EmailSender interface {
	Send(ctx context.Context, settings mail.Settings, message mail.EmailMessage) mail.Outcome
}

// FeatureEscalation tags in-app notifications emitted by this sweep.
const FeatureEscalation = "escalation"

// Escalator escalates assigned open/pending tickets whose per-ticket
// SLA window has elapsed, notifying the responsible manager across the
// email, in-app, and push channels.
type Escalator struct {
	tickets   repository.TicketRepository
	users     repository.UserRepository
	settings  repository.SettingsRepository
	templates repository.TemplateRepository
	resolver  *ManagerResolver
	notifier  NotificationSender
	mailer    EmailSender
	events    events.Dispatcher
	logger    *zap.Logger
	metrics   *observability.Metrics
	publicURL string
	now       func() time.Time
}

// EscalatorDependencies bundles collaborators for the sweep.
type EscalatorDependencies struct {
	TicketRepo   repository.TicketRepository
	UserRepo     repository.UserRepository
	SettingsRepo repository.SettingsRepository
	TemplateRepo repository.TemplateRepository
	Resolver     *ManagerResolver
	Notifier     NotificationSender
	Mailer       EmailSender
	Events       events.Dispatcher
	Logger       *zap.Logger
	Metrics      *observability.Metrics
	PublicURL    string
}

// NewEscalator constructs the sweep.
func NewEscalator(deps EscalatorDependencies) *Escalator {
	return &Escalator{
		tickets:   deps.TicketRepo,
		users:     deps.UserRepo,
		settings:  deps.SettingsRepo,
		templates: deps.TemplateRepo,
		resolver:  deps.Resolver,
		notifier:  deps.Notifier,
		mailer:    deps.Mailer,
		events:    deps.Events,
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		publicURL: deps.PublicURL,
		now:       time.Now,
	}
}

// Run performs one sweep pass. The escalation mark is written only
// after the email channel accepts delivery, so a ticket whose send
// fails stays un-escalated and is retried on the next pass.
func (e *Escalator) Run(ctx context.Context) (Report, error) {
	candidates, err := e.tickets.ListEscalationCandidates(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list escalation candidates: %w", err)
	}

	report := Report{Examined: len(candidates)}
	now := e.now()

	for _, ticket := range candidates {
		unit, err := sla.ParseUnit(*ticket.EscalateUnit)
		if err != nil {
			e.logger.Warn("escalation candidate skipped",
				zap.String("ticket_id", ticket.ID),
				zap.Error(err))
			report.skip(ticket.ID, err.Error())
			continue
		}
		deadline, err := sla.ComputeDeadline(ticket.CreatedAt, *ticket.EscalateValue, unit)
		if err != nil {
			report.skip(ticket.ID, err.Error())
			continue
		}
		if !now.After(deadline) {
			continue
		}

		e.escalate(ctx, ticket, *ticket.EscalateValue, unit, now, &report)
	}

	e.logger.Info("escalation sweep finished",
		zap.Int("examined", report.Examined),
		zap.Int("escalated", report.Applied),
		zap.Int("skipped", len(report.Skips)))
	return report, nil
}

func (e *Escalator) escalate(ctx context.Context, ticket domain.Ticket, magnitude int, unit sla.Unit, now time.Time, report *Report) {
	manager, err := e.resolver.Resolve(ctx)
	if err != nil {
		e.logger.Error("resolve manager",
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
		report.skip(ticket.ID, "manager lookup failed")
		return
	}
	if manager == nil {
		e.logger.Warn("no responsible manager for escalation",
			zap.String("ticket_id", ticket.ID),
			zap.String("external_key", ticket.ExternalKey))
		report.skip(ticket.ID, "no responsible manager")
		return
	}

	template, err := e.templates.GetBySlug(ctx, domain.EscalationTemplateSlug)
	if err != nil {
		e.logger.Error("load escalation template",
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
		report.skip(ticket.ID, "template unavailable")
		return
	}

	smtp, err := mail.LoadSettings(ctx, e.settings)
	if err != nil {
		e.logger.Error("load mail settings",
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
		report.skip(ticket.ID, "mail settings unavailable")
		return
	}

	threshold := sla.DescribeThreshold(magnitude, unit)
	vars := e.templateVars(ctx, ticket, manager, smtp, threshold, now)

	outcome := e.mailer.Send(ctx, smtp, mail.EmailMessage{
		To:           manager.Email,
		ToName:       manager.Name,
		Subject:      mail.Render(template.Subject, vars),
		HTML:         mail.Render(template.HTML, vars),
		TemplateSlug: template.Slug,
	})
	if !outcome.Accepted() {
		// Deliberately retried by the next sweep rather than marked.
		e.logger.Warn("escalation email not accepted",
			zap.String("ticket_id", ticket.ID),
			zap.String("manager_id", manager.ID),
			zap.String("outcome", outcome.String()))
		report.skip(ticket.ID, "email "+outcome.String())
		return
	}

	if err := e.tickets.MarkEscalated(ctx, ticket.ID, now); err != nil {
		e.logger.Error("mark ticket escalated",
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
		report.skip(ticket.ID, "persist failed")
		return
	}

	e.logger.Info("ticket escalated",
		zap.String("ticket_id", ticket.ID),
		zap.String("external_key", ticket.ExternalKey),
		zap.String("manager_id", manager.ID),
		zap.String("threshold", threshold))
	e.metrics.Add(observability.CounterTicketsEscalated, 1)
	report.Applied++

	// In-app and push delivery are best effort; the idempotency mark is
	// tied to the email channel only.
	e.notifier.SendToRecipients(ctx, []string{manager.ID}, FeatureEscalation,
		"Ticket escalated: "+ticket.Subject,
		fmt.Sprintf("Ticket %s breached its %s SLA window.", ticket.ExternalKey, threshold),
		map[string]string{
			"ticket_id":    ticket.ID,
			"external_key": ticket.ExternalKey,
			"priority":     string(ticket.Priority),
		})

	e.publishEscalated(ctx, ticket, manager.ID, now)
}

func (e *Escalator) templateVars(ctx context.Context, ticket domain.Ticket, manager *domain.User, smtp mail.Settings, threshold string, now time.Time) map[string]string {
	assigneeName := ""
	if ticket.AssignedTo != nil {
		if assignee, err := e.users.GetByID(ctx, *ticket.AssignedTo); err == nil {
			assigneeName = assignee.Name
		} else {
			e.logger.Warn("load assignee for escalation email",
				zap.String("ticket_id", ticket.ID),
				zap.Error(err))
		}
	}

	return map[string]string{
		"name":                 manager.Name,
		"uid":                  ticket.ExternalKey,
		"subject":              ticket.Subject,
		"contact":              ticket.ContactName,
		"assigned_to":          assigneeName,
		"priority":             string(ticket.Priority),
		"status":               string(ticket.Status),
		"created_at":           ticket.CreatedAt.Format("2006-01-02 15:04"),
		"time_elapsed":         sla.DescribeElapsed(ticket.CreatedAt, now),
		"escalation_threshold": threshold,
		"url":                  fmt.Sprintf("%s/tickets/%s", e.publicURL, ticket.ExternalKey),
		"sender_name":          smtp.FromName,
	}
}

func (e *Escalator) publishEscalated(ctx context.Context, ticket domain.Ticket, managerID string, escalatedAt time.Time) {
	if e.events == nil {
		return
	}
	_ = e.events.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketEscalated,
		TicketID:  ticket.ID,
		Timestamp: escalatedAt,
		Payload: events.TicketEscalatedPayload{
			ExternalKey: ticket.ExternalKey,
			Subject:     ticket.Subject,
			Priority:    ticket.Priority,
			ManagerID:   managerID,
			EscalatedAt: escalatedAt,
		},
	})
}
