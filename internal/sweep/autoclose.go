package sweep

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-sla-service/internal/domain"
	"github.com/spec-kit/ticket-sla-service/internal/events"
	"github.com/spec-kit/ticket-sla-service/internal/observability"
	"github.com/spec-kit/ticket-sla-service/internal/repository"
	"github.com/spec-kit/ticket-sla-service/internal/sla"
)

// AutoCloser closes resolved tickets once the global autoclose window
// has elapsed.
type AutoCloser struct {
	tickets    repository.TicketRepository
	settings   repository.SettingsRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// AutoCloserDependencies bundles collaborators for the sweep.
type AutoCloserDependencies struct {
	TicketRepo   repository.TicketRepository
	SettingsRepo repository.SettingsRepository
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Metrics      *observability.Metrics
}

// NewAutoCloser constructs the sweep.
func NewAutoCloser(deps AutoCloserDependencies) *AutoCloser {
	return &AutoCloser{
		tickets:    deps.TicketRepo,
		settings:   deps.SettingsRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
		now:        time.Now,
	}
}

// Run performs one sweep pass. A missing or invalid global setting is a
// degraded no-op reported through the Report, not an error; an error is
// returned only when candidates cannot be read at all.
func (a *AutoCloser) Run(ctx context.Context) (Report, error) {
	magnitude, unit, warning, err := a.loadConfig(ctx)
	if err != nil {
		return Report{}, err
	}
	if warning != "" {
		a.logger.Warn("autoclose sweep skipped", zap.String("reason", warning))
		return skippedConfig(warning), nil
	}

	candidates, err := a.tickets.ListAutoCloseCandidates(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list autoclose candidates: %w", err)
	}

	report := Report{Examined: len(candidates)}
	now := a.now()

	for _, ticket := range candidates {
		deadline, err := sla.ComputeDeadline(*ticket.ResolvedAt, magnitude, unit)
		if err != nil {
			a.logger.Warn("autoclose candidate skipped",
				zap.String("ticket_id", ticket.ID),
				zap.Error(err))
			report.skip(ticket.ID, err.Error())
			continue
		}
		// Strict comparison: a ticket resolved exactly one window ago is
		// left for the next pass.
		if !now.After(deadline) {
			continue
		}

		if err := a.tickets.MarkClosed(ctx, ticket.ID, now); err != nil {
			a.logger.Error("close ticket",
				zap.String("ticket_id", ticket.ID),
				zap.Error(err))
			report.skip(ticket.ID, "persist failed")
			continue
		}

		a.logger.Info("ticket auto-closed",
			zap.String("ticket_id", ticket.ID),
			zap.String("external_key", ticket.ExternalKey),
			zap.Time("resolved_at", *ticket.ResolvedAt),
			zap.Time("closed_at", now))
		a.metrics.Add(observability.CounterTicketsClosed, 1)
		report.Applied++

		a.publishClosed(ctx, ticket, now)
	}

	a.logger.Info("autoclose sweep finished",
		zap.Int("examined", report.Examined),
		zap.Int("closed", report.Applied),
		zap.Int("skipped", len(report.Skips)))
	return report, nil
}

// loadConfig reads the global autoclose window. Absent or malformed
// values produce a warning string for the degraded no-op mode.
func (a *AutoCloser) loadConfig(ctx context.Context) (int, sla.Unit, string, error) {
	values, err := a.settings.GetMany(ctx, []string{
		repository.SettingAutocloseValue,
		repository.SettingAutocloseUnit,
	})
	if err != nil {
		return 0, "", "", fmt.Errorf("load autoclose settings: %w", err)
	}

	rawValue := values[repository.SettingAutocloseValue]
	rawUnit := values[repository.SettingAutocloseUnit]
	if rawValue == "" || rawUnit == "" {
		return 0, "", "autoclose setting absent", nil
	}

	magnitude, err := strconv.Atoi(rawValue)
	if err != nil || magnitude < 0 {
		return 0, "", fmt.Sprintf("invalid autoclose value %q", rawValue), nil
	}
	unit, err := sla.ParseUnit(rawUnit)
	if err != nil {
		return 0, "", fmt.Sprintf("invalid autoclose unit %q", rawUnit), nil
	}
	return magnitude, unit, "", nil
}

func (a *AutoCloser) publishClosed(ctx context.Context, ticket domain.Ticket, closedAt time.Time) {
	if a.dispatcher == nil {
		return
	}
	_ = a.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketAutoClosed,
		TicketID:  ticket.ID,
		Timestamp: closedAt,
		Payload: events.TicketAutoClosedPayload{
			ExternalKey: ticket.ExternalKey,
			ResolvedAt:  *ticket.ResolvedAt,
			ClosedAt:    closedAt,
			Status:      domain.TicketStatusClosed,
		},
	})
}
