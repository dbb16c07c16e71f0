package sweep

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-sla-service/internal/domain"
	"github.com/spec-kit/ticket-sla-service/internal/observability"
	"github.com/spec-kit/ticket-sla-service/internal/repository"
)

var sweepBase = time.Date(2025, time.June, 2, 9, 0, 0, 0, time.UTC)

func resolvedTicket(id string, resolvedAt time.Time) *domain.Ticket {
	return &domain.Ticket{
		ID:          id,
		ExternalKey: "T-" + id,
		Status:      domain.TicketStatusResolved,
		ResolvedAt:  &resolvedAt,
		CreatedAt:   resolvedAt.Add(-time.Hour),
	}
}

func newTestAutoCloser(tickets *fakeTicketRepo, settings *fakeSettingsRepo, now time.Time) *AutoCloser {
	a := NewAutoCloser(AutoCloserDependencies{
		TicketRepo:   tickets,
		SettingsRepo: settings,
		Logger:       zap.NewNop(),
		Metrics:      observability.NewMetrics(),
	})
	a.now = func() time.Time { return now }
	return a
}

func autocloseSettings(value, unit string) *fakeSettingsRepo {
	return &fakeSettingsRepo{values: map[string]string{
		repository.SettingAutocloseValue: value,
		repository.SettingAutocloseUnit:  unit,
	}}
}

func TestAutoCloseClosesExpiredTickets(t *testing.T) {
	tickets := &fakeTicketRepo{tickets: []*domain.Ticket{
		resolvedTicket("1", sweepBase.Add(-3*time.Hour)),
		resolvedTicket("2", sweepBase.Add(-30*time.Minute)),
	}}

	a := newTestAutoCloser(tickets, autocloseSettings("2", "hours"), sweepBase)
	report, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.Examined != 2 || report.Applied != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if tickets.tickets[0].Status != domain.TicketStatusClosed {
		t.Fatal("expired ticket not closed")
	}
	if tickets.tickets[0].ClosedAt == nil || !tickets.tickets[0].ClosedAt.Equal(sweepBase) {
		t.Fatal("closed_at not stamped with sweep time")
	}
	if tickets.tickets[1].Status != domain.TicketStatusResolved {
		t.Fatal("fresh ticket should stay resolved")
	}
}

func TestAutoCloseBoundaryIsStrict(t *testing.T) {
	// Resolved exactly one window ago: deadline == now, so nothing closes.
	tickets := &fakeTicketRepo{tickets: []*domain.Ticket{
		resolvedTicket("1", sweepBase.Add(-2*time.Hour)),
	}}

	a := newTestAutoCloser(tickets, autocloseSettings("2", "hours"), sweepBase)
	report, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Applied != 0 {
		t.Fatal("ticket at exact deadline must not close")
	}

	// One minute later it does.
	a = newTestAutoCloser(tickets, autocloseSettings("2", "hours"), sweepBase.Add(time.Minute))
	report, err = a.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Applied != 1 {
		t.Fatal("ticket past deadline should close")
	}
}

func TestAutoCloseScenario(t *testing.T) {
	// Resolved at T, autoclose 2 hours: still resolved at T+1h59m,
	// closed at T+2h01m.
	resolvedAt := sweepBase
	tickets := &fakeTicketRepo{tickets: []*domain.Ticket{
		resolvedTicket("1", resolvedAt),
	}}
	settings := autocloseSettings("2", "hours")

	a := newTestAutoCloser(tickets, settings, resolvedAt.Add(time.Hour+59*time.Minute))
	if report, _ := a.Run(context.Background()); report.Applied != 0 {
		t.Fatal("closed too early")
	}

	a = newTestAutoCloser(tickets, settings, resolvedAt.Add(2*time.Hour+time.Minute))
	if report, _ := a.Run(context.Background()); report.Applied != 1 {
		t.Fatal("should be closed at T+2h01m")
	}
	if tickets.tickets[0].Status != domain.TicketStatusClosed {
		t.Fatal("status not CLOSED")
	}
}

func TestAutoCloseMissingConfigIsDegradedNoOp(t *testing.T) {
	tickets := &fakeTicketRepo{tickets: []*domain.Ticket{
		resolvedTicket("1", sweepBase.Add(-48*time.Hour)),
	}}

	cases := []*fakeSettingsRepo{
		{values: map[string]string{}},
		autocloseSettings("2", ""),
		autocloseSettings("", "hours"),
		autocloseSettings("2", "fortnights"),
		autocloseSettings("nope", "hours"),
	}
	for i, settings := range cases {
		a := newTestAutoCloser(tickets, settings, sweepBase)
		report, err := a.Run(context.Background())
		if err != nil {
			t.Fatalf("case %d: config problems must not be errors: %v", i, err)
		}
		if !report.ConfigSkipped {
			t.Fatalf("case %d: expected ConfigSkipped", i)
		}
		if tickets.tickets[0].Status != domain.TicketStatusResolved {
			t.Fatalf("case %d: degraded mode must not mutate", i)
		}
	}
}
