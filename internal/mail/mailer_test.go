package mail

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/ticket-sla-service/internal/observability"
)

func newTestMailer(t *testing.T, async bool) *Mailer {
	t.Helper()
	return NewMailer(zap.NewNop(), observability.NewMetrics(), async, 4)
}

func configuredSettings() Settings {
	return Settings{
		Host:        "smtp.example.com",
		Port:        587,
		FromAddress: "support@example.com",
		FromName:    "Support",
	}
}

func TestSendRefusesWhenNotConfigured(t *testing.T) {
	mailer := newTestMailer(t, false)
	dialed := false
	mailer.dial = func(Settings, EmailMessage) error {
		dialed = true
		return nil
	}

	cases := []Settings{
		{},
		{Host: "smtp.example.com"},
		{Port: 587},
	}
	for _, settings := range cases {
		outcome := mailer.Send(context.Background(), settings, EmailMessage{To: "m@example.com"})
		if outcome != OutcomeNotConfigured {
			t.Fatalf("expected NotConfigured for %+v, got %v", settings, outcome)
		}
	}
	if dialed {
		t.Fatal("transport dialed despite missing configuration")
	}
}

func TestSendSuccess(t *testing.T) {
	mailer := newTestMailer(t, false)
	var got EmailMessage
	mailer.dial = func(_ Settings, message EmailMessage) error {
		got = message
		return nil
	}

	outcome := mailer.Send(context.Background(), configuredSettings(), EmailMessage{
		To:           "manager@example.com",
		Subject:      "SLA breach",
		TemplateSlug: "ticket-escalation",
	})
	if outcome != OutcomeSent {
		t.Fatalf("expected Sent, got %v", outcome)
	}
	if !outcome.Accepted() {
		t.Fatal("Sent outcome should be accepted")
	}
	if got.To != "manager@example.com" {
		t.Fatalf("unexpected recipient %q", got.To)
	}
}

func TestSendTransportFailureSurfacesAsOutcome(t *testing.T) {
	mailer := newTestMailer(t, false)
	mailer.dial = func(Settings, EmailMessage) error {
		return errors.New("connection refused")
	}

	outcome := mailer.Send(context.Background(), configuredSettings(), EmailMessage{To: "m@example.com"})
	if outcome != OutcomeFailed {
		t.Fatalf("expected Failed, got %v", outcome)
	}
	if outcome.Accepted() {
		t.Fatal("Failed outcome must not be accepted")
	}
}

func TestSendAsyncQueues(t *testing.T) {
	mailer := newTestMailer(t, true)
	delivered := make(chan EmailMessage, 1)
	mailer.dial = func(_ Settings, message EmailMessage) error {
		delivered <- message
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mailer.Start(ctx)

	outcome := mailer.Send(ctx, configuredSettings(), EmailMessage{To: "m@example.com"})
	if outcome != OutcomeQueued {
		t.Fatalf("expected Queued, got %v", outcome)
	}
	if !outcome.Accepted() {
		t.Fatal("Queued outcome should be accepted")
	}

	got := <-delivered
	if got.To != "m@example.com" {
		t.Fatalf("unexpected recipient %q", got.To)
	}
}

func TestStopDeliversQueuedSendsBeforeReturning(t *testing.T) {
	// A queued outcome is an acceptance; the process may not exit until
	// the worker has actually dialed what it accepted.
	mailer := newTestMailer(t, true)
	var delivered []EmailMessage
	mailer.dial = func(_ Settings, message EmailMessage) error {
		delivered = append(delivered, message)
		return nil
	}
	mailer.Start(context.Background())

	for _, to := range []string{"a@example.com", "b@example.com"} {
		outcome := mailer.Send(context.Background(), configuredSettings(), EmailMessage{To: to})
		if outcome != OutcomeQueued {
			t.Fatalf("expected Queued for %s, got %v", to, outcome)
		}
	}

	mailer.Stop()

	if len(delivered) != 2 {
		t.Fatalf("expected 2 deliveries after Stop, got %d", len(delivered))
	}
	if delivered[0].To != "a@example.com" || delivered[1].To != "b@example.com" {
		t.Fatalf("unexpected delivery order: %+v", delivered)
	}
}

func TestStopWithoutStartIsNoOp(t *testing.T) {
	mailer := newTestMailer(t, false)
	mailer.Stop()
	mailer.Stop()
}

func TestSendSaturatedQueueFallsBackToSynchronous(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	mailer := NewMailer(zap.New(core), observability.NewMetrics(), true, 1)
	dialed := 0
	mailer.dial = func(Settings, EmailMessage) error {
		dialed++
		return nil
	}

	// Worker deliberately not started: the first send fills the queue,
	// the second must be delivered inline instead of dropped.
	first := mailer.Send(context.Background(), configuredSettings(), EmailMessage{To: "a@example.com"})
	if first != OutcomeQueued {
		t.Fatalf("expected Queued, got %v", first)
	}
	second := mailer.Send(context.Background(), configuredSettings(), EmailMessage{To: "b@example.com"})
	if second != OutcomeSent {
		t.Fatalf("expected Sent fallback, got %v", second)
	}
	if dialed != 1 {
		t.Fatalf("expected exactly the fallback dial, got %d", dialed)
	}
	if logs.FilterMessage("email queue saturated, sending synchronously").Len() != 1 {
		t.Fatal("saturated-queue fallback was not logged")
	}
}
