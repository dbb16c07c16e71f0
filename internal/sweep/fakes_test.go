package sweep

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/ticket-sla-service/internal/domain"
	"github.com/spec-kit/ticket-sla-service/internal/mail"
	"github.com/spec-kit/ticket-sla-service/internal/notify"
	"github.com/spec-kit/ticket-sla-service/internal/repository"
)

type fakeTicketRepo struct {
	tickets       []*domain.Ticket
	markClosedErr error
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	for _, t := range f.tickets {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeTicketRepo) ListAutoCloseCandidates(context.Context) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, t := range f.tickets {
		if t.Status == domain.TicketStatusResolved && t.ResolvedAt != nil {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTicketRepo) ListEscalationCandidates(context.Context) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, t := range f.tickets {
		open := t.Status == domain.TicketStatusOpen || t.Status == domain.TicketStatusPending
		if open && t.EscalatedAt == nil && t.EscalateValue != nil && t.EscalateUnit != nil && t.AssignedTo != nil {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (f *fakeTicketRepo) MarkClosed(_ context.Context, id string, closedAt time.Time) error {
	if f.markClosedErr != nil {
		return f.markClosedErr
	}
	for _, t := range f.tickets {
		if t.ID == id {
			t.Status = domain.TicketStatusClosed
			t.ClosedAt = &closedAt
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeTicketRepo) MarkEscalated(_ context.Context, id string, escalatedAt time.Time) error {
	for _, t := range f.tickets {
		if t.ID == id && t.EscalatedAt == nil {
			t.EscalatedAt = &escalatedAt
			return nil
		}
	}
	return pgx.ErrNoRows
}

type fakeSettingsRepo struct {
	values map[string]string
}

func (f *fakeSettingsRepo) Get(_ context.Context, key string) (string, error) {
	return f.values[key], nil
}

func (f *fakeSettingsRepo) GetMany(_ context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		if value, ok := f.values[key]; ok {
			out[key] = value
		}
	}
	return out, nil
}

func (f *fakeSettingsRepo) Set(_ context.Context, key, value string) error {
	if f.values == nil {
		f.values = map[string]string{}
	}
	f.values[key] = value
	return nil
}

type fakeUserRepo struct {
	users []domain.User
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			user := u
			return &user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserRepo) FirstByRole(_ context.Context, role domain.UserRole) (*domain.User, error) {
	for _, u := range f.users {
		if u.Role == role && u.Active {
			user := u
			return &user, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakeTemplateRepo struct {
	template *domain.EmailTemplate
}

func (f *fakeTemplateRepo) GetBySlug(_ context.Context, slug string) (*domain.EmailTemplate, error) {
	if f.template == nil || f.template.Slug != slug {
		return nil, pgx.ErrNoRows
	}
	template := *f.template
	return &template, nil
}

type mailerCall struct {
	settings mail.Settings
	message  mail.EmailMessage
}

type fakeMailer struct {
	outcome mail.Outcome
	calls   []mailerCall
}

func (f *fakeMailer) Send(_ context.Context, settings mail.Settings, message mail.EmailMessage) mail.Outcome {
	f.calls = append(f.calls, mailerCall{settings: settings, message: message})
	return f.outcome
}

type notifierCall struct {
	recipientIDs []string
	feature      string
	title        string
	body         string
	data         map[string]string
}

type fakeNotifier struct {
	calls []notifierCall
}

func (f *fakeNotifier) SendToRecipients(_ context.Context, recipientIDs []string, feature, title, body string, data map[string]string) notify.DispatchResult {
	f.calls = append(f.calls, notifierCall{
		recipientIDs: recipientIDs,
		feature:      feature,
		title:        title,
		body:         body,
		data:         data,
	})
	return notify.DispatchResult{Sent: len(recipientIDs)}
}

var _ repository.TicketRepository = (*fakeTicketRepo)(nil)
var _ repository.SettingsRepository = (*fakeSettingsRepo)(nil)
var _ repository.UserRepository = (*fakeUserRepo)(nil)
var _ repository.TemplateRepository = (*fakeTemplateRepo)(nil)
var _ EmailSender = (*fakeMailer)(nil)
var _ NotificationSender = (*fakeNotifier)(nil)
