package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-sla-service/internal/events"
)

// Redis channels the real-time layer publishes into. Consumers (chat
// widgets, live dashboards) are external; delivery is at least once,
// best effort.
const (
	ChannelNotifications = "notification_events"
	ChannelTickets       = "ticket_events"
)

// RealtimePublisher pushes notification and ticket lifecycle events into
// the Redis pub/sub sink. Publish failures are logged, never propagated.
type RealtimePublisher struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRealtimePublisher constructs the publisher.
func NewRealtimePublisher(client *redis.Client, logger *zap.Logger) *RealtimePublisher {
	return &RealtimePublisher{client: client, logger: logger}
}

type notificationEvent struct {
	RecipientIDs []string          `json:"recipient_ids"`
	Feature      string            `json:"feature"`
	Title        string            `json:"title"`
	Body         string            `json:"body"`
	Data         map[string]string `json:"data,omitempty"`
	EmittedAt    time.Time         `json:"emitted_at"`
}

// PublishNotification mirrors a dispatched notification onto the
// real-time channel.
func (p *RealtimePublisher) PublishNotification(ctx context.Context, recipientIDs []string, feature, title, body string, data map[string]string) {
	p.publish(ctx, ChannelNotifications, notificationEvent{
		RecipientIDs: recipientIDs,
		Feature:      feature,
		Title:        title,
		Body:         body,
		Data:         data,
		EmittedAt:    time.Now().UTC(),
	})
}

// RegisterHandlers mirrors sweep lifecycle events onto the ticket
// channel.
func (p *RealtimePublisher) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventTicketAutoClosed, p.handleTicketEvent)
	dispatcher.Subscribe(events.EventTicketEscalated, p.handleTicketEvent)
}

func (p *RealtimePublisher) handleTicketEvent(ctx context.Context, event events.Event) error {
	p.publish(ctx, ChannelTickets, event)
	return nil
}

func (p *RealtimePublisher) publish(ctx context.Context, channel string, payload any) {
	if p.client == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		p.logger.Warn("marshal realtime event", zap.String("channel", channel), zap.Error(err))
		return
	}
	if err := p.client.Publish(ctx, channel, body).Err(); err != nil {
		p.logger.Warn("publish realtime event", zap.String("channel", channel), zap.Error(err))
	}
}
