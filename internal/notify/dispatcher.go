package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-sla-service/internal/domain"
	"github.com/spec-kit/ticket-sla-service/internal/observability"
	"github.com/spec-kit/ticket-sla-service/internal/repository"
)

// DefaultChunkSize is the push provider's per-request token maximum.
const DefaultChunkSize = 500

// DispatchResult aggregates the outcome of one logical notification.
type DispatchResult struct {
	Sent                 int
	Failed               int
	InvalidTokensRemoved int
}

// Dispatcher fans a single logical notification out to the persisted
// per-recipient store, the real-time sink, and the push provider.
// Each channel is an independent failure domain.
type Dispatcher struct {
	notifications repository.NotificationRepository
	tokens        repository.PushTokenRepository
	transport     PushTransport
	realtime      *RealtimePublisher
	logger        *zap.Logger
	metrics       *observability.Metrics
	chunkSize     int
}

// DispatcherDependencies bundles collaborators for the dispatcher.
type DispatcherDependencies struct {
	NotificationRepo repository.NotificationRepository
	PushTokenRepo    repository.PushTokenRepository
	Transport        PushTransport
	Realtime         *RealtimePublisher
	Logger           *zap.Logger
	Metrics          *observability.Metrics
	ChunkSize        int
}

// NewDispatcher constructs the dispatcher.
func NewDispatcher(deps DispatcherDependencies) *Dispatcher {
	chunkSize := deps.ChunkSize
	if chunkSize <= 0 || chunkSize > DefaultChunkSize {
		chunkSize = DefaultChunkSize
	}
	return &Dispatcher{
		notifications: deps.NotificationRepo,
		tokens:        deps.PushTokenRepo,
		transport:     deps.Transport,
		realtime:      deps.Realtime,
		logger:        deps.Logger,
		metrics:       deps.Metrics,
		chunkSize:     chunkSize,
	}
}

// SendToRecipients persists one notification row per recipient, then
// pushes to every token registered to the recipient set. A persistence
// failure is logged and does not block the push step. An empty token
// set is a successful no-op.
func (d *Dispatcher) SendToRecipients(ctx context.Context, recipientIDs []string, feature, title, body string, data map[string]string) DispatchResult {
	d.persistAll(ctx, recipientIDs, feature, title, body, data)

	if d.realtime != nil {
		d.realtime.PublishNotification(ctx, recipientIDs, feature, title, body, data)
	}

	if d.transport == nil {
		return DispatchResult{}
	}

	tokens, err := d.tokens.ListByOwners(ctx, recipientIDs)
	if err != nil {
		d.logger.Error("list push tokens", zap.Error(err))
		return DispatchResult{}
	}
	if len(tokens) == 0 {
		return DispatchResult{}
	}

	values := make([]string, len(tokens))
	for i, t := range tokens {
		values[i] = t.Token
	}

	result := d.sendChunked(ctx, values, Message{Title: title, Body: body, Data: data})

	d.metrics.Add(observability.CounterPushSent, int64(result.Sent))
	d.metrics.Add(observability.CounterPushFailed, int64(result.Failed))
	d.metrics.Add(observability.CounterPushTokensPruned, int64(result.InvalidTokensRemoved))
	return result
}

func (d *Dispatcher) persistAll(ctx context.Context, recipientIDs []string, feature, title, body string, data map[string]string) {
	for _, recipientID := range recipientIDs {
		notification := &domain.Notification{
			RecipientID: recipientID,
			Feature:     feature,
			Title:       title,
			Body:        body,
			Data:        structured(data),
		}
		if err := d.notifications.Create(ctx, notification); err != nil {
			d.logger.Error("persist notification",
				zap.String("recipient_id", recipientID),
				zap.String("feature", feature),
				zap.Error(err))
			d.metrics.Add(observability.CounterNotificationsFailed, 1)
			continue
		}
		d.metrics.Add(observability.CounterNotificationsSaved, 1)
	}
}

// sendChunked splits tokens into provider-sized chunks and delivers them
// concurrently. Chunks address disjoint token sets, so results merge by
// simple addition and set union. A chunk-level transport error counts the
// whole chunk as failed and never aborts the remaining chunks.
func (d *Dispatcher) sendChunked(ctx context.Context, tokens []string, msg Message) DispatchResult {
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		result  DispatchResult
		invalid []string
	)

	for start := 0; start < len(tokens); start += d.chunkSize {
		end := start + d.chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		chunk := tokens[start:end]

		wg.Add(1)
		go func(chunk []string) {
			defer wg.Done()
			receipt, err := d.transport.SendChunk(ctx, chunk, msg)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				d.logger.Warn("push chunk failed",
					zap.Int("chunk_size", len(chunk)),
					zap.Error(err))
				result.Failed += len(chunk)
				return
			}
			result.Sent += receipt.Sent
			result.Failed += receipt.Failed
			invalid = append(invalid, receipt.InvalidTokens...)
		}(chunk)
	}
	wg.Wait()

	if len(invalid) > 0 {
		removed, err := d.tokens.DeleteMany(ctx, dedupe(invalid))
		if err != nil {
			d.logger.Error("prune invalid push tokens", zap.Int("count", len(invalid)), zap.Error(err))
		} else {
			result.InvalidTokensRemoved = int(removed)
		}
	}
	return result
}

func structured(data map[string]string) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
