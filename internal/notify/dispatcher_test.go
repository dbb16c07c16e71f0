package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-sla-service/internal/domain"
	"github.com/spec-kit/ticket-sla-service/internal/observability"
	"github.com/spec-kit/ticket-sla-service/internal/repository"
)

type fakeNotificationRepo struct {
	mu      sync.Mutex
	created []domain.Notification
	fail    bool
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("insert failed")
	}
	n.ID = fmt.Sprintf("n-%d", len(f.created)+1)
	n.CreatedAt = time.Now()
	f.created = append(f.created, *n)
	return nil
}

func (f *fakeNotificationRepo) ListByRecipient(context.Context, string, repository.NotificationFilter) ([]domain.Notification, error) {
	return nil, nil
}

func (f *fakeNotificationRepo) MarkRead(context.Context, string, string, time.Time) error {
	return nil
}

func (f *fakeNotificationRepo) MarkAllRead(context.Context, string, time.Time) (int64, error) {
	return 0, nil
}

type fakeTokenRepo struct {
	mu      sync.Mutex
	tokens  []domain.PushToken
	deleted []string
}

func (f *fakeTokenRepo) Upsert(_ context.Context, token *domain.PushToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.tokens {
		if existing.Token == token.Token {
			f.tokens[i] = *token
			return nil
		}
	}
	f.tokens = append(f.tokens, *token)
	return nil
}

func (f *fakeTokenRepo) ListByOwners(_ context.Context, ownerIDs []string) ([]domain.PushToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	owners := make(map[string]struct{}, len(ownerIDs))
	for _, id := range ownerIDs {
		owners[id] = struct{}{}
	}
	var out []domain.PushToken
	for _, t := range f.tokens {
		if t.OwnerID == nil {
			continue
		}
		if _, ok := owners[*t.OwnerID]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTokenRepo) DeleteMany(_ context.Context, tokens []string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doomed := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		doomed[t] = struct{}{}
	}
	var kept []domain.PushToken
	var removed int64
	for _, t := range f.tokens {
		if _, ok := doomed[t.Token]; ok {
			f.deleted = append(f.deleted, t.Token)
			removed++
			continue
		}
		kept = append(kept, t)
	}
	f.tokens = kept
	return removed, nil
}

// fakeTransport records chunks and can fail or invalidate per chunk
// index.
type fakeTransport struct {
	mu           sync.Mutex
	chunks       [][]string
	failChunks   map[int]bool
	invalidInCh  map[int][]string
	failedTokens map[string]bool
}

func (f *fakeTransport) SendChunk(_ context.Context, tokens []string, _ Message) (ChunkReceipt, error) {
	f.mu.Lock()
	index := len(f.chunks)
	f.chunks = append(f.chunks, append([]string(nil), tokens...))
	f.mu.Unlock()

	if f.failChunks[index] {
		return ChunkReceipt{}, errors.New("transport unavailable")
	}

	receipt := ChunkReceipt{}
	invalid := make(map[string]struct{})
	for _, t := range f.invalidInCh[index] {
		invalid[t] = struct{}{}
	}
	for _, t := range tokens {
		if _, ok := invalid[t]; ok {
			receipt.Failed++
			receipt.InvalidTokens = append(receipt.InvalidTokens, t)
			continue
		}
		if f.failedTokens[t] {
			receipt.Failed++
			continue
		}
		receipt.Sent++
	}
	return receipt, nil
}

func newTestDispatcher(notifications *fakeNotificationRepo, tokens *fakeTokenRepo, transport PushTransport, chunkSize int) *Dispatcher {
	return NewDispatcher(DispatcherDependencies{
		NotificationRepo: notifications,
		PushTokenRepo:    tokens,
		Transport:        transport,
		Logger:           zap.NewNop(),
		Metrics:          observability.NewMetrics(),
		ChunkSize:        chunkSize,
	})
}

func ownedToken(value, owner string) domain.PushToken {
	return domain.PushToken{Token: value, OwnerID: &owner, Device: "test"}
}

func seedTokens(repo *fakeTokenRepo, owner string, count int) []string {
	values := make([]string, count)
	for i := range values {
		values[i] = fmt.Sprintf("tok-%03d", i)
		token := ownedToken(values[i], owner)
		repo.tokens = append(repo.tokens, token)
	}
	return values
}

func TestSendToRecipientsPersistsAndPushes(t *testing.T) {
	notifications := &fakeNotificationRepo{}
	tokens := &fakeTokenRepo{}
	seedTokens(tokens, "u1", 3)
	transport := &fakeTransport{}

	d := newTestDispatcher(notifications, tokens, transport, 500)
	result := d.SendToRecipients(context.Background(), []string{"u1", "u2"}, "escalation", "title", "body", map[string]string{"k": "v"})

	if len(notifications.created) != 2 {
		t.Fatalf("expected 2 persisted notifications, got %d", len(notifications.created))
	}
	if result.Sent != 3 || result.Failed != 0 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestSendToRecipientsEmptyTokenSetIsNoOp(t *testing.T) {
	notifications := &fakeNotificationRepo{}
	tokens := &fakeTokenRepo{}
	transport := &fakeTransport{}

	d := newTestDispatcher(notifications, tokens, transport, 500)
	result := d.SendToRecipients(context.Background(), []string{"u1"}, "escalation", "title", "body", nil)

	if result != (DispatchResult{}) {
		t.Fatalf("expected zero result, got %+v", result)
	}
	if len(transport.chunks) != 0 {
		t.Fatal("transport should not be called with no tokens")
	}
	if len(notifications.created) != 1 {
		t.Fatal("notification row still expected")
	}
}

func TestSendToRecipientsChunksAtProviderLimit(t *testing.T) {
	notifications := &fakeNotificationRepo{}
	tokens := &fakeTokenRepo{}
	seedTokens(tokens, "u1", 12)
	transport := &fakeTransport{}

	d := newTestDispatcher(notifications, tokens, transport, 5)
	result := d.SendToRecipients(context.Background(), []string{"u1"}, "escalation", "t", "b", nil)

	if len(transport.chunks) != 3 {
		t.Fatalf("expected 3 chunks for 12 tokens at size 5, got %d", len(transport.chunks))
	}
	total := 0
	for _, chunk := range transport.chunks {
		if len(chunk) > 5 {
			t.Fatalf("chunk exceeds limit: %d", len(chunk))
		}
		total += len(chunk)
	}
	if total != 12 {
		t.Fatalf("chunks cover %d tokens, want 12", total)
	}
	if result.Sent != 12 {
		t.Fatalf("expected 12 sent, got %d", result.Sent)
	}
}

func TestSendToRecipientsPartialChunkFailure(t *testing.T) {
	notifications := &fakeNotificationRepo{}
	tokens := &fakeTokenRepo{}
	seedTokens(tokens, "u1", 15)
	transport := &fakeTransport{failChunks: map[int]bool{1: true}}

	d := newTestDispatcher(notifications, tokens, transport, 5)
	result := d.SendToRecipients(context.Background(), []string{"u1"}, "escalation", "t", "b", nil)

	if len(transport.chunks) != 3 {
		t.Fatalf("expected all 3 chunks attempted, got %d", len(transport.chunks))
	}
	if result.Sent != 10 {
		t.Fatalf("expected 10 sent from surviving chunks, got %d", result.Sent)
	}
	if result.Failed != 5 {
		t.Fatalf("expected failing chunk counted whole (5), got %d", result.Failed)
	}
}

func TestSendToRecipientsPrunesInvalidTokens(t *testing.T) {
	notifications := &fakeNotificationRepo{}
	tokens := &fakeTokenRepo{}
	values := seedTokens(tokens, "u1", 4)
	transport := &fakeTransport{invalidInCh: map[int][]string{0: {values[1], values[3]}}}

	d := newTestDispatcher(notifications, tokens, transport, 500)
	result := d.SendToRecipients(context.Background(), []string{"u1"}, "escalation", "t", "b", nil)

	if result.InvalidTokensRemoved != 2 {
		t.Fatalf("expected 2 invalid tokens removed, got %d", result.InvalidTokensRemoved)
	}
	remaining, _ := tokens.ListByOwners(context.Background(), []string{"u1"})
	if len(remaining) != 2 {
		t.Fatalf("expected 2 tokens left in store, got %d", len(remaining))
	}
	for _, token := range remaining {
		if token.Token == values[1] || token.Token == values[3] {
			t.Fatalf("invalid token %q still present", token.Token)
		}
	}
}

func TestSendToRecipientsPersistFailureDoesNotBlockPush(t *testing.T) {
	notifications := &fakeNotificationRepo{fail: true}
	tokens := &fakeTokenRepo{}
	seedTokens(tokens, "u1", 2)
	transport := &fakeTransport{}

	d := newTestDispatcher(notifications, tokens, transport, 500)
	result := d.SendToRecipients(context.Background(), []string{"u1"}, "escalation", "t", "b", nil)

	if result.Sent != 2 {
		t.Fatalf("push should proceed despite persistence failure, got %+v", result)
	}
}
