package notify

import (
	"context"

	"firebase.google.com/go/v4/messaging"
	"github.com/appleboy/go-fcm"
)

// Message is a single logical push notification.
type Message struct {
	Title string
	Body  string
	Data  map[string]string
}

// ChunkReceipt reports per-token outcomes for one delivered chunk.
type ChunkReceipt struct {
	Sent          int
	Failed        int
	InvalidTokens []string
}

// PushTransport delivers one message to a bounded set of tokens. Token
// lists handed to SendChunk never exceed the provider's per-request
// maximum; chunking is the dispatcher's job.
type PushTransport interface {
	SendChunk(ctx context.Context, tokens []string, msg Message) (ChunkReceipt, error)
}

// FCMTransport sends through Firebase Cloud Messaging.
type FCMTransport struct {
	client *fcm.Client
}

// NewFCMTransport builds the transport from a service-account
// credentials file.
func NewFCMTransport(ctx context.Context, credentialsFile string) (*FCMTransport, error) {
	client, err := fcm.NewClient(ctx, fcm.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, err
	}
	return &FCMTransport{client: client}, nil
}

// SendChunk delivers msg as one multicast request and classifies
// per-token failures. Tokens the provider reports as unregistered,
// invalid, or unknown are returned for pruning.
func (t *FCMTransport) SendChunk(ctx context.Context, tokens []string, msg Message) (ChunkReceipt, error) {
	resp, err := t.client.SendMulticast(ctx, &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: msg.Title,
			Body:  msg.Body,
		},
		Data: msg.Data,
	})
	if err != nil {
		return ChunkReceipt{}, err
	}

	receipt := ChunkReceipt{Sent: resp.SuccessCount, Failed: resp.FailureCount}
	for i, r := range resp.Responses {
		if r.Success || r.Error == nil {
			continue
		}
		if messaging.IsUnregistered(r.Error) || messaging.IsInvalidArgument(r.Error) {
			receipt.InvalidTokens = append(receipt.InvalidTokens, tokens[i])
		}
	}
	return receipt, nil
}
