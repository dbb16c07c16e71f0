package domain

import "time"

// Notification is a persisted per-recipient in-app notification.
// ReadAt stays nil until the recipient marks it read.
type Notification struct {
	ID          string
	RecipientID string
	Feature     string
	Title       string
	Body        string
	Data        map[string]any
	CreatedAt   time.Time
	ReadAt      *time.Time
}
