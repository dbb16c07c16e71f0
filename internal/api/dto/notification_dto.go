package dto

import "time"

// NotificationResponse is one feed entry.
type NotificationResponse struct {
	ID        string         `json:"id"`
	Feature   string         `json:"feature"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Data      map[string]any `json:"data,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
}

// MarkReadRequest marks a single notification or the whole feed read.
type MarkReadRequest struct {
	ID  string `json:"id,omitempty"`
	All bool   `json:"all,omitempty"`
}
