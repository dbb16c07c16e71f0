package domain

import "time"

// PushToken is a registered push-delivery token. OwnerID is nil for
// device-only tokens registered before the caller authenticated.
type PushToken struct {
	Token     string
	OwnerID   *string
	Device    string
	CreatedAt time.Time
	UpdatedAt time.Time
}
