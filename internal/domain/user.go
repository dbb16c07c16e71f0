package domain

import "time"

// UserRole enumerates operator roles relevant to escalation routing.
type UserRole string

const (
	UserRoleAgent   UserRole = "AGENT"
	UserRoleManager UserRole = "MANAGER"
	UserRoleAdmin   UserRole = "ADMIN"
)

// User is the domain model for operators who receive escalations and
// in-app notifications.
type User struct {
	ID        string
	Name      string
	Email     string
	Role      UserRole
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
