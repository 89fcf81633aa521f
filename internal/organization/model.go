package organization

import "time"

type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Organization is the tenant boundary. Every agent, transcript, call type
// assignment, and API key belongs to exactly one organization.
type Organization struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"not null;uniqueIndex" json:"name"`
	ContactEmail string    `json:"contact_email,omitempty"`
	Status       Status    `gorm:"default:'active'" json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (o *Organization) IsActive() bool {
	return o.Status == StatusActive
}
