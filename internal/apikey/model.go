package apikey

import "time"

// APIKey grants programmatic access scoped to one organization. The secret
// is shown once at creation; only its hash and routing prefix persist.
type APIKey struct {
	ID             string     `gorm:"primaryKey" json:"id"`
	OrganizationID string     `gorm:"not null;index" json:"organization_id"`
	Name           string     `gorm:"not null" json:"name"`
	Prefix         string     `gorm:"uniqueIndex;not null" json:"prefix"`
	SecretHash     string     `gorm:"not null" json:"-"`
	LastUsedAt     *time.Time `json:"last_used_at,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (k *APIKey) IsExpired() bool {
	if k.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*k.ExpiresAt)
}
