package user

import (
	"time"

	"github.com/calliq/insights-backend/internal/shared"
)

type User struct {
	ID             string      `gorm:"primaryKey" json:"id"`
	Email          string      `gorm:"not null;uniqueIndex" json:"email"`
	PasswordHash   string      `json:"-"`
	Name           string      `json:"name,omitempty"`
	Role           shared.Role `gorm:"default:'user'" json:"role"`
	OrganizationID string      `gorm:"index" json:"organization_id,omitempty"`
	Provider       string      `json:"provider,omitempty"`
	ProviderSub    string      `gorm:"index" json:"-"`
	Active         bool        `gorm:"default:true" json:"active"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

func (u *User) IsMasterAdmin() bool {
	return u.Role == shared.RoleMasterAdmin
}
