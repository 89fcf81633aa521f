package auth

import (
	"github.com/calliq/insights-backend/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	jwt.RegisteredClaims
	UserID         string      `json:"sub"`
	Email          string      `json:"email,omitempty"`
	Name           string      `json:"name,omitempty"`
	OrganizationID string      `json:"org,omitempty"`
	Role           shared.Role `json:"role,omitempty"`
}

func (c *Claims) IsMasterAdmin() bool {
	return c.Role == shared.RoleMasterAdmin
}
