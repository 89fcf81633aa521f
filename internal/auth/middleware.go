package auth

import (
	"context"

	"github.com/calliq/insights-backend/internal/shared"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	claimsKey contextKey = "jwt_claims"
	orgKey    contextKey = "org_id"
)

const APIKeyHeader = "x-api-key"

// APIKeyValidator resolves an x-api-key secret to the owning organization.
type APIKeyValidator interface {
	ResolveOrganization(ctx context.Context, secret string) (orgID string, err error)
}

type Middleware struct {
	jwt     *JWTService
	apiKeys APIKeyValidator
}

func NewMiddleware(jwtService *JWTService, apiKeys APIKeyValidator) *Middleware {
	return &Middleware{
		jwt:     jwtService,
		apiKeys: apiKeys,
	}
}

// Authenticate requires a valid bearer token and stores the claims on the
// request context.
func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return shared.Unauthorized("missing_token", "authorization header required")
		}

		claims, err := m.jwt.Validate(authHeader)
		if err != nil {
			if err == ErrExpiredToken {
				return shared.Unauthorized("token_expired", "token has expired")
			}
			return shared.Unauthorized("invalid_token", "invalid or malformed token")
		}

		ctx := context.WithValue(c.Request().Context(), claimsKey, claims)
		ctx = context.WithValue(ctx, orgKey, claims.OrganizationID)
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}

// TenantContext resolves the acting organization for a request. Machine
// clients present an x-api-key header; interactive sessions carry it in their
// JWT claims. Master admins may target any organization via the
// organization_id query parameter.
func (m *Middleware) TenantContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if secret := c.Request().Header.Get(APIKeyHeader); secret != "" {
			orgID, err := m.apiKeys.ResolveOrganization(c.Request().Context(), secret)
			if err != nil {
				return shared.Unauthorized("invalid_api_key", "invalid or expired API key")
			}
			ctx := context.WithValue(c.Request().Context(), orgKey, orgID)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return shared.Unauthorized("missing_credentials", "x-api-key header or bearer token required")
		}

		claims, err := m.jwt.Validate(authHeader)
		if err != nil {
			if err == ErrExpiredToken {
				return shared.Unauthorized("token_expired", "token has expired")
			}
			return shared.Unauthorized("invalid_token", "invalid or malformed token")
		}

		orgID := claims.OrganizationID
		if override := c.QueryParam("organization_id"); override != "" {
			if !claims.IsMasterAdmin() {
				return shared.Forbidden("org_scope", "cannot act on another organization")
			}
			orgID = override
		}
		if orgID == "" {
			return shared.Forbidden("no_organization", "user has no organization")
		}

		ctx := context.WithValue(c.Request().Context(), claimsKey, claims)
		ctx = context.WithValue(ctx, orgKey, orgID)
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}

// RequireMasterAdmin guards master-admin-only routes; it must run after
// Authenticate.
func (m *Middleware) RequireMasterAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims := GetClaims(c)
		if claims == nil {
			return shared.Unauthorized("auth_required", "authentication required")
		}
		if !claims.IsMasterAdmin() {
			return shared.Forbidden("master_admin_required", "master admin access required")
		}
		return next(c)
	}
}

func GetClaims(c echo.Context) *Claims {
	claims, ok := c.Request().Context().Value(claimsKey).(*Claims)
	if !ok {
		return nil
	}
	return claims
}

// GetOrgID returns the organization the request acts on.
func GetOrgID(c echo.Context) (string, error) {
	orgID, ok := c.Request().Context().Value(orgKey).(string)
	if !ok || orgID == "" {
		return "", shared.Forbidden("no_organization", "no organization in request context")
	}
	return orgID, nil
}

func RequireAuth(c echo.Context) (string, error) {
	claims := GetClaims(c)
	if claims == nil {
		return "", shared.Unauthorized("auth_required", "authentication required")
	}
	return claims.UserID, nil
}

func SetClaimsForTest(c echo.Context, claims *Claims) {
	ctx := context.WithValue(c.Request().Context(), claimsKey, claims)
	if claims != nil {
		ctx = context.WithValue(ctx, orgKey, claims.OrganizationID)
	}
	c.SetRequest(c.Request().WithContext(ctx))
}

func SetOrgForTest(c echo.Context, orgID string) {
	ctx := context.WithValue(c.Request().Context(), orgKey, orgID)
	c.SetRequest(c.Request().WithContext(ctx))
}
