package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/calliq/insights-backend/internal/shared"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type stubKeyValidator struct {
	orgID string
	err   error
}

func (s *stubKeyValidator) ResolveOrganization(_ context.Context, _ string) (string, error) {
	return s.orgID, s.err
}

func newTestContext(headers map[string]string, query string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestJWTService_SignValidate(t *testing.T) {
	svc := NewJWTService([]byte("test-key"))

	token, err := svc.Sign("user_1", "a@b.com", "Ana", "org_1", shared.RoleAdmin)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	claims, err := svc.Validate("Bearer " + token)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if claims.UserID != "user_1" {
		t.Errorf("expected user_1, got %s", claims.UserID)
	}
	if claims.OrganizationID != "org_1" {
		t.Errorf("expected org_1, got %s", claims.OrganizationID)
	}
	if claims.Role != shared.RoleAdmin {
		t.Errorf("expected admin role, got %s", claims.Role)
	}
}

func TestJWTService_Validate_Errors(t *testing.T) {
	svc := NewJWTService([]byte("test-key"))

	expired := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
		UserID: "user_1",
	}
	expiredToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, expired).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	otherKey, err := NewJWTService([]byte("other-key")).Sign("user_1", "", "", "org_1", shared.RoleUser)
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"empty header", "", ErrInvalidToken},
		{"garbage token", "Bearer not-a-token", ErrInvalidToken},
		{"wrong key", "Bearer " + otherKey, ErrInvalidToken},
		{"expired", "Bearer " + expiredToken, ErrExpiredToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Validate(tt.header)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMiddleware_Authenticate(t *testing.T) {
	svc := NewJWTService([]byte("test-key"))
	m := NewMiddleware(svc, &stubKeyValidator{})

	token, _ := svc.Sign("user_1", "a@b.com", "Ana", "org_1", shared.RoleUser)

	next := func(c echo.Context) error {
		claims := GetClaims(c)
		if claims == nil {
			t.Fatal("claims missing from context")
		}
		return c.NoContent(http.StatusOK)
	}

	c, rec := newTestContext(map[string]string{"Authorization": "Bearer " + token}, "")
	if err := m.Authenticate(next)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	c, _ = newTestContext(nil, "")
	err := m.Authenticate(next)(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestMiddleware_TenantContext(t *testing.T) {
	svc := NewJWTService([]byte("test-key"))
	userToken, _ := svc.Sign("user_1", "", "", "org_1", shared.RoleUser)
	adminToken, _ := svc.Sign("user_2", "", "", "org_1", shared.RoleMasterAdmin)

	tests := []struct {
		name       string
		apiKeys    APIKeyValidator
		headers    map[string]string
		query      string
		wantOrg    string
		wantStatus int
	}{
		{
			name:    "api key resolves tenant",
			apiKeys: &stubKeyValidator{orgID: "org_api"},
			headers: map[string]string{APIKeyHeader: "sk-calliq-abc"},
			wantOrg: "org_api",
		},
		{
			name:       "bad api key rejected",
			apiKeys:    &stubKeyValidator{err: shared.ErrNotFound},
			headers:    map[string]string{APIKeyHeader: "sk-calliq-bad"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:    "jwt org used",
			apiKeys: &stubKeyValidator{},
			headers: map[string]string{"Authorization": "Bearer " + userToken},
			wantOrg: "org_1",
		},
		{
			name:       "non-admin cannot override org",
			apiKeys:    &stubKeyValidator{},
			headers:    map[string]string{"Authorization": "Bearer " + userToken},
			query:      "organization_id=org_other",
			wantStatus: http.StatusForbidden,
		},
		{
			name:    "master admin may override org",
			apiKeys: &stubKeyValidator{},
			headers: map[string]string{"Authorization": "Bearer " + adminToken},
			query:   "organization_id=org_other",
			wantOrg: "org_other",
		},
		{
			name:       "no credentials rejected",
			apiKeys:    &stubKeyValidator{},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMiddleware(svc, tt.apiKeys)

			var gotOrg string
			next := func(c echo.Context) error {
				orgID, err := GetOrgID(c)
				if err != nil {
					return err
				}
				gotOrg = orgID
				return c.NoContent(http.StatusOK)
			}

			c, _ := newTestContext(tt.headers, tt.query)
			err := m.TenantContext(next)(c)

			if tt.wantStatus != 0 {
				httpErr, ok := err.(*echo.HTTPError)
				if !ok || httpErr.Code != tt.wantStatus {
					t.Fatalf("expected status %d, got %v", tt.wantStatus, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if gotOrg != tt.wantOrg {
				t.Errorf("expected org %s, got %s", tt.wantOrg, gotOrg)
			}
		})
	}
}
