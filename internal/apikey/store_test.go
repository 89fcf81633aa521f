package apikey

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/calliq/insights-backend/internal/shared"
)

func setupStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	store := NewStore(db)
	if err := store.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func TestCreateReturnsSecretOnce(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	key := &APIKey{OrganizationID: "org_1", Name: "ingest"}
	secret, err := store.Create(ctx, key)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !strings.HasPrefix(secret, "ck-") {
		t.Errorf("secret = %q, want ck- prefix", secret)
	}
	if key.SecretHash == secret {
		t.Error("secret stored in plaintext")
	}
	if key.Prefix != secret[:prefixLength] {
		t.Errorf("Prefix = %q, want first %d chars of secret", key.Prefix, prefixLength)
	}
}

func TestValidate(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	key := &APIKey{OrganizationID: "org_1", Name: "ingest"}
	secret, err := store.Create(ctx, key)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := store.Validate(ctx, secret)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.OrganizationID != "org_1" {
		t.Errorf("OrganizationID = %q, want org_1", got.OrganizationID)
	}

	tests := []struct {
		name   string
		secret string
		want   error
	}{
		{"unknown secret", "ck-" + strings.Repeat("0", 64), shared.ErrNotFound},
		{"too short", "ck-1", shared.ErrNotFound},
		{"right prefix wrong tail", secret[:prefixLength] + strings.Repeat("f", 52), shared.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Validate(ctx, tt.secret); !errors.Is(err, tt.want) {
				t.Errorf("Validate error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestValidateExpiredKey(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	key := &APIKey{OrganizationID: "org_1", Name: "old", ExpiresAt: &past}
	secret, err := store.Create(ctx, key)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := store.Validate(ctx, secret); !errors.Is(err, shared.ErrUnauthorized) {
		t.Errorf("Validate error = %v, want ErrUnauthorized", err)
	}
}

func TestDeleteScopedToOrganization(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	key := &APIKey{OrganizationID: "org_1", Name: "ingest"}
	if _, err := store.Create(ctx, key); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := store.Delete(ctx, "org_2", key.ID); !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("cross-org delete error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "org_1", key.ID); err != nil {
		t.Errorf("Delete: %v", err)
	}
}

func TestValidatorResolvesWithoutCache(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	key := &APIKey{OrganizationID: "org_1", Name: "ingest"}
	secret, err := store.Create(ctx, key)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	v := NewValidator(store, nil)
	orgID, err := v.ResolveOrganization(ctx, secret)
	if err != nil {
		t.Fatalf("ResolveOrganization: %v", err)
	}
	if orgID != "org_1" {
		t.Errorf("orgID = %q, want org_1", orgID)
	}

	if _, err := v.ResolveOrganization(ctx, "ck-bogus-secret"); !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("bogus secret error = %v, want ErrNotFound", err)
	}
}
