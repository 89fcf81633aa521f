package apikey

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/calliq/insights-backend/internal/shared"
	"gorm.io/gorm"
)

const prefixLength = 12

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&APIKey{})
}

func (s *Store) Create(ctx context.Context, key *APIKey) (secret string, err error) {
	if key.ID == "" {
		key.ID = shared.NewID("key_")
	}

	secret, err = generateSecret()
	if err != nil {
		return "", err
	}

	key.Prefix = secret[:prefixLength]
	key.SecretHash = hashSecret(secret)

	if err := s.db.WithContext(ctx).Create(key).Error; err != nil {
		return "", err
	}
	return secret, nil
}

func (s *Store) GetByID(ctx context.Context, orgID, id string) (*APIKey, error) {
	var key APIKey
	err := s.db.WithContext(ctx).Where("id = ? AND organization_id = ?", id, orgID).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

func (s *Store) ListByOrganization(ctx context.Context, orgID string) ([]*APIKey, error) {
	var keys []*APIKey
	err := s.db.WithContext(ctx).Where("organization_id = ?", orgID).Order("created_at DESC").Find(&keys).Error
	return keys, err
}

// Validate checks a presented secret against the stored hash and returns the
// matching key. Expired keys fail with ErrUnauthorized so callers can tell
// "never existed" from "no longer valid".
func (s *Store) Validate(ctx context.Context, secret string) (*APIKey, error) {
	if len(secret) < prefixLength {
		return nil, shared.ErrNotFound
	}

	var key APIKey
	err := s.db.WithContext(ctx).Where("prefix = ?", secret[:prefixLength]).First(&key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if key.SecretHash != hashSecret(secret) {
		return nil, shared.ErrNotFound
	}

	if key.IsExpired() {
		return nil, shared.ErrUnauthorized
	}

	go s.updateLastUsed(key.ID)

	return &key, nil
}

func (s *Store) Delete(ctx context.Context, orgID, id string) error {
	result := s.db.WithContext(ctx).Delete(&APIKey{}, "id = ? AND organization_id = ?", id, orgID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteByOrganization(ctx context.Context, orgID string) error {
	return s.db.WithContext(ctx).Delete(&APIKey{}, "organization_id = ?", orgID).Error
}

func (s *Store) updateLastUsed(id string) {
	s.db.Model(&APIKey{}).Where("id = ?", id).Update("last_used_at", time.Now())
}

func generateSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "ck-" + hex.EncodeToString(b), nil
}

func hashSecret(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])
}
