package user

import (
	"context"
	"errors"

	"github.com/calliq/insights-backend/internal/shared"
	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate() error {
	return s.db.AutoMigrate(&User{})
}

func (s *Store) Create(ctx context.Context, u *User) error {
	if u.ID == "" {
		u.ID = shared.NewID("user_")
	}
	if u.Role == "" {
		u.Role = shared.RoleUser
	}
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *Store) GetByID(ctx context.Context, id string) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &u, err
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &u, err
}

func (s *Store) ListByOrganization(ctx context.Context, orgID string, limit, offset int) ([]*User, error) {
	var users []*User
	err := s.db.WithContext(ctx).Where("organization_id = ?", orgID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error
	return users, err
}

func (s *Store) Update(ctx context.Context, u *User) error {
	return s.db.WithContext(ctx).Save(u).Error
}

func (s *Store) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&User{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// LinkProvider attaches an OAuth identity to an existing account. Sign-in via
// a provider never creates a user on its own: accounts are provisioned per
// organization first, then matched by email.
func (s *Store) LinkProvider(ctx context.Context, provider, sub, email string) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).Where("provider = ? AND provider_sub = ?", provider, sub).First(&u).Error
	if err == nil {
		return &u, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	existing, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	existing.Provider = provider
	existing.ProviderSub = sub
	if err := s.db.WithContext(ctx).Save(existing).Error; err != nil {
		return nil, err
	}
	return existing, nil
}
