package organization

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
	return s.db.AutoMigrate(&Organization{})
}

func (s *Store) Create(ctx context.Context, o *Organization) error {
	if o.ID == "" {
		o.ID = shared.NewID("org_")
	}
	if o.Status == "" {
		o.Status = StatusActive
	}
	err := s.db.WithContext(ctx).Create(o).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrConflict
	}
	return err
}

func (s *Store) GetByID(ctx context.Context, id string) (*Organization, error) {
	var o Organization
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&o).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &o, err
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]*Organization, error) {
	var orgs []*Organization
	err := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Offset(offset).Find(&orgs).Error
	return orgs, err
}

func (s *Store) Update(ctx context.Context, o *Organization) error {
	return s.db.WithContext(ctx).Save(o).Error
}

func (s *Store) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&Organization{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
