package calltype

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
	return s.db.AutoMigrate(&CallType{})
}

func (s *Store) Create(ctx context.Context, ct *CallType) error {
	if ct.ID == "" {
		ct.ID = shared.NewID("ct_")
	}
	err := s.db.WithContext(ctx).Create(ct).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrConflict
	}
	return err
}

func (s *Store) GetByID(ctx context.Context, id string) (*CallType, error) {
	var ct CallType
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&ct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &ct, err
}

func (s *Store) GetByCode(ctx context.Context, code string) (*CallType, error) {
	var ct CallType
	err := s.db.WithContext(ctx).Where("code = ?", code).First(&ct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &ct, err
}

// GetActiveByCode returns the call type only when it exists and is active;
// the analysis pipeline falls back to built-in templates otherwise.
func (s *Store) GetActiveByCode(ctx context.Context, code string) (*CallType, error) {
	var ct CallType
	err := s.db.WithContext(ctx).Where("code = ? AND active = ?", code, true).First(&ct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &ct, err
}

func (s *Store) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*CallType, error) {
	var types []*CallType
	q := s.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	err := q.Order("code ASC").Limit(limit).Offset(offset).Find(&types).Error
	return types, err
}

func (s *Store) Update(ctx context.Context, ct *CallType) error {
	return s.db.WithContext(ctx).Save(ct).Error
}

func (s *Store) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&CallType{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
