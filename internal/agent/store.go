package agent

import (
	"context"
	"errors"
	"strings"

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
	return s.db.AutoMigrate(&Agent{})
}

func (s *Store) Create(ctx context.Context, a *Agent) error {
	if a.ID == "" {
		a.ID = shared.NewID("agent_")
	}
	if a.Status == "" {
		a.Status = StatusActive
	}
	return s.db.WithContext(ctx).Create(a).Error
}

func (s *Store) GetByID(ctx context.Context, orgID, id string) (*Agent, error) {
	var a Agent
	err := s.db.WithContext(ctx).Where("id = ? AND organization_id = ?", id, orgID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &a, err
}

func (s *Store) GetByExternalID(ctx context.Context, orgID, externalID string) (*Agent, error) {
	var a Agent
	err := s.db.WithContext(ctx).Where("organization_id = ? AND external_id = ?", orgID, externalID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &a, err
}

// FindByName matches an agent by display name, case-insensitively. Webhook
// payloads and backfills only carry names, not ids.
func (s *Store) FindByName(ctx context.Context, orgID, name string) (*Agent, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.ErrNotFound
	}

	agents, err := s.ListByOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	for _, a := range agents {
		if strings.EqualFold(a.FullName(), name) || strings.EqualFold(a.FirstName, name) {
			return a, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (s *Store) ListByOrganization(ctx context.Context, orgID string) ([]*Agent, error) {
	var agents []*Agent
	err := s.db.WithContext(ctx).Where("organization_id = ?", orgID).
		Order("first_name ASC").Find(&agents).Error
	return agents, err
}

func (s *Store) Update(ctx context.Context, a *Agent) error {
	return s.db.WithContext(ctx).Save(a).Error
}

// ReplaceMetrics overwrites the whole performance-metrics document in one
// column update. Concurrent aggregation runs race benignly: last writer wins.
func (s *Store) ReplaceMetrics(ctx context.Context, orgID, id string, metrics PerformanceMetrics) error {
	result := s.db.WithContext(ctx).Model(&Agent{}).
		Where("id = ? AND organization_id = ?", id, orgID).
		Update("performance_metrics", metrics)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, orgID, id string) error {
	result := s.db.WithContext(ctx).Delete(&Agent{}, "id = ? AND organization_id = ?", id, orgID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
