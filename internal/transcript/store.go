package transcript

import (
	"context"
	"errors"
	"time"

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
	return s.db.AutoMigrate(&Transcript{})
}

func (s *Store) Create(ctx context.Context, t *Transcript) error {
	if t.ID == "" {
		t.ID = shared.NewID("tr_")
	}
	return s.db.WithContext(ctx).Create(t).Error
}

func (s *Store) GetByID(ctx context.Context, orgID, id string) (*Transcript, error) {
	var t Transcript
	err := s.db.WithContext(ctx).Where("id = ? AND organization_id = ?", id, orgID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	return &t, err
}

func (s *Store) ListByOrganization(ctx context.Context, orgID string, limit, offset int) ([]*Transcript, error) {
	var transcripts []*Transcript
	err := s.db.WithContext(ctx).Where("organization_id = ?", orgID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&transcripts).Error
	return transcripts, err
}

// ListByAgent returns every transcript linked to the agent, optionally
// restricted to a created-at window. The aggregator feeds on this.
func (s *Store) ListByAgent(ctx context.Context, orgID, agentID string, start, end *time.Time) ([]*Transcript, error) {
	var transcripts []*Transcript
	q := s.db.WithContext(ctx).Where("organization_id = ? AND agent_id = ?", orgID, agentID)
	if start != nil {
		q = q.Where("created_at >= ?", *start)
	}
	if end != nil {
		q = q.Where("created_at <= ?", *end)
	}
	err := q.Order("created_at ASC").Find(&transcripts).Error
	return transcripts, err
}

// ListUnlinked returns transcripts with no agent link but an agent name in
// call details; the backfill tool repairs these.
func (s *Store) ListUnlinked(ctx context.Context, orgID string) ([]*Transcript, error) {
	var transcripts []*Transcript
	err := s.db.WithContext(ctx).
		Where("organization_id = ? AND agent_id IS NULL", orgID).
		Order("created_at ASC").Find(&transcripts).Error
	return transcripts, err
}

// LinkAgent backfills the agent reference on an existing transcript. This is
// the only mutation allowed after creation.
func (s *Store) LinkAgent(ctx context.Context, id, agentID string) error {
	result := s.db.WithContext(ctx).Model(&Transcript{}).Where("id = ?", id).Update("agent_id", agentID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, orgID, id string) error {
	result := s.db.WithContext(ctx).Delete(&Transcript{}, "id = ? AND organization_id = ?", id, orgID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (s *Store) CountByOrganization(ctx context.Context, orgID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Transcript{}).Where("organization_id = ?", orgID).Count(&count).Error
	return count, err
}
