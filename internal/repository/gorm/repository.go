package gormrepository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/karndiy/gold-vertical-panel/internal/models"
	"github.com/karndiy/gold-vertical-panel/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

var _ repository.Repository = (*Store)(nil)

func identity(sequenceID, timestamp string) map[string]any {
	return map[string]any{"sequence_id": sequenceID, "timestamp": timestamp}
}

func (s *Store) IsProcessed(ctx context.Context, sequenceID, timestamp string) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.ProcessedUpdate{}).
		Where(identity(sequenceID, timestamp)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) MarkProcessed(ctx context.Context, sequenceID, timestamp string) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	item := &models.ProcessedUpdate{
		SequenceID:  sequenceID,
		Timestamp:   timestamp,
		ProcessedAt: nowUTC(),
	}
	// Uniqueness is enforced by idx_processed_updates_key (sequence_id, timestamp).
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sequence_id"}, {Name: "timestamp"}},
		DoNothing: true,
	}).Create(item)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) ListProcessed(ctx context.Context, params repository.ListProcessedParams) ([]models.ProcessedUpdate, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.ProcessedUpdate
	err := s.db.WithContext(ctx).
		Order("id desc").
		Limit(normalizeLimit(params.Limit, 50)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) DeleteProcessed(ctx context.Context, sequenceID, timestamp string) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where(identity(sequenceID, timestamp)).
		Delete(&models.ProcessedUpdate{})
	return res.RowsAffected, res.Error
}

func (s *Store) InsertWorkflowRun(ctx context.Context, item *models.WorkflowRun) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListWorkflowRuns(ctx context.Context, params repository.ListWorkflowRunsParams) ([]models.WorkflowRun, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).Model(&models.WorkflowRun{})
	if params.State != nil && strings.TrimSpace(*params.State) != "" {
		query = query.Where("state = ?", strings.ToUpper(strings.TrimSpace(*params.State)))
	}
	var items []models.WorkflowRun
	err := query.
		Order("started_at desc").
		Order("id desc").
		Limit(normalizeLimit(params.Limit, 50)).
		Offset(normalizeOffset(params.Offset)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
