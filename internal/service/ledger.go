package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/karndiy/gold-vertical-panel/internal/models"
	"github.com/karndiy/gold-vertical-panel/internal/repository"
)

// LedgerService is the dedup ledger as the workflow sees it: a duplicate
// insert is a logged no-op, not an error.
type LedgerService struct {
	Repo   repository.LedgerRepository
	Logger *zap.Logger
}

func (s *LedgerService) IsProcessed(ctx context.Context, sequenceID, timestamp string) (bool, error) {
	if s == nil || s.Repo == nil {
		return false, nil
	}
	return s.Repo.IsProcessed(ctx, sequenceID, timestamp)
}

func (s *LedgerService) MarkProcessed(ctx context.Context, sequenceID, timestamp string) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	inserted, err := s.Repo.MarkProcessed(ctx, sequenceID, timestamp)
	if err != nil {
		return err
	}
	if !inserted && s.Logger != nil {
		s.Logger.Info("snapshot already in ledger",
			zap.String("sequence_id", sequenceID),
			zap.String("timestamp", timestamp),
		)
	}
	return nil
}

func (s *LedgerService) List(ctx context.Context, limit int) ([]models.ProcessedUpdate, error) {
	if s == nil || s.Repo == nil {
		return nil, nil
	}
	return s.Repo.ListProcessed(ctx, repository.ListProcessedParams{Limit: limit})
}

// Reset removes one entry so the snapshot is published again on the next
// run. It reports how many rows were removed.
func (s *LedgerService) Reset(ctx context.Context, sequenceID, timestamp string) (int64, error) {
	if s == nil || s.Repo == nil {
		return 0, nil
	}
	n, err := s.Repo.DeleteProcessed(ctx, strings.TrimSpace(sequenceID), strings.TrimSpace(timestamp))
	if err != nil {
		return 0, err
	}
	if s.Logger != nil {
		s.Logger.Info("ledger entry reset",
			zap.String("sequence_id", sequenceID),
			zap.String("timestamp", timestamp),
			zap.Int64("removed", n),
		)
	}
	return n, nil
}
