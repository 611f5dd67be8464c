package repository

import (
	"context"

	"github.com/karndiy/gold-vertical-panel/internal/models"
)

// LedgerRepository stores the identities of snapshots that were already
// published.
type LedgerRepository interface {
	IsProcessed(ctx context.Context, sequenceID, timestamp string) (bool, error)
	// MarkProcessed reports inserted=false when the pair was already present.
	MarkProcessed(ctx context.Context, sequenceID, timestamp string) (inserted bool, err error)
	ListProcessed(ctx context.Context, params ListProcessedParams) ([]models.ProcessedUpdate, error)
	DeleteProcessed(ctx context.Context, sequenceID, timestamp string) (int64, error)
}

// RunRepository keeps the outcome of each workflow run.
type RunRepository interface {
	InsertWorkflowRun(ctx context.Context, item *models.WorkflowRun) error
	ListWorkflowRuns(ctx context.Context, params ListWorkflowRunsParams) ([]models.WorkflowRun, error)
}

type Repository interface {
	LedgerRepository
	RunRepository
}

type ListProcessedParams struct {
	Limit  int
	Offset int
}

type ListWorkflowRunsParams struct {
	Limit  int
	Offset int
	State  *string
}
