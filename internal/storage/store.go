package storage

import (
	"context"

	"hpfold/internal/model"
)

// Store persists summaries of finished runs.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, record model.RunRecord) error
	GetRun(ctx context.Context, runID string) (model.RunRecord, bool, error)
	// ListRuns returns records newest first; limit <= 0 means all.
	ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error)
	DeleteRun(ctx context.Context, runID string) error
}
