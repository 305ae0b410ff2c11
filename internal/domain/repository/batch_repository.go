package repository

import (
	"context"

	"github.com/sangkips/foodbridge-api/internal/domain/entity"
)

// BatchRunRepository stores batch run summaries
type BatchRunRepository interface {
	Create(ctx context.Context, run *entity.BatchRun) error
	GetByBatchID(ctx context.Context, batchID string) (*entity.BatchRun, error)
}
