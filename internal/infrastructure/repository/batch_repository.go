package repository

import (
	"context"
	"errors"

	"github.com/sangkips/foodbridge-api/internal/domain/entity"
	domainRepo "github.com/sangkips/foodbridge-api/internal/domain/repository"
	"gorm.io/gorm"
)

type batchRunRepository struct {
	db *gorm.DB
}

// NewBatchRunRepository creates a new batch run repository
func NewBatchRunRepository(db *gorm.DB) domainRepo.BatchRunRepository {
	return &batchRunRepository{db: db}
}

func (r *batchRunRepository) Create(ctx context.Context, run *entity.BatchRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *batchRunRepository) GetByBatchID(ctx context.Context, batchID string) (*entity.BatchRun, error) {
	var run entity.BatchRun
	err := r.db.WithContext(ctx).
		Scopes(DonorScope(ctx, "donor_id")).
		First(&run, "batch_id = ?", batchID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}
