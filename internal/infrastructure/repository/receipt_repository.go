package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sangkips/foodbridge-api/internal/domain/entity"
	domainRepo "github.com/sangkips/foodbridge-api/internal/domain/repository"
	"gorm.io/gorm"
)

const receiptInsertBatchSize = 100

type receiptRepository struct {
	db *gorm.DB
}

// NewReceiptRepository creates a new receipt repository
func NewReceiptRepository(db *gorm.DB) domainRepo.ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*entity.Receipt, error) {
	var receipt entity.Receipt
	err := r.db.WithContext(ctx).First(&receipt, "order_id = ?", orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

func (r *receiptRepository) IssueIndividual(ctx context.Context, receipt *entity.Receipt) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&entity.Receipt{}).Where("order_id = ?", receipt.OrderID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return domainRepo.ErrReceiptExists
		}

		if err := tx.Create(receipt).Error; err != nil {
			return err
		}

		return tx.Model(&entity.Order{}).
			Where("id = ?", receipt.OrderID).
			Updates(map[string]interface{}{
				"receipt_generated": true,
				"receipt_number":    receipt.ReceiptNumber,
			}).Error
	})
	if err == nil || errors.Is(err, domainRepo.ErrReceiptExists) {
		return err
	}

	// A concurrent issuer may have won the unique index on order_id
	if found, lookupErr := r.GetByOrderID(ctx, receipt.OrderID); lookupErr == nil && found != nil {
		return domainRepo.ErrReceiptExists
	}
	return err
}

func (r *receiptRepository) IssueBatch(ctx context.Context, receipts []entity.Receipt) ([]entity.Receipt, []uuid.UUID, error) {
	var claimed []entity.Receipt
	var skipped []uuid.UUID

	orderIDs := make([]uuid.UUID, 0, len(receipts))
	for _, receipt := range receipts {
		orderIDs = append(orderIDs, receipt.OrderID)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claimed = claimed[:0]
		skipped = skipped[:0]

		// orders whose receipt row exists but whose flag was never set
		var receipted []entity.Receipt
		if len(orderIDs) > 0 {
			if err := tx.Select("order_id", "receipt_number").
				Where("order_id IN ?", orderIDs).
				Find(&receipted).Error; err != nil {
				return fmt.Errorf("find existing receipts: %w", err)
			}
		}
		existing := make(map[uuid.UUID]bool, len(receipted))
		for _, rc := range receipted {
			existing[rc.OrderID] = true
			if err := tx.Model(&entity.Order{}).
				Where("id = ? AND receipt_generated = ?", rc.OrderID, false).
				Updates(map[string]interface{}{
					"receipt_generated": true,
					"receipt_number":    rc.ReceiptNumber,
				}).Error; err != nil {
				return fmt.Errorf("repair order %s: %w", rc.OrderID, err)
			}
		}

		for _, receipt := range receipts {
			if existing[receipt.OrderID] {
				skipped = append(skipped, receipt.OrderID)
				continue
			}
			res := tx.Model(&entity.Order{}).
				Where("id = ? AND receipt_generated = ?", receipt.OrderID, false).
				Updates(map[string]interface{}{
					"receipt_generated": true,
					"receipt_number":    receipt.ReceiptNumber,
					"batch_id":          receipt.BatchID,
				})
			if res.Error != nil {
				return fmt.Errorf("claim order %s: %w", receipt.OrderID, res.Error)
			}
			if res.RowsAffected != 1 {
				skipped = append(skipped, receipt.OrderID)
				continue
			}
			claimed = append(claimed, receipt)
		}

		if len(claimed) == 0 {
			return nil
		}
		return tx.CreateInBatches(&claimed, receiptInsertBatchSize).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return claimed, skipped, nil
}

func (r *receiptRepository) List(ctx context.Context, params *domainRepo.ReceiptFilterParams) ([]entity.Receipt, int64, error) {
	var receipts []entity.Receipt
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Receipt{}).Scopes(DonorScope(ctx, "donor_id"))

	if params.Type != nil {
		query = query.Where("receipt_type = ?", *params.Type)
	}

	if params.BatchID != "" {
		query = query.Where("batch_id = ?", params.BatchID)
	}

	if params.OrderID != nil {
		query = query.Where("order_id = ?", *params.OrderID)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Pagination.Validate()
	err := query.Offset(params.Pagination.Offset()).Limit(params.Pagination.PerPage).
		Order("issued_at DESC, receipt_number ASC").
		Find(&receipts).Error

	return receipts, total, err
}
