package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/foodbridge-api/internal/domain/entity"
	domainRepo "github.com/sangkips/foodbridge-api/internal/domain/repository"
	"gorm.io/gorm"
)

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) domainRepo.OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Scopes(DonorScope(ctx, "orders.donor_id")).
		Preload("Donor").
		Preload("DonorForm").
		Preload("NGO")
}

func (r *orderRepository) GetWithRelations(ctx context.Context, id uuid.UUID) (*entity.Order, error) {
	var order entity.Order
	err := r.withRelations(ctx).First(&order, "orders.id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindEligible(ctx context.Context, filter *domainRepo.EligibleOrderFilter) ([]entity.Order, error) {
	var orders []entity.Order

	query := r.withRelations(ctx).
		Where("orders.receipt_generated = ?", false).
		Where("orders.created_at >= ? AND orders.created_at < ?", filter.From, filter.To)

	if filter.DonorID != nil {
		query = query.Where("orders.donor_id = ?", *filter.DonorID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	err := query.Order("orders.created_at ASC, orders.id ASC").Find(&orders).Error
	return orders, err
}
