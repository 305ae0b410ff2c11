package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/foodbridge-api/internal/domain/entity"
)

// OrderRepository defines the read side of order data used by receipt generation
type OrderRepository interface {
	// GetWithRelations loads an order with its donor, listing and NGO. Returns nil, nil when missing.
	GetWithRelations(ctx context.Context, id uuid.UUID) (*entity.Order, error)
	// FindEligible returns orders without a receipt created in [From, To), oldest first.
	FindEligible(ctx context.Context, filter *EligibleOrderFilter) ([]entity.Order, error)
}

// EligibleOrderFilter selects orders for a batch run
type EligibleOrderFilter struct {
	From    time.Time
	To      time.Time // exclusive
	DonorID *uuid.UUID
	Limit   int // 0 means no limit
}
