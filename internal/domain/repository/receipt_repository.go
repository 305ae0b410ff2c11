package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sangkips/foodbridge-api/internal/domain/entity"
	"github.com/sangkips/foodbridge-api/internal/domain/enum"
	"github.com/sangkips/foodbridge-api/pkg/pagination"
)

// ErrReceiptExists is returned when an order already has a receipt row
var ErrReceiptExists = errors.New("receipt already issued for order")

// ReceiptRepository defines the interface for receipt data operations.
// Receipts are never updated or deleted.
type ReceiptRepository interface {
	GetByOrderID(ctx context.Context, orderID uuid.UUID) (*entity.Receipt, error)
	// IssueIndividual inserts the receipt and marks its order as receipted in one transaction.
	IssueIndividual(ctx context.Context, receipt *entity.Receipt) error
	// IssueBatch claims every order still without a receipt and inserts the receipts of the
	// claimed orders in one transaction. Orders claimed by someone else are returned as skipped.
	IssueBatch(ctx context.Context, receipts []entity.Receipt) (claimed []entity.Receipt, skipped []uuid.UUID, err error)
	List(ctx context.Context, params *ReceiptFilterParams) ([]entity.Receipt, int64, error)
}

// ReceiptFilterParams contains filtering parameters for receipt queries
type ReceiptFilterParams struct {
	Pagination *pagination.PaginationParams
	Type       *enum.ReceiptType
	BatchID    string
	OrderID    *uuid.UUID
}
