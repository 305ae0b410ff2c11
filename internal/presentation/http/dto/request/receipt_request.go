package request

import (
	"github.com/google/uuid"
	"github.com/sangkips/foodbridge-api/internal/domain/enum"
	"github.com/sangkips/foodbridge-api/internal/domain/repository"
	"github.com/sangkips/foodbridge-api/pkg/apperror"
	"github.com/sangkips/foodbridge-api/pkg/pagination"
)

// BatchReceiptQuery represents the query string of a batch receipt request
type BatchReceiptQuery struct {
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
	DonorID   string `form:"donorId"`
	BatchID   string `form:"batchId"`
}

// ListReceiptsQuery represents the query string of a receipt listing
type ListReceiptsQuery struct {
	Page    int    `form:"page"`
	PerPage int    `form:"per_page"`
	Type    string `form:"type"`
	BatchID string `form:"batch_id"`
	OrderID string `form:"order_id"`
}

// ToFilterParams validates the query and converts it to repository filters
func (q *ListReceiptsQuery) ToFilterParams() (*repository.ReceiptFilterParams, error) {
	params := &repository.ReceiptFilterParams{
		Pagination: &pagination.PaginationParams{Page: q.Page, PerPage: q.PerPage},
		BatchID:    q.BatchID,
	}
	params.Pagination.Validate()

	var fieldErrors []apperror.FieldError
	if q.Type != "" {
		rt, err := enum.ParseReceiptType(q.Type)
		if err != nil {
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: "type", Message: "must be individual or batch"})
		} else {
			params.Type = &rt
		}
	}
	if q.OrderID != "" {
		id, err := uuid.Parse(q.OrderID)
		if err != nil {
			fieldErrors = append(fieldErrors, apperror.FieldError{Field: "order_id", Message: "must be a valid UUID"})
		} else {
			params.OrderID = &id
		}
	}

	if len(fieldErrors) > 0 {
		return nil, apperror.NewValidationError(fieldErrors)
	}
	return params, nil
}
