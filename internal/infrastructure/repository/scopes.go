package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ctxKey string

const (
	// DonorIDKey is the context key for the donor a caller is restricted to
	DonorIDKey ctxKey = "donor_id"
)

// DonorScope returns a GORM scope that restricts a query to the donor in ctx.
// Callers without a donor in context (staff, CLI, open mode) see all rows.
func DonorScope(ctx context.Context, column string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		donorID, ok := GetDonorID(ctx)
		if !ok {
			return db
		}
		return db.Where(column+" = ?", donorID)
	}
}

// WithDonor adds the caller's donor ID to context
func WithDonor(ctx context.Context, donorID uuid.UUID) context.Context {
	return context.WithValue(ctx, DonorIDKey, donorID)
}

// GetDonorID extracts the donor ID from context
func GetDonorID(ctx context.Context) (uuid.UUID, bool) {
	donorID, ok := ctx.Value(DonorIDKey).(uuid.UUID)
	return donorID, ok && donorID != uuid.Nil
}
