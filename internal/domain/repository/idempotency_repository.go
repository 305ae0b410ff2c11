package repository

import (
	"context"

	"github.com/sangkips/foodbridge-api/internal/domain/entity"
)

// IdempotencyRepository defines the interface for idempotency key operations
type IdempotencyRepository interface {
	// GetByKey retrieves an idempotency key by its key string and subject
	GetByKey(ctx context.Context, key, subject string) (*entity.IdempotencyKey, error)
	// Reserve inserts a pending key. It fails when the (key, subject) pair already exists
	Reserve(ctx context.Context, ikey *entity.IdempotencyKey) error
	// Complete stores the response of a reserved key
	Complete(ctx context.Context, ikey *entity.IdempotencyKey) error
	// Release deletes a reserved key so the request can be retried
	Release(ctx context.Context, key, subject string) error
	// DeleteExpired removes expired idempotency keys (for cleanup)
	DeleteExpired(ctx context.Context) error
}
