package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/foodbridge-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Receipt is the immutable record of an issued donation receipt.
// At most one row exists per order (unique index on order_id).
type Receipt struct {
	ID             uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	OrderID        uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex" json:"order_id"`
	DonorID        uuid.UUID        `gorm:"type:uuid;not null;index" json:"donor_id"`
	ReceiptNumber  string           `gorm:"size:100;not null;uniqueIndex" json:"receipt_number"`
	ReceiptType    enum.ReceiptType `gorm:"size:20;not null;index" json:"receipt_type"`
	BatchID        *string          `gorm:"size:64;index" json:"batch_id,omitempty"`
	Servings       int              `gorm:"not null;default:0" json:"servings"`
	RatePerServing decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"rate_per_serving"`
	Amount         decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency       string           `gorm:"size:3;not null" json:"currency"`
	IssuedAt       time.Time        `gorm:"not null" json:"issued_at"`
	CreatedAt      time.Time        `json:"created_at"`

	// Relationships
	Order *Order `gorm:"foreignKey:OrderID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new receipt
func (r *Receipt) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Receipt model
func (Receipt) TableName() string {
	return "receipts"
}

// IsBatch reports whether the receipt was issued by a batch run
func (r *Receipt) IsBatch() bool {
	return r.ReceiptType == enum.ReceiptTypeBatch
}
