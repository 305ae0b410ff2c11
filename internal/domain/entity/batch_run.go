package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BatchRun records one execution of the batch receipt generator together
// with the manifest returned in the archive.
type BatchRun struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	BatchID   string         `gorm:"size:64;not null;uniqueIndex" json:"batch_id"`
	StartDate datatypes.Date `gorm:"not null" json:"start_date"`
	EndDate   datatypes.Date `gorm:"not null" json:"end_date"`
	DonorID   *uuid.UUID     `gorm:"type:uuid;index" json:"donor_id,omitempty"`
	Requested int            `gorm:"not null;default:0" json:"requested"`
	Generated int            `gorm:"not null;default:0" json:"generated"`
	Failed    int            `gorm:"not null;default:0" json:"failed"`
	Skipped   int            `gorm:"not null;default:0" json:"skipped"`
	Manifest  datatypes.JSON `json:"manifest"`
	CreatedAt time.Time      `json:"created_at"`
}

func (b *BatchRun) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

func (BatchRun) TableName() string {
	return "receipt_batches"
}
