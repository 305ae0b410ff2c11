package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DonorForm is a surplus food listing posted by a donor
type DonorForm struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	DonorID             uuid.UUID      `gorm:"type:uuid;not null;index" json:"donor_id"`
	FoodName            string         `gorm:"size:255;not null" json:"food_name"`
	FoodCategory        *string        `gorm:"size:100" json:"food_category,omitempty"`
	ImageURL            *string        `gorm:"size:512" json:"image_url,omitempty"`
	QuantityDescription *string        `gorm:"size:255" json:"quantity_description,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Donor Donor `gorm:"foreignKey:DonorID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new listing
func (f *DonorForm) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the DonorForm model
func (DonorForm) TableName() string {
	return "donor_forms"
}
