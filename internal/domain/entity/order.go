package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order represents a confirmed food pickup between a donor listing and an NGO
type Order struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	DonorID             uuid.UUID      `gorm:"type:uuid;not null;index" json:"donor_id"`
	DonorFormID         *uuid.UUID     `gorm:"type:uuid;index" json:"donor_form_id,omitempty"`
	NGOID               *uuid.UUID     `gorm:"type:uuid;column:ngo_id;index" json:"ngo_id,omitempty"`
	Serves              *int           `json:"serves,omitempty"`
	DeliveryPersonName  *string        `gorm:"size:255" json:"delivery_person_name,omitempty"`
	DeliveryPersonPhone *string        `gorm:"size:50" json:"delivery_person_phone,omitempty"`
	ReceiptGenerated    bool           `gorm:"not null;default:false;index" json:"receipt_generated"`
	ReceiptNumber       *string        `gorm:"size:100" json:"receipt_number,omitempty"`
	BatchID             *string        `gorm:"size:64;index" json:"batch_id,omitempty"`
	CreatedAt           time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Donor     *Donor     `gorm:"foreignKey:DonorID" json:"donor,omitempty"`
	DonorForm *DonorForm `gorm:"foreignKey:DonorFormID" json:"donor_form,omitempty"`
	NGO       *NGO       `gorm:"foreignKey:NGOID" json:"ngo,omitempty"`
}

// BeforeCreate generates a UUID before creating a new order
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// Servings returns the serving count, treating a missing value as zero
func (o *Order) Servings() int {
	if o.Serves == nil || *o.Serves < 0 {
		return 0
	}
	return *o.Serves
}
