package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Donor is the restaurant or business that gives away surplus food
type Donor struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	Phone     *string        `gorm:"size:50" json:"phone,omitempty"`
	Email     *string        `gorm:"size:255" json:"email,omitempty"`
	Address   *string        `gorm:"type:text" json:"address,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Forms  []DonorForm `gorm:"foreignKey:DonorID" json:"-"`
	Orders []Order     `gorm:"foreignKey:DonorID" json:"-"`
}

// BeforeCreate generates a UUID before creating a new donor
func (d *Donor) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Donor model
func (Donor) TableName() string {
	return "donors"
}
