package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NGO is the organization receiving the donated food
type NGO struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	Name               string         `gorm:"size:255;not null" json:"name"`
	RegistrationNumber *string        `gorm:"size:100" json:"registration_number,omitempty"`
	Email              *string        `gorm:"size:255" json:"email,omitempty"`
	Phone              *string        `gorm:"size:50" json:"phone,omitempty"`
	Address            *string        `gorm:"type:text" json:"address,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (n *NGO) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

func (NGO) TableName() string {
	return "ngos"
}
