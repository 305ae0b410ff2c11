package entity

import (
	"time"

	"github.com/sangkips/foodbridge-api/internal/domain/enum"
	"github.com/shopspring/decimal"
)

const notAvailable = "N/A"

// ReceiptParty holds the contact block printed for the donor, the NGO or the delivery person.
type ReceiptParty struct {
	Name               string `json:"name"`
	Phone              string `json:"phone,omitempty"`
	Email              string `json:"email,omitempty"`
	Address            string `json:"address,omitempty"`
	RegistrationNumber string `json:"registration_number,omitempty"`
}

// ReceiptLine is the single donation line of a receipt.
type ReceiptLine struct {
	Description    string          `json:"description"`
	Category       string          `json:"category,omitempty"`
	Servings       int             `json:"servings"`
	RatePerServing decimal.Decimal `json:"rate_per_serving"`
	Total          decimal.Decimal `json:"total"`
}

// ReceiptDocument is a value object representing a printable donation receipt.
// It is NOT a database entity; it is composed from the order and its receipt row at render time.
type ReceiptDocument struct {
	ReceiptNumber  string           `json:"receipt_number"`
	ReceiptType    enum.ReceiptType `json:"receipt_type"`
	BatchID        string           `json:"batch_id,omitempty"`
	OrderID        string           `json:"order_id"`
	IssuedAt       time.Time        `json:"issued_at"`
	Reissued       bool             `json:"reissued,omitempty"` // copy of a receipt issued earlier
	Currency       string           `json:"currency"`
	Donor          ReceiptParty     `json:"donor"`
	Recipient      ReceiptParty     `json:"recipient"`
	DeliveryPerson *ReceiptParty    `json:"delivery_person,omitempty"`
	Line           ReceiptLine      `json:"line"`
}

// NewReceiptDocument builds the printable view of receipt for order.
// Missing related records are rendered as placeholders.
func NewReceiptDocument(order *Order, receipt *Receipt) *ReceiptDocument {
	doc := &ReceiptDocument{
		ReceiptNumber: receipt.ReceiptNumber,
		ReceiptType:   receipt.ReceiptType,
		OrderID:       order.ID.String(),
		IssuedAt:      receipt.IssuedAt,
		Currency:      receipt.Currency,
		Donor:         ReceiptParty{Name: notAvailable, Phone: notAvailable, Email: notAvailable},
		Recipient:     ReceiptParty{Name: notAvailable, RegistrationNumber: notAvailable},
		Line: ReceiptLine{
			Description:    "Food donation",
			Servings:       receipt.Servings,
			RatePerServing: receipt.RatePerServing,
			Total:          receipt.Amount,
		},
	}
	if receipt.BatchID != nil {
		doc.BatchID = *receipt.BatchID
	}

	if d := order.Donor; d != nil {
		doc.Donor = ReceiptParty{
			Name:    orNA(d.Name),
			Phone:   deref(d.Phone),
			Email:   deref(d.Email),
			Address: valueOf(d.Address),
		}
	}

	if n := order.NGO; n != nil {
		doc.Recipient = ReceiptParty{
			Name:               orNA(n.Name),
			RegistrationNumber: deref(n.RegistrationNumber),
			Address:            valueOf(n.Address),
		}
	}

	if f := order.DonorForm; f != nil {
		if f.FoodName != "" {
			doc.Line.Description = f.FoodName
		}
		doc.Line.Category = valueOf(f.FoodCategory)
	}

	if name := valueOf(order.DeliveryPersonName); name != "" {
		doc.DeliveryPerson = &ReceiptParty{
			Name:  name,
			Phone: deref(order.DeliveryPersonPhone),
		}
	}

	return doc
}

// IsBatch reports whether the document belongs to a batch run
func (d *ReceiptDocument) IsBatch() bool {
	return d.ReceiptType == enum.ReceiptTypeBatch
}

// Filename is the attachment name used for the PDF of this receipt
func (d *ReceiptDocument) Filename() string {
	return "donation_receipt_" + d.ReceiptNumber + ".pdf"
}

func valueOf(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func deref(s *string) string {
	return orNA(valueOf(s))
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}
