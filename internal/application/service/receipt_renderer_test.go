package service

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/foodbridge-api/internal/config"
	"github.com/sangkips/foodbridge-api/internal/domain/entity"
	"github.com/sangkips/foodbridge-api/internal/domain/enum"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plainRenderer() *PDFRenderer {
	cfg := config.DefaultReceiptConfig()
	cfg.CompressDocuments = false
	return NewPDFRenderer(cfg)
}

func sampleDocument(rt enum.ReceiptType) *entity.ReceiptDocument {
	name := "Ravi"
	order := &entity.Order{
		ID:                 uuid.MustParse("0b7c6f9e-2a51-4d3c-9f0e-6a1b2c3d4e5f"),
		DeliveryPersonName: &name,
		Donor:              &entity.Donor{Name: "Spice Route Kitchen"},
		NGO:                &entity.NGO{Name: "Annapurna Food Trust"},
		DonorForm:          &entity.DonorForm{FoodName: "Veg biryani"},
	}
	batchID := "1706745600000"
	receipt := &entity.Receipt{
		ReceiptNumber:  "DNTN-0b7c6f9e-1706745600000",
		ReceiptType:    rt,
		Servings:       20,
		RatePerServing: decimal.NewFromInt(50),
		Amount:         decimal.NewFromInt(1000),
		Currency:       "INR",
		IssuedAt:       time.Date(2024, 2, 1, 9, 30, 0, 0, time.UTC),
	}
	if rt == enum.ReceiptTypeBatch {
		receipt.BatchID = &batchID
	}
	return entity.NewReceiptDocument(order, receipt)
}

func TestPDFRendererIndividual(t *testing.T) {
	data, err := plainRenderer().Render(sampleDocument(enum.ReceiptTypeIndividual))
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	assert.Contains(t, string(data), "INR 1000.00")
	assert.Contains(t, string(data), "DNTN-0b7c6f9e-1706745600000")
	assert.Contains(t, string(data), "Spice Route Kitchen")
	assert.NotContains(t, string(data), "(BATCH)")
}

func TestPDFRendererBatch(t *testing.T) {
	data, err := plainRenderer().Render(sampleDocument(enum.ReceiptTypeBatch))
	require.NoError(t, err)

	body := string(data)
	assert.Contains(t, body, "Donation Receipt \\(BATCH\\)")
	assert.Contains(t, body, "1706745600000")
}

func TestPDFRendererReissue(t *testing.T) {
	doc := sampleDocument(enum.ReceiptTypeIndividual)
	doc.Reissued = true

	data, err := plainRenderer().Render(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Reprint of the receipt issued on 01 Feb 2024")
}
