package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Status of one order in a batch run
const (
	ManifestStatusGenerated = "generated"
	ManifestStatusFailed    = "failed"
	ManifestStatusSkipped   = "skipped"
)

const (
	manifestFile = "manifest.json"
	summaryFile  = "summary.xlsx"
	summarySheet = "Receipts"
	batchSheet   = "Batch"
)

// ManifestEntry describes the outcome for one order of a batch run.
type ManifestEntry struct {
	OrderID       string          `json:"order_id"`
	ReceiptNumber string          `json:"receipt_number,omitempty"`
	Donor         string          `json:"donor,omitempty"`
	Servings      int             `json:"servings"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	File          string          `json:"file,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// BatchManifest accompanies every batch archive so callers can detect partial failure.
type BatchManifest struct {
	BatchID           string          `json:"batch_id"`
	StartDate         string          `json:"start_date"`
	EndDate           string          `json:"end_date"`
	DonorID           string          `json:"donor_id,omitempty"`
	GeneratedAt       time.Time       `json:"generated_at"`
	Currency          string          `json:"currency"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	BookkeepingFailed bool            `json:"bookkeeping_failed,omitempty"`
	Entries           []ManifestEntry `json:"entries"`
}

// Count returns the number of entries with the given status
func (m *BatchManifest) Count(status string) int {
	n := 0
	for _, e := range m.Entries {
		if e.Status == status {
			n++
		}
	}
	return n
}

// JSON encodes the manifest as indented JSON
func (m *BatchManifest) JSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// Spreadsheet writes the manifest as an xlsx workbook with one row per order
// and a second sheet holding the batch totals.
func (m *BatchManifest) Spreadsheet() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}

	header := []interface{}{"Order ID", "Receipt Number", "Donor", "Servings", "Amount (" + m.Currency + ")", "Status", "File", "Error"}
	if err := f.SetSheetRow(summarySheet, "A1", &header); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E6F0E8"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(summarySheet, "A1", "H1", bold); err != nil {
		return nil, err
	}

	for i, e := range m.Entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{e.OrderID, e.ReceiptNumber, e.Donor, e.Servings, e.Amount.InexactFloat64(), e.Status, e.File, e.Error}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return nil, err
		}
	}
	if err := f.SetColWidth(summarySheet, "A", "C", 38); err != nil {
		return nil, err
	}

	if _, err := f.NewSheet(batchSheet); err != nil {
		return nil, err
	}
	totals := [][]interface{}{
		{"Batch ID", m.BatchID},
		{"Start date", m.StartDate},
		{"End date", m.EndDate},
		{"Generated at", m.GeneratedAt.Format(time.RFC3339)},
		{"Generated", m.Count(ManifestStatusGenerated)},
		{"Failed", m.Count(ManifestStatusFailed)},
		{"Skipped", m.Count(ManifestStatusSkipped)},
		{"Total amount (" + m.Currency + ")", m.TotalAmount.InexactFloat64()},
	}
	for i, row := range totals {
		row := row
		if err := f.SetSheetRow(batchSheet, fmt.Sprintf("A%d", i+1), &row); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
