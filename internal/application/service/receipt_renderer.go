package service

import (
	"fmt"

	"github.com/sangkips/foodbridge-api/internal/config"
	"github.com/sangkips/foodbridge-api/internal/domain/entity"
	"github.com/sangkips/foodbridge-api/pkg/document"
)

// Renderer turns a receipt document into its binary form
type Renderer interface {
	Render(doc *entity.ReceiptDocument) ([]byte, error)
}

// PDFRenderer lays out donation receipts as A4 PDF pages.
type PDFRenderer struct {
	issuer   string
	legal    string
	compress bool
}

// NewPDFRenderer creates a renderer using the issuer name and legal statement from cfg.
func NewPDFRenderer(cfg config.ReceiptConfig) *PDFRenderer {
	return &PDFRenderer{
		issuer:   cfg.IssuerName,
		legal:    cfg.LegalStatement,
		compress: cfg.CompressDocuments,
	}
}

var receiptColumns = []document.Column{
	{Header: "Description", Width: 0.40},
	{Header: "Servings", Width: 0.15, Align: document.AlignRight},
	{Header: "Value per serving", Width: 0.22, Align: document.AlignRight},
	{Header: "Total", Width: 0.23, Align: document.AlignRight},
}

// Render builds the receipt page
func (r *PDFRenderer) Render(rd *entity.ReceiptDocument) ([]byte, error) {
	title := "Donation Receipt"
	if rd.IsBatch() {
		title += " (BATCH)"
	}

	doc := document.New(document.Options{
		Title:      title + " " + rd.ReceiptNumber,
		Author:     r.issuer,
		Subject:    "Food donation tax receipt",
		CreatedAt:  rd.IssuedAt,
		Compress:   r.compress,
		FooterText: r.issuer + " - " + rd.ReceiptNumber,
	})

	doc.Title(title).
		Subtitle(r.issuer + " | Food donation tax receipt").
		Space(4).
		KeyValue("Receipt No:", rd.ReceiptNumber).
		KeyValue("Date of issue:", rd.IssuedAt.Format("02 Jan 2006")).
		KeyValue("Order ID:", rd.OrderID)

	if rd.IsBatch() {
		doc.KeyValue("Batch ID:", rd.BatchID)
	}
	if rd.Reissued {
		doc.KeyValue("Copy:", "Reprint of the receipt issued on "+rd.IssuedAt.Format("02 Jan 2006"))
	}

	doc.Heading("Donor").
		KeyValue("Name:", rd.Donor.Name).
		KeyValue("Phone:", rd.Donor.Phone).
		KeyValue("Email:", rd.Donor.Email)
	if rd.Donor.Address != "" {
		doc.KeyValue("Address:", rd.Donor.Address)
	}

	doc.Heading("Recipient Organization").
		KeyValue("Name:", rd.Recipient.Name).
		KeyValue("Registration No:", rd.Recipient.RegistrationNumber)
	if rd.Recipient.Address != "" {
		doc.KeyValue("Address:", rd.Recipient.Address)
	}

	description := rd.Line.Description
	if rd.Line.Category != "" {
		description = fmt.Sprintf("%s (%s)", description, rd.Line.Category)
	}
	total := FormatAmount(rd.Currency, rd.Line.Total)

	doc.Heading("Donation Details").
		Table(receiptColumns, [][]string{{
			description,
			fmt.Sprintf("%d", rd.Line.Servings),
			FormatAmount(rd.Currency, rd.Line.RatePerServing),
			total,
		}}, []string{"Total donation value", "", "", total})

	doc.Heading("Declaration").
		Text(r.legal).
		Notice(duplicateWarning(rd))

	if p := rd.DeliveryPerson; p != nil {
		doc.Heading("Delivery").
			KeyValue("Delivered by:", p.Name).
			KeyValue("Contact:", p.Phone)
	}

	doc.Space(6).
		Centered("Thank you for helping reduce food waste and feed people in need.").
		SignatureLines("Donor signature", "Authorized signatory ("+rd.Recipient.Name+")")

	return doc.Bytes()
}

func duplicateWarning(rd *entity.ReceiptDocument) string {
	if rd.IsBatch() {
		return fmt.Sprintf("IMPORTANT: This receipt was issued in batch %s. Each order in a batch receives "+
			"exactly one receipt. Do not claim this donation again using an individual receipt "+
			"for the same order.", rd.BatchID)
	}
	return "IMPORTANT: Only one receipt is issued per donation. Reprints carry the original receipt " +
		"number and must not be used to claim the same donation more than once."
}
