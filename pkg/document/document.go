// Package document builds paginated PDF documents from simple layout blocks.
package document

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// Text alignment
const (
	AlignLeft   = "L"
	AlignCenter = "C"
	AlignRight  = "R"
)

const (
	fontFamily = "Helvetica"
	lineHeight = 6.0
	margin     = 18.0
)

// Options configures document metadata and encoding
type Options struct {
	Title     string
	Author    string
	Subject   string
	CreatedAt time.Time
	// Compress deflates page content streams. Disable to inspect text in tests.
	Compress bool
	// FooterText is printed on every page next to the page counter.
	FooterText string
}

// Column describes one table column. Width is a fraction of the content width.
type Column struct {
	Header string
	Width  float64
	Align  string
}

// Document is a chainable builder over an A4 portrait PDF.
// Errors are sticky: once a call fails, Bytes reports it.
type Document struct {
	pdf   *fpdf.Fpdf
	tr    func(string) string
	width float64
}

// New creates a document with one blank page
func New(opts Options) *Document {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(opts.Compress)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	if opts.Title != "" {
		pdf.SetTitle(opts.Title, true)
	}
	if opts.Author != "" {
		pdf.SetAuthor(opts.Author, true)
	}
	if opts.Subject != "" {
		pdf.SetSubject(opts.Subject, true)
	}
	if !opts.CreatedAt.IsZero() {
		pdf.SetCreationDate(opts.CreatedAt)
		pdf.SetModificationDate(opts.CreatedAt)
	}
	pdf.SetCatalogSort(true)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AliasNbPages("{nb}")
	footer := opts.FooterText
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont(fontFamily, "I", 8)
		pdf.SetTextColor(120, 120, 120)
		label := fmt.Sprintf("Page %d of {nb}", pdf.PageNo())
		if footer != "" {
			label = tr(footer) + "  |  " + label
		}
		pdf.CellFormat(0, 5, label, "", 0, AlignCenter, false, 0, "")
	})

	pdf.AddPage()
	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()

	d := &Document{
		pdf:   pdf,
		tr:    tr,
		width: pageWidth - left - right,
	}
	d.normal()
	return d
}

func (d *Document) normal() {
	d.pdf.SetFont(fontFamily, "", 10)
	d.pdf.SetTextColor(30, 30, 30)
}

// Title writes a large centered bold line
func (d *Document) Title(s string) *Document {
	d.pdf.SetFont(fontFamily, "B", 18)
	d.pdf.SetTextColor(20, 83, 45)
	d.pdf.CellFormat(0, 10, d.tr(s), "", 1, AlignCenter, false, 0, "")
	d.normal()
	return d
}

// Subtitle writes a smaller centered line under the title
func (d *Document) Subtitle(s string) *Document {
	d.pdf.SetFont(fontFamily, "", 11)
	d.pdf.SetTextColor(90, 90, 90)
	d.pdf.CellFormat(0, lineHeight, d.tr(s), "", 1, AlignCenter, false, 0, "")
	d.normal()
	return d
}

// Heading writes a bold section heading with a rule beneath it
func (d *Document) Heading(s string) *Document {
	d.pdf.Ln(2)
	d.pdf.SetFont(fontFamily, "B", 12)
	d.pdf.CellFormat(0, 7, d.tr(s), "", 1, AlignLeft, false, 0, "")
	y := d.pdf.GetY()
	left, _, _, _ := d.pdf.GetMargins()
	d.pdf.SetDrawColor(200, 200, 200)
	d.pdf.Line(left, y, left+d.width, y)
	d.pdf.Ln(1.5)
	d.normal()
	return d
}

// Text writes a wrapped paragraph
func (d *Document) Text(s string) *Document {
	d.pdf.MultiCell(0, lineHeight, d.tr(s), "", AlignLeft, false)
	return d
}

// TextF writes a formatted paragraph
func (d *Document) TextF(format string, args ...interface{}) *Document {
	return d.Text(fmt.Sprintf(format, args...))
}

// Centered writes a single centered line
func (d *Document) Centered(s string) *Document {
	d.pdf.CellFormat(0, lineHeight, d.tr(s), "", 1, AlignCenter, false, 0, "")
	return d
}

// KeyValue writes a bold label followed by its value on the same line
func (d *Document) KeyValue(key, value string) *Document {
	d.pdf.SetFont(fontFamily, "B", 10)
	d.pdf.CellFormat(d.width*0.3, lineHeight, d.tr(key), "", 0, AlignLeft, false, 0, "")
	d.normal()
	d.pdf.MultiCell(0, lineHeight, d.tr(value), "", AlignLeft, false)
	return d
}

// Table writes a bordered table with a shaded header row. A non-nil footer
// is printed as a bold final row.
func (d *Document) Table(cols []Column, rows [][]string, footer []string) *Document {
	d.pdf.Ln(2)
	d.pdf.SetFont(fontFamily, "B", 10)
	d.pdf.SetFillColor(230, 240, 232)
	d.pdf.SetDrawColor(160, 160, 160)
	for _, col := range cols {
		d.pdf.CellFormat(d.width*col.Width, 8, d.tr(col.Header), "1", 0, AlignCenter, true, 0, "")
	}
	d.pdf.Ln(-1)

	d.normal()
	for _, row := range rows {
		d.row(cols, row)
	}
	if footer != nil {
		d.pdf.SetFont(fontFamily, "B", 10)
		d.row(cols, footer)
		d.normal()
	}
	d.pdf.Ln(2)
	return d
}

func (d *Document) row(cols []Column, cells []string) {
	for i, col := range cols {
		value := ""
		if i < len(cells) {
			value = cells[i]
		}
		align := col.Align
		if align == "" {
			align = AlignLeft
		}
		d.pdf.CellFormat(d.width*col.Width, 8, d.tr(value), "1", 0, align, false, 0, "")
	}
	d.pdf.Ln(-1)
}

// Notice writes a boxed, highlighted paragraph
func (d *Document) Notice(s string) *Document {
	d.pdf.Ln(2)
	d.pdf.SetFont(fontFamily, "B", 10)
	d.pdf.SetTextColor(155, 28, 28)
	d.pdf.SetFillColor(254, 242, 242)
	d.pdf.SetDrawColor(220, 38, 38)
	d.pdf.MultiCell(0, lineHeight, d.tr(s), "1", AlignLeft, true)
	d.normal()
	d.pdf.Ln(2)
	return d
}

// Space adds vertical whitespace in millimetres
func (d *Document) Space(h float64) *Document {
	d.pdf.Ln(h)
	return d
}

// SignatureLines draws blank signature lines side by side with labels under each
func (d *Document) SignatureLines(labels ...string) *Document {
	if len(labels) == 0 {
		return d
	}
	d.pdf.Ln(18)
	left, _, _, _ := d.pdf.GetMargins()
	gap := 12.0
	slot := (d.width - gap*float64(len(labels)-1)) / float64(len(labels))
	y := d.pdf.GetY()

	d.pdf.SetDrawColor(60, 60, 60)
	for i := range labels {
		x := left + float64(i)*(slot+gap)
		d.pdf.Line(x, y, x+slot, y)
	}
	d.pdf.Ln(1.5)
	d.pdf.SetFont(fontFamily, "", 9)
	for i, label := range labels {
		d.pdf.SetX(left + float64(i)*(slot+gap))
		d.pdf.CellFormat(slot, 5, d.tr(label), "", 0, AlignCenter, false, 0, "")
	}
	d.pdf.Ln(-1)
	d.normal()
	return d
}

// PageCount returns the number of pages written so far
func (d *Document) PageCount() int {
	return d.pdf.PageCount()
}

// Bytes finalizes the document
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("document: %w", err)
	}
	return buf.Bytes(), nil
}
