package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Dataset is a tabular export of a donor's donation history.
type Dataset struct {
	Title       string
	GeneratedAt time.Time
	Headers     []string
	Rows        [][]string
}

// Renderer serialises a dataset into a downloadable document.
type Renderer interface {
	Render(ds Dataset) ([]byte, string, error)
}

// CSVRenderer renders datasets as RFC 4180 CSV.
type CSVRenderer struct{}

func (CSVRenderer) Render(ds Dataset) ([]byte, string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(ds.Headers); err != nil {
		return nil, "", fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range ds.Rows {
		if err := w.Write(row); err != nil {
			return nil, "", fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), "text/csv", nil
}

// PDFRenderer renders datasets as a simple tabular PDF report.
type PDFRenderer struct{}

func (PDFRenderer) Render(ds Dataset) ([]byte, string, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 12)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 9, ds.Title, "", 1, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(110, 110, 110)
	pdf.CellFormat(0, 6, "Generated "+ds.GeneratedAt.UTC().Format(time.RFC1123), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(3)

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	usable := pageW - left - right
	colW := usable / float64(len(ds.Headers))

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(225, 235, 245)
	for _, h := range ds.Headers {
		pdf.CellFormat(colW, 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	fill := false
	pdf.SetFillColor(245, 245, 245)
	for _, row := range ds.Rows {
		for _, cell := range row {
			pdf.CellFormat(colW, 6, cell, "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
		fill = !fill
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), "application/pdf", nil
}
