package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets into a basic tabular PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			value := row[header]
			pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// WeekGrid describes a weekly timetable laid out as time rows x day columns.
type WeekGrid struct {
	DayNames   []string
	TimeLabels []string
	// Cells[timeIndex][dayIndex] holds the rendered cell text, empty for gaps.
	Cells [][]string
}

// RenderWeekGrid creates a landscape weekly grid PDF, one column per school day.
func (e *PDFExporter) RenderWeekGrid(grid WeekGrid, title string) ([]byte, error) {
	if len(grid.DayNames) == 0 || len(grid.TimeLabels) == 0 {
		return nil, fmt.Errorf("week grid requires days and time rows")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	timeColWidth := 22.0
	dayColWidth := (277.0 - timeColWidth) / float64(len(grid.DayNames))

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(timeColWidth, 8, "Time", "1", 0, "C", false, 0, "")
	for _, day := range grid.DayNames {
		pdf.CellFormat(dayColWidth, 8, day, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 8)
	for i, label := range grid.TimeLabels {
		pdf.CellFormat(timeColWidth, 10, label, "1", 0, "C", false, 0, "")
		for j := range grid.DayNames {
			var cell string
			if i < len(grid.Cells) && j < len(grid.Cells[i]) {
				cell = grid.Cells[i][j]
			}
			pdf.CellFormat(dayColWidth, 10, cell, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render week grid pdf: %w", err)
	}
	return buf.Bytes(), nil
}
