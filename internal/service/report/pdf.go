package report

import (
	"bytes"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/report"
	"github.com/jung-kurt/gofpdf/v2"
)

const (
	pdfLeadWidth = 28.0
	pdfDateWidth = 6.0
	pdfTailWidth = 16.0
	pdfRowHeight = 6.0
)

// RenderPDF writes the grid as a landscape table, repeating the header on each page
func RenderPDF(title string, grid report.ExportGrid) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A3", "")
	pdf.SetMargins(8, 10, 8)
	pdf.SetAutoPageBreak(false, 10)

	lead := len(report.ExportLeadColumns)
	widths := make([]float64, len(grid.Header))
	for i := range grid.Header {
		switch {
		case i < lead:
			widths[i] = pdfLeadWidth
		case i < lead+len(grid.Dates):
			widths[i] = pdfDateWidth
		default:
			widths[i] = pdfTailWidth
		}
	}

	header := func() {
		pdf.SetFont("Helvetica", "B", 7)
		pdf.SetFillColor(217, 225, 242)
		for i, h := range grid.Header {
			if i >= lead && i < lead+len(grid.Dates) {
				h = fmt.Sprintf("%d", grid.Dates[i-lead].Day())
			}
			pdf.CellFormat(widths[i], pdfRowHeight, h, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 7)
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 10, title, "", 1, "L", false, 0, "")
	header()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, row := range grid.Rows {
		if pdf.GetY()+pdfRowHeight > pageHeight-bottom {
			pdf.AddPage()
			header()
		}
		for i, v := range row {
			align := "C"
			if i < lead {
				align = "L"
			}
			pdf.CellFormat(widths[i], pdfRowHeight, truncate(pdf, v, widths[i]), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	buf := new(bytes.Buffer)
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("failed to write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// truncate shortens s until it fits a cell of width w
func truncate(pdf *gofpdf.Fpdf, s string, w float64) string {
	limit := w - 2
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > limit {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
