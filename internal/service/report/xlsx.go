package report

import (
	"bytes"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/report"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Attendance"

// RenderXLSX writes the grid as a single-sheet workbook
func RenderXLSX(title string, grid report.ExportGrid) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	lead := len(report.ExportLeadColumns)
	f.SetColWidth(sheetName, colName(0), colName(lead-1), 18)
	if len(grid.Dates) > 0 {
		f.SetColWidth(sheetName, colName(lead), colName(lead+len(grid.Dates)-1), 5)
	}

	f.SetCellValue(sheetName, "A1", title)
	f.MergeCell(sheetName, "A1", cell(colName(len(grid.Header)-1), 1))
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	// dates show as day of month; the title carries the period
	for i, h := range grid.Header {
		if i >= lead && i < lead+len(grid.Dates) {
			h = fmt.Sprintf("%d", grid.Dates[i-lead].Day())
		}
		f.SetCellValue(sheetName, cell(colName(i), 2), h)
	}
	f.SetCellStyle(sheetName, "A2", cell(colName(len(grid.Header)-1), 2), headerStyle)

	for r, row := range grid.Rows {
		for c, v := range row {
			f.SetCellValue(sheetName, cell(colName(c), r+3), v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
