package report

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/report"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
)

// Export letter codes
const (
	CodePresent = "P"
	CodeAbsent  = "A"
	CodeHalfDay = "HD"
	CodeOnLeave = "L"
	CodeHoliday = "H"
	CodePending = "-"
)

// StatusCode maps a day to its export code. Sundays export as holidays
// whatever their status, and unknown statuses fall back to absent.
func StatusCode(d attendance.DayRecord) string {
	if d.Status == attendance.StatusHoliday || d.IsSunday {
		return CodeHoliday
	}
	switch d.Status {
	case attendance.StatusPresent:
		return CodePresent
	case attendance.StatusHalfDay:
		return CodeHalfDay
	case attendance.StatusAbsent:
		return CodeAbsent
	case attendance.StatusOnLeave:
		return CodeOnLeave
	case attendance.StatusPending:
		return CodePending
	default:
		return CodeAbsent
	}
}

// ParseCode is the inverse of StatusCode
func ParseCode(code string) (attendance.DayStatus, error) {
	switch code {
	case CodePresent:
		return attendance.StatusPresent, nil
	case CodeAbsent:
		return attendance.StatusAbsent, nil
	case CodeHalfDay:
		return attendance.StatusHalfDay, nil
	case CodeOnLeave:
		return attendance.StatusOnLeave, nil
	case CodeHoliday:
		return attendance.StatusHoliday, nil
	case CodePending:
		return attendance.StatusPending, nil
	default:
		return "", fmt.Errorf("%w: %q", report.ErrUnknownExportCode, code)
	}
}

// BuildExportGrid lays the reports out one row per employee. Date columns are
// the sorted union of every date in any report; a date missing from an
// employee's records exports as absent.
func BuildExportGrid(reports []report.EmployeeReport) report.ExportGrid {
	seen := make(map[string]time.Time)
	for _, er := range reports {
		for _, d := range er.Report.Days {
			seen[dateutil.Format(d.Date)] = d.Date
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	grid := report.ExportGrid{
		Header: make([]string, 0, len(report.ExportLeadColumns)+len(keys)+len(report.ExportTailColumns)),
		Dates:  make([]time.Time, 0, len(keys)),
		Rows:   make([][]string, 0, len(reports)),
	}
	grid.Header = append(grid.Header, report.ExportLeadColumns...)
	for _, k := range keys {
		grid.Dates = append(grid.Dates, seen[k])
		grid.Header = append(grid.Header, k)
	}
	grid.Header = append(grid.Header, report.ExportTailColumns...)

	for _, er := range reports {
		codes := make(map[string]string, len(er.Report.Days))
		for _, d := range er.Report.Days {
			codes[dateutil.Format(d.Date)] = StatusCode(d)
		}

		emp := er.Employee
		row := []string{
			emp.EmployeeCode,
			emp.FullName,
			deref(emp.Department),
			deref(emp.Designation),
			deref(emp.ReportingToName),
		}
		for _, k := range keys {
			code, ok := codes[k]
			if !ok {
				code = CodeAbsent
			}
			row = append(row, code)
		}
		r := er.Report
		row = append(row,
			strconv.Itoa(r.PresentDays+r.HalfDays),
			strconv.Itoa(r.AbsentDays),
			strconv.Itoa(r.AttendancePercentage)+"%",
		)
		grid.Rows = append(grid.Rows, row)
	}
	return grid
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
