package report

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
)

// PeriodReport rolls up one employee's DayRecords over a period
type PeriodReport struct {
	EmployeeID           string
	From                 time.Time
	To                   time.Time
	TotalWorkingDays     int
	PresentDays          int
	AbsentDays           int
	HalfDays             int
	OnLeaveDays          int
	HolidayDays          int
	PendingDays          int
	LateDays             int
	AttendancePercentage int
	TotalWorkingHours    float64
	AverageWorkingHours  float64
	Days                 []attendance.DayRecord
}

type EmployeeReport struct {
	Employee employee.Employee
	Report   PeriodReport
}

// Fixed export columns; date columns sit between Lead and Tail
var (
	ExportLeadColumns = []string{"Employee Code", "Employee Name", "Department", "Designation", "Reporting To"}
	ExportTailColumns = []string{"Total Working Days", "Total LOP", "Attendance %"}
)

type ExportGrid struct {
	Header []string
	Dates  []time.Time
	Rows   [][]string
}

type ExportFormat string

const (
	FormatXLSX ExportFormat = "xlsx"
	FormatPDF  ExportFormat = "pdf"
)

var ExportFormatValues = []string{string(FormatXLSX), string(FormatPDF)}

// ExportFile is a rendered export ready to stream
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}
