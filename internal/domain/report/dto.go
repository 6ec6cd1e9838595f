package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// ========================================
// MONTHLY ATTENDANCE REPORT
// ========================================

type MonthlyAttendanceReportRequest struct {
	OrganizationID string `json:"-"`
	Month          int    `json:"month"`
	Year           int    `json:"year"`
	// EmployeeID narrows the report to one employee
	EmployeeID string `json:"employee_id"`
}

func (r *MonthlyAttendanceReportRequest) Validate() error {
	if errs := validatePeriod(r.Month, r.Year); len(errs) > 0 {
		return errs
	}
	return nil
}

func validatePeriod(month, year int) validator.ValidationErrors {
	var errs validator.ValidationErrors

	if month < 1 || month > 12 {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}

	currentYear := time.Now().Year()
	if year < 2020 || year > currentYear+1 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: fmt.Sprintf("year must be between 2020 and %d", currentYear+1),
		})
	}
	return errs
}

type ExportAttendanceReportRequest struct {
	OrganizationID string
	Month          int
	Year           int
	Format         string
}

func (r *ExportAttendanceReportRequest) Validate() error {
	errs := validatePeriod(r.Month, r.Year)
	if r.Format == "" {
		r.Format = string(FormatXLSX)
	}
	r.Format = strings.ToLower(r.Format)
	if !validator.IsInSlice(r.Format, ExportFormatValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "format",
			Message: "format must be one of: " + strings.Join(ExportFormatValues, ", "),
		})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type MonthlyAttendanceReport struct {
	PeriodMonth int    `json:"period_month"`
	PeriodYear  int    `json:"period_year"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	GeneratedAt string `json:"generated_at"`

	Employees []MonthlyAttendanceEmployee `json:"employees"`
}

type MonthlyAttendanceEmployee struct {
	EmployeeID   string  `json:"employee_id"`
	EmployeeCode string  `json:"employee_code"`
	EmployeeName string  `json:"employee_name"`
	Department   *string `json:"department"`
	Designation  *string `json:"designation"`

	Summary   AttendanceSummary              `json:"summary"`
	DailyLogs []attendance.DayRecordResponse `json:"daily_logs"`
}

type AttendanceSummary struct {
	TotalWorkingDays     int     `json:"total_working_days"`
	PresentDays          int     `json:"present_days"`
	AbsentDays           int     `json:"absent_days"`
	HalfDays             int     `json:"half_days"`
	OnLeaveDays          int     `json:"on_leave_days"`
	HolidayDays          int     `json:"holiday_days"`
	PendingDays          int     `json:"pending_days"`
	LateDays             int     `json:"late_days"`
	AttendancePercentage int     `json:"attendance_percentage"`
	TotalWorkingHours    float64 `json:"total_working_hours"`
	AverageWorkingHours  float64 `json:"average_working_hours"`
}

func NewMonthlyAttendanceEmployee(er EmployeeReport) MonthlyAttendanceEmployee {
	logs := make([]attendance.DayRecordResponse, 0, len(er.Report.Days))
	for _, d := range er.Report.Days {
		logs = append(logs, attendance.NewDayRecordResponse(d))
	}
	r := er.Report
	return MonthlyAttendanceEmployee{
		EmployeeID:   er.Employee.ID,
		EmployeeCode: er.Employee.EmployeeCode,
		EmployeeName: er.Employee.FullName,
		Department:   er.Employee.Department,
		Designation:  er.Employee.Designation,
		Summary: AttendanceSummary{
			TotalWorkingDays:     r.TotalWorkingDays,
			PresentDays:          r.PresentDays,
			AbsentDays:           r.AbsentDays,
			HalfDays:             r.HalfDays,
			OnLeaveDays:          r.OnLeaveDays,
			HolidayDays:          r.HolidayDays,
			PendingDays:          r.PendingDays,
			LateDays:             r.LateDays,
			AttendancePercentage: r.AttendancePercentage,
			TotalWorkingHours:    r.TotalWorkingHours,
			AverageWorkingHours:  r.AverageWorkingHours,
		},
		DailyLogs: logs,
	}
}

