package report

import (
	"math"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/report"
)

// Aggregate rolls up one employee's ordered DayRecords. Ratios are guarded to
// 0 when their denominator is 0.
func Aggregate(employeeID string, from, to time.Time, days []attendance.DayRecord) report.PeriodReport {
	r := report.PeriodReport{
		EmployeeID: employeeID,
		From:       from,
		To:         to,
		Days:       days,
	}

	for _, d := range days {
		switch d.Status {
		case attendance.StatusPresent:
			r.PresentDays++
		case attendance.StatusAbsent:
			r.AbsentDays++
		case attendance.StatusHalfDay:
			r.HalfDays++
		case attendance.StatusOnLeave:
			r.OnLeaveDays++
		case attendance.StatusHoliday:
			r.HolidayDays++
		case attendance.StatusPending:
			r.PendingDays++
		}
		if d.Status != attendance.StatusHoliday {
			r.TotalWorkingDays++
		}
		if d.LateClockIn {
			r.LateDays++
		}
		r.TotalWorkingHours += d.WorkingHours
	}

	r.TotalWorkingHours = round2(r.TotalWorkingHours)
	if r.TotalWorkingDays > 0 {
		credited := float64(r.PresentDays) + 0.5*float64(r.HalfDays)
		r.AttendancePercentage = int(math.Round(credited / float64(r.TotalWorkingDays) * 100))
	}
	if r.PresentDays > 0 {
		r.AverageWorkingHours = round2(r.TotalWorkingHours / float64(r.PresentDays))
	}
	return r
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
