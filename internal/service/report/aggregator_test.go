package report

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"github.com/stretchr/testify/assert"
)

var june1 = dateutil.Date(2024, time.June, 1)

func day(offset int, status attendance.DayStatus, hours float64) attendance.DayRecord {
	d := june1.AddDate(0, 0, offset)
	return attendance.DayRecord{
		EmployeeID:   "emp-1",
		Date:         d,
		Status:       status,
		WorkingHours: hours,
		IsSunday:     d.Weekday() == time.Sunday,
	}
}

func TestAggregate_Counts(t *testing.T) {
	days := []attendance.DayRecord{
		day(0, attendance.StatusPresent, 9),
		day(1, attendance.StatusHoliday, 0),
		day(2, attendance.StatusPresent, 8.5),
		day(3, attendance.StatusHalfDay, 4),
		day(4, attendance.StatusAbsent, 0),
		day(5, attendance.StatusOnLeave, 0),
		day(6, attendance.StatusPending, 0),
	}
	days[2].LateClockIn = true

	r := Aggregate("emp-1", june1, june1.AddDate(0, 0, 6), days)

	assert.Equal(t, 6, r.TotalWorkingDays)
	assert.Equal(t, 2, r.PresentDays)
	assert.Equal(t, 1, r.HalfDays)
	assert.Equal(t, 1, r.AbsentDays)
	assert.Equal(t, 1, r.OnLeaveDays)
	assert.Equal(t, 1, r.HolidayDays)
	assert.Equal(t, 1, r.PendingDays)
	assert.Equal(t, 1, r.LateDays)
	// (2 + 0.5) / 6 = 41.67%
	assert.Equal(t, 42, r.AttendancePercentage)
	assert.Equal(t, 21.5, r.TotalWorkingHours)
	assert.Equal(t, 10.75, r.AverageWorkingHours)
	assert.Len(t, r.Days, 7)
}

func TestAggregate_GuardsZeroDenominators(t *testing.T) {
	tests := []struct {
		name string
		days []attendance.DayRecord
	}{
		{name: "empty period", days: nil},
		{name: "only holidays", days: []attendance.DayRecord{
			day(1, attendance.StatusHoliday, 0),
			day(8, attendance.StatusHoliday, 0),
		}},
		{name: "no present days", days: []attendance.DayRecord{
			day(0, attendance.StatusAbsent, 0),
			day(2, attendance.StatusHalfDay, 3.5),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Aggregate("emp-1", june1, june1, tt.days)
			assert.GreaterOrEqual(t, r.AttendancePercentage, 0)
			assert.LessOrEqual(t, r.AttendancePercentage, 100)
			assert.Zero(t, r.AverageWorkingHours)
		})
	}
}

func TestAggregate_FullAttendance(t *testing.T) {
	days := []attendance.DayRecord{
		day(0, attendance.StatusPresent, 8),
		day(2, attendance.StatusPresent, 8),
	}

	r := Aggregate("emp-1", june1, june1.AddDate(0, 0, 2), days)

	assert.Equal(t, 100, r.AttendancePercentage)
	assert.Equal(t, 8.0, r.AverageWorkingHours)
}
