package schedule

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
)

// WeekdayOccurrence is how many times date's weekday has occurred in its month up to and including date
func WeekdayOccurrence(date time.Time) int {
	return (date.Day()-1)/7 + 1
}

// ResolveDay applies the non-working-day test to a single date. accepted holds the
// IDs of optional holidays the employee opted into.
func ResolveDay(cfg schedule.ScheduleConfig, date time.Time, holidaysByDate map[string]schedule.Holiday, accepted map[string]bool) schedule.ResolvedDay {
	date = dateutil.DateOf(date)
	day := schedule.ResolvedDay{Date: date, Config: cfg}

	weekday := date.Weekday()
	switch {
	case !cfg.IsWorkingWeekday(weekday):
		day.NonWorking = true
		day.Reason = schedule.ReasonWeeklyOff
	case cfg.WeekdayOffRules.Contains(weekday, WeekdayOccurrence(date)):
		day.NonWorking = true
		day.Reason = schedule.ReasonWeekdayOffRule
	}

	if h, ok := holidaysByDate[dateutil.Format(date)]; ok && (!h.IsOptional || accepted[h.ID]) {
		holiday := h
		day.Holiday = &holiday
		if !day.NonWorking {
			day.NonWorking = true
			day.Reason = schedule.ReasonHoliday
		}
	}

	return day
}

func indexHolidays(holidays []schedule.Holiday) map[string]schedule.Holiday {
	byDate := make(map[string]schedule.Holiday, len(holidays))
	for _, h := range holidays {
		byDate[dateutil.Format(h.Date)] = h
	}
	return byDate
}
