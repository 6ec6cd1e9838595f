package schedule

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
)

const (
	icsMaxFileSize = 5 * 1024 * 1024
	// a single holiday event longer than this is treated as malformed
	icsMaxEventDays = 31
	sourceICS       = "ics"
)

// ParseHolidayCalendar turns the VEVENTs of an iCalendar feed into holidays, one per
// covered date. Events tagged with an "optional" category become optional holidays.
func ParseHolidayCalendar(r io.Reader, organizationID string, markAllOptional bool) ([]schedule.Holiday, int, error) {
	cal, err := ics.ParseCalendar(io.LimitReader(r, icsMaxFileSize))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", schedule.ErrInvalidHolidayFeed, err)
	}

	var holidays []schedule.Holiday
	seen := make(map[string]bool)
	events := cal.Events()
	for _, evt := range events {
		summary := evt.GetProperty(ics.ComponentPropertySummary)
		if summary == nil || strings.TrimSpace(summary.Value) == "" {
			continue
		}
		start, err := icsDate(evt, ics.ComponentPropertyDtStart)
		if err != nil {
			continue
		}
		// DTEND is exclusive for all-day events; a missing DTEND means a single day
		end := start
		if dtEnd, err := icsDate(evt, ics.ComponentPropertyDtEnd); err == nil && dtEnd.After(start) {
			end = dtEnd.AddDate(0, 0, -1)
		}
		if end.Sub(start).Hours()/24 > icsMaxEventDays {
			continue
		}

		optional := markAllOptional || hasOptionalCategory(evt)
		for _, d := range dateutil.Range(start, end) {
			key := dateutil.Format(d)
			if seen[key] {
				continue
			}
			seen[key] = true
			holidays = append(holidays, schedule.Holiday{
				OrganizationID: organizationID,
				Date:           d,
				Name:           strings.TrimSpace(summary.Value),
				IsOptional:     optional,
				Source:         sourceICS,
			})
		}
	}
	return holidays, len(events), nil
}

func icsDate(evt *ics.VEvent, prop ics.ComponentProperty) (time.Time, error) {
	p := evt.GetProperty(prop)
	if p == nil {
		return time.Time{}, fmt.Errorf("missing property %s", prop)
	}
	val := strings.TrimSpace(p.Value)
	if len(val) < 8 {
		return time.Time{}, fmt.Errorf("invalid date %q", val)
	}
	// holidays are whole days; the time part of a DATE-TIME value is ignored
	return time.ParseInLocation("20060102", val[:8], time.UTC)
}

func hasOptionalCategory(evt *ics.VEvent) bool {
	p := evt.GetProperty(ics.ComponentPropertyCategories)
	if p == nil {
		return false
	}
	for _, c := range strings.Split(p.Value, ",") {
		if strings.EqualFold(strings.TrimSpace(c), "optional") {
			return true
		}
	}
	return false
}
