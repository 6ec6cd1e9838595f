package schedule

import (
	"strings"
	"testing"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const holidayFeed = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//HR//Holidays//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:new-year@hr\r\n" +
	"DTSTART;VALUE=DATE:20250101\r\n" +
	"DTEND;VALUE=DATE:20250102\r\n" +
	"SUMMARY:New Year's Day\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:eid@hr\r\n" +
	"DTSTART;VALUE=DATE:20250331\r\n" +
	"DTEND;VALUE=DATE:20250402\r\n" +
	"SUMMARY:Eid al-Fitr\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:regional@hr\r\n" +
	"DTSTART;VALUE=DATE:20250520\r\n" +
	"SUMMARY:Regional Day\r\n" +
	"CATEGORIES:Optional\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:untitled@hr\r\n" +
	"DTSTART;VALUE=DATE:20250601\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestParseHolidayCalendar(t *testing.T) {
	holidays, parsed, err := ParseHolidayCalendar(strings.NewReader(holidayFeed), "org-1", false)
	require.NoError(t, err)
	assert.Equal(t, 4, parsed)
	require.Len(t, holidays, 4)

	byDate := map[string]schedule.Holiday{}
	for _, h := range holidays {
		byDate[dateutil.Format(h.Date)] = h
	}

	assert.Equal(t, "New Year's Day", byDate["2025-01-01"].Name)
	assert.Contains(t, byDate, "2025-03-31")
	assert.Contains(t, byDate, "2025-04-01")
	assert.NotContains(t, byDate, "2025-04-02")
	assert.True(t, byDate["2025-05-20"].IsOptional)
	assert.False(t, byDate["2025-01-01"].IsOptional)
	assert.Equal(t, "org-1", byDate["2025-01-01"].OrganizationID)
}

func TestParseHolidayCalendar_MarkAllOptional(t *testing.T) {
	holidays, _, err := ParseHolidayCalendar(strings.NewReader(holidayFeed), "org-1", true)
	require.NoError(t, err)
	for _, h := range holidays {
		assert.True(t, h.IsOptional)
	}
}

func TestParseHolidayCalendar_Garbage(t *testing.T) {
	_, _, err := ParseHolidayCalendar(strings.NewReader("not a calendar"), "org-1", false)
	assert.ErrorIs(t, err, apperror.ErrConfiguration)
}
