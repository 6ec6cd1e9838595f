package schedule

import (
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"
)

var (
	// Configuration errors
	ErrInvalidClockTime     = fmt.Errorf("invalid clock time: %w", apperror.ErrConfiguration)
	ErrEmptyWorkingDays     = fmt.Errorf("working days must not be empty: %w", apperror.ErrConfiguration)
	ErrInvalidWeekday       = fmt.Errorf("weekday must be between 0 and 6: %w", apperror.ErrConfiguration)
	ErrInvalidWeekIndex     = fmt.Errorf("week index must be between 1 and 5: %w", apperror.ErrConfiguration)
	ErrNegativeMinutes      = fmt.Errorf("minutes must not be negative: %w", apperror.ErrConfiguration)
	ErrInvalidTimezone      = fmt.Errorf("invalid timezone: %w", apperror.ErrConfiguration)
	ErrWorkEndBeforeStart   = fmt.Errorf("work end time must be after work start time: %w", apperror.ErrConfiguration)
	ErrInvalidCoordinates   = fmt.Errorf("office coordinates out of range: %w", apperror.ErrConfiguration)
	ErrInvalidHolidayFeed   = fmt.Errorf("holiday calendar could not be parsed: %w", apperror.ErrConfiguration)
	ErrHolidayNotOptional   = fmt.Errorf("holiday is not optional: %w", apperror.ErrInvalidState)
	ErrScheduleNotFound     = fmt.Errorf("schedule config %w", apperror.ErrNotFound)
	ErrBranchNotFound       = fmt.Errorf("branch %w", apperror.ErrNotFound)
	ErrHolidayNotFound      = fmt.Errorf("holiday %w", apperror.ErrNotFound)
	ErrHolidayAlreadyExists = fmt.Errorf("holiday already exists on this date: %w", apperror.ErrConflict)
)
