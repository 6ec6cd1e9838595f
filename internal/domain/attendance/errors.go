package attendance

import (
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"
)

var (
	ErrInvalidPunchSequence  = apperror.ErrInvalidPunchSequence
	ErrPunchValidationFailed = fmt.Errorf("punch rejected by location or identity validation: %w", apperror.ErrForbidden)
	ErrPunchInFuture         = fmt.Errorf("punch timestamp is in the future: %w", apperror.ErrInvalidState)

	ErrTimeslipNotFound        = fmt.Errorf("timeslip %w", apperror.ErrNotFound)
	ErrTimeslipNotPending      = fmt.Errorf("timeslip is no longer pending: %w", apperror.ErrInvalidState)
	ErrTimeslipNotOwner        = fmt.Errorf("timeslip belongs to another employee: %w", apperror.ErrForbidden)
	ErrTimeslipAlreadyExists   = fmt.Errorf("a pending timeslip already exists for this date: %w", apperror.ErrConflict)
	ErrTimeslipOnNonWorkingDay = fmt.Errorf("timeslip date is not a working day: %w", apperror.ErrInvalidState)
	ErrTimeslipFutureDate      = fmt.Errorf("timeslip date must not be in the future: %w", apperror.ErrInvalidState)
)
