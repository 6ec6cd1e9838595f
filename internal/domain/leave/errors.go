package leave

import (
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"
)

var (
	ErrLeaveRequestNotFound   = fmt.Errorf("leave request %w", apperror.ErrNotFound)
	ErrLeaveRequestNotPending = fmt.Errorf("leave request already processed: %w", apperror.ErrInvalidState)
	ErrLeaveRequestNotOwner   = fmt.Errorf("leave request belongs to another employee: %w", apperror.ErrForbidden)
	ErrLeaveOverlaps          = fmt.Errorf("leave overlaps an existing request: %w", apperror.ErrConflict)
	ErrNoWorkingDays          = fmt.Errorf("leave range contains no working days: %w", apperror.ErrInvalidState)
)
