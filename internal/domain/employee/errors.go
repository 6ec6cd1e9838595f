package employee

import (
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"
)

var (
	ErrEmployeeNotFound = fmt.Errorf("employee %w", apperror.ErrNotFound)
	ErrEmployeeInactive = fmt.Errorf("employee is inactive: %w", apperror.ErrInvalidState)
)
