package report

import (
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"
)

var (
	ErrUnknownExportCode = fmt.Errorf("unknown export code: %w", apperror.ErrConfiguration)
	ErrNoEmployees       = fmt.Errorf("no active employees for report: %w", apperror.ErrNotFound)
)
