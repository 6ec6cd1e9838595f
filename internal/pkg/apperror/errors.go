// Package apperror holds the error kinds shared across domains. Domain packages
// declare their own sentinels wrapping one of these so the HTTP layer can map
// any of them without knowing every domain.
package apperror

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidState         = errors.New("invalid state")
	ErrConflict             = errors.New("conflict")
	ErrConfiguration        = errors.New("invalid configuration")
	ErrInvalidPunchSequence = errors.New("invalid punch sequence")
	ErrForbidden            = errors.New("forbidden")
)
