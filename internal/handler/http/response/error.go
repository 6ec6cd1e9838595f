package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses by their apperror kind
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	case errors.Is(err, apperror.ErrNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, apperror.ErrConflict):
		Conflict(w, err.Error())
	case errors.Is(err, apperror.ErrForbidden):
		Forbidden(w, err.Error())
	case errors.Is(err, apperror.ErrInvalidPunchSequence):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, apperror.ErrInvalidState):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, apperror.ErrConfiguration):
		BadRequest(w, err.Error(), nil)

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
