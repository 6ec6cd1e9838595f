package workflow

import (
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"
)

var (
	ErrDefinitionNotFound = fmt.Errorf("workflow definition %w", apperror.ErrNotFound)
	ErrStepNotFound       = fmt.Errorf("workflow step %w", apperror.ErrNotFound)
	ErrRequestNotFound    = fmt.Errorf("workflow request %w", apperror.ErrNotFound)
	ErrApproverNotFound   = fmt.Errorf("approver %w", apperror.ErrNotFound)
	ErrNoMatchingWorkflow = fmt.Errorf("no workflow definition matches this request: %w", apperror.ErrNotFound)

	ErrRequestNotPending  = fmt.Errorf("workflow request is no longer pending: %w", apperror.ErrInvalidState)
	ErrNotCurrentStep     = fmt.Errorf("step is not the current step: %w", apperror.ErrInvalidState)
	ErrDefinitionInUse    = fmt.Errorf("workflow definition is referenced by requests: %w", apperror.ErrInvalidState)
	ErrNoApplicableSteps  = fmt.Errorf("workflow definition has no applicable steps: %w", apperror.ErrConfiguration)
	ErrStepUnassigned     = fmt.Errorf("current step has no active approver: %w", apperror.ErrConfiguration)
	ErrInvalidCondition   = fmt.Errorf("invalid step condition: %w", apperror.ErrConfiguration)
	ErrNotApprover        = fmt.Errorf("actor is not the approver of the current step: %w", apperror.ErrForbidden)
	ErrNotRequester       = fmt.Errorf("only the requester may change this request: %w", apperror.ErrForbidden)
	ErrVersionMismatch    = fmt.Errorf("workflow request was modified concurrently: %w", apperror.ErrConflict)
	ErrStepAlreadyActed   = fmt.Errorf("step has already been acted on: %w", apperror.ErrConflict)
	ErrStepOrderExists    = fmt.Errorf("step order already exists in this definition: %w", apperror.ErrConflict)
	ErrDefinitionConflict = fmt.Errorf("a definition with this type and department already exists: %w", apperror.ErrConflict)
)
