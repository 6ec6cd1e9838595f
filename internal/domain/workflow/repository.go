package workflow

import "context"

type DefinitionRepository interface {
	Create(ctx context.Context, def Definition) (Definition, error)
	// GetByID loads the steps with their active approvers
	GetByID(ctx context.Context, id string, organizationID string) (Definition, error)
	List(ctx context.Context, organizationID string) ([]Definition, error)
	// FindForSubject prefers a definition scoped to department over an unscoped one
	FindForSubject(ctx context.Context, organizationID string, t Type, department *string) (Definition, error)
	Update(ctx context.Context, def Definition) (Definition, error)
	Delete(ctx context.Context, id string, organizationID string) error
	IsReferenced(ctx context.Context, definitionID string) (bool, error)

	CreateStep(ctx context.Context, step Step) (Step, error)
	GetStep(ctx context.Context, stepID string, organizationID string) (Step, error)
	UpdateStep(ctx context.Context, step Step) (Step, error)
	DeleteStep(ctx context.Context, stepID string) error

	// DeactivateAssignments revokes the active assignment of a step, if any
	DeactivateAssignments(ctx context.Context, stepID string) error
	CreateAssignment(ctx context.Context, assignment Assignment) (Assignment, error)
	ListAssignments(ctx context.Context, stepID string) ([]Assignment, error)
}

type RequestRepository interface {
	Create(ctx context.Context, req Request) (Request, error)
	// GetByID loads the request with its recorded actions
	GetByID(ctx context.Context, id string, organizationID string) (Request, error)
	// CompareAndSwap persists req and its newly recorded action only if the stored
	// row is still pending at expectedVersion; otherwise it returns ErrVersionMismatch.
	CompareAndSwap(ctx context.Context, req Request, expectedVersion int, action Action) error
	// Touch bumps the version of a pending request
	Touch(ctx context.Context, id string, expectedVersion int) error
	// Delete removes a pending request; terminal requests return ErrRequestNotPending
	Delete(ctx context.Context, id string, organizationID string) error
	// ListPendingForApprover returns pending requests whose current step is assigned to approverID
	ListPendingForApprover(ctx context.Context, organizationID string, approverID string) ([]Request, error)

	AppendEvent(ctx context.Context, event TransitionEvent) error
	ListEvents(ctx context.Context, requestID string) ([]TransitionEvent, error)
}
