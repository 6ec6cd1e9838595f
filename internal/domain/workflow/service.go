package workflow

import "context"

// CompletionHandler applies the side effects of a terminal decision to the
// request's subject. It runs inside the transaction that recorded the decision.
type CompletionHandler interface {
	OnApproved(ctx context.Context, req Request) error
	OnRejected(ctx context.Context, req Request) error
}

// Submitter is what subject services need to drive their workflow request
type Submitter interface {
	Submit(ctx context.Context, req SubmitRequest) (Request, error)
	// Withdraw deletes a pending request on behalf of its requester
	Withdraw(ctx context.Context, organizationID, requestID, requesterID string) error
	// MarkSubjectEdited bumps the version so in-flight decisions on the old content conflict
	MarkSubjectEdited(ctx context.Context, organizationID, requestID string) error
}

type WorkflowService interface {
	Submitter

	CreateDefinition(ctx context.Context, req CreateDefinitionRequest) (DefinitionResponse, error)
	GetDefinition(ctx context.Context, organizationID, id string) (DefinitionResponse, error)
	ListDefinitions(ctx context.Context, organizationID string) ([]DefinitionResponse, error)
	UpdateDefinition(ctx context.Context, req UpdateDefinitionRequest) (DefinitionResponse, error)
	DeleteDefinition(ctx context.Context, organizationID, id string) error

	AddStep(ctx context.Context, req AddStepRequest) (StepResponse, error)
	UpdateStep(ctx context.Context, req UpdateStepRequest) (StepResponse, error)
	DeleteStep(ctx context.Context, organizationID, stepID string) error
	AssignApprover(ctx context.Context, req AssignApproverRequest) (AssignmentResponse, error)

	GetRequest(ctx context.Context, organizationID, id string) (RequestResponse, error)
	ListPendingForApprover(ctx context.Context, organizationID, approverID string) ([]RequestResponse, error)
	Act(ctx context.Context, req ActRequest) (RequestResponse, error)
	History(ctx context.Context, organizationID, id string) ([]TransitionEventResponse, error)
}
