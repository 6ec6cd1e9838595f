package workflow

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// ========================================
// DEFINITION DTOs
// ========================================

type StepInput struct {
	Name       string  `json:"name"`
	Condition  *string `json:"condition"`
	ApproverID *string `json:"approver_id"`
}

type CreateDefinitionRequest struct {
	OrganizationID string      `json:"-"`
	AssignedBy     string      `json:"-"`
	Name           string      `json:"name"`
	Type           string      `json:"type"`
	Department     *string     `json:"department"`
	Steps          []StepInput `json:"steps"`
}

func (r *CreateDefinitionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "name is required"})
	}
	if !validator.IsInSlice(r.Type, TypeValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of: " + strings.Join(TypeValues, ", "),
		})
	}
	if r.Department != nil && validator.IsEmpty(*r.Department) {
		r.Department = nil
	}
	for _, s := range r.Steps {
		if stepErrs := validateStepInput(s.Name, s.Condition); len(stepErrs) > 0 {
			errs = append(errs, stepErrs...)
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateStepInput(name string, condition *string) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if validator.IsEmpty(name) {
		errs = append(errs, validator.ValidationError{Field: "steps.name", Message: "step name is required"})
	}
	if condition != nil && !validator.IsEmpty(*condition) {
		if _, err := ParseCondition(*condition); err != nil {
			errs = append(errs, validator.ValidationError{Field: "steps.condition", Message: "condition must look like 'days > 2'"})
		}
	}
	return errs
}

type UpdateDefinitionRequest struct {
	ID             string  `json:"-"`
	OrganizationID string  `json:"-"`
	Name           string  `json:"name"`
	Department     *string `json:"department"`
}

func (r *UpdateDefinitionRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "name is required"})
	}
	if r.Department != nil && validator.IsEmpty(*r.Department) {
		r.Department = nil
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AddStepRequest struct {
	OrganizationID string  `json:"-"`
	DefinitionID   string  `json:"-"`
	AssignedBy     string  `json:"-"`
	StepOrder      *int    `json:"step_order"`
	Name           string  `json:"name"`
	Condition      *string `json:"condition"`
	ApproverID     *string `json:"approver_id"`
}

func (r *AddStepRequest) Validate() error {
	errs := validateStepInput(r.Name, r.Condition)
	if r.StepOrder != nil && *r.StepOrder < 1 {
		errs = append(errs, validator.ValidationError{Field: "step_order", Message: "step_order must be a positive number"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateStepRequest struct {
	OrganizationID string  `json:"-"`
	StepID         string  `json:"-"`
	Name           string  `json:"name"`
	Condition      *string `json:"condition"`
}

func (r *UpdateStepRequest) Validate() error {
	if errs := validateStepInput(r.Name, r.Condition); len(errs) > 0 {
		return errs
	}
	return nil
}

type AssignApproverRequest struct {
	OrganizationID string `json:"-"`
	StepID         string `json:"-"`
	AssignedBy     string `json:"-"`
	ApproverID     string `json:"approver_id"`
}

func (r *AssignApproverRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.ApproverID) {
		errs = append(errs, validator.ValidationError{Field: "approver_id", Message: "approver_id is required"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AssignmentResponse struct {
	ID         string  `json:"id"`
	StepID     string  `json:"step_id"`
	ApproverID string  `json:"approver_id"`
	AssignedBy string  `json:"assigned_by"`
	IsActive   bool    `json:"is_active"`
	AssignedAt string  `json:"assigned_at"`
	RevokedAt  *string `json:"revoked_at,omitempty"`
}

func NewAssignmentResponse(a Assignment) AssignmentResponse {
	resp := AssignmentResponse{
		ID:         a.ID,
		StepID:     a.StepID,
		ApproverID: a.ApproverID,
		AssignedBy: a.AssignedBy,
		IsActive:   a.IsActive,
		AssignedAt: a.AssignedAt.Format(time.RFC3339),
	}
	if a.RevokedAt != nil {
		s := a.RevokedAt.Format(time.RFC3339)
		resp.RevokedAt = &s
	}
	return resp
}

type StepResponse struct {
	ID        string              `json:"id"`
	StepOrder int                 `json:"step_order"`
	Name      string              `json:"name"`
	Condition *string             `json:"condition,omitempty"`
	Approver  *AssignmentResponse `json:"approver,omitempty"`
}

func NewStepResponse(s Step) StepResponse {
	resp := StepResponse{ID: s.ID, StepOrder: s.StepOrder, Name: s.Name, Condition: s.Condition}
	if s.Approver != nil {
		a := NewAssignmentResponse(*s.Approver)
		resp.Approver = &a
	}
	return resp
}

type DefinitionResponse struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Department *string        `json:"department"`
	Steps      []StepResponse `json:"steps"`
	CreatedAt  string         `json:"created_at"`
	UpdatedAt  string         `json:"updated_at"`
}

func NewDefinitionResponse(d Definition) DefinitionResponse {
	steps := make([]StepResponse, 0, len(d.Steps))
	for _, s := range d.SortedSteps() {
		steps = append(steps, NewStepResponse(s))
	}
	return DefinitionResponse{
		ID:         d.ID,
		Name:       d.Name,
		Type:       string(d.Type),
		Department: d.Department,
		Steps:      steps,
		CreatedAt:  d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  d.UpdatedAt.Format(time.RFC3339),
	}
}

// ========================================
// REQUEST DTOs
// ========================================

type SubmitRequest struct {
	OrganizationID string
	Type           Type
	SubjectID      string
	RequesterID    string
	Facts          SubjectFacts
}

type ActRequest struct {
	OrganizationID string   `json:"-"`
	RequestID      string   `json:"-"`
	ActorID        string   `json:"-"`
	Decision       Decision `json:"-"`
	// StepOrder defaults to the current step
	StepOrder *int `json:"step_order"`
	// ExpectedVersion is the request version the approver decided on; required
	ExpectedVersion *int   `json:"expected_version"`
	Comment         string `json:"comment"`
}

func (r *ActRequest) Validate() error {
	var errs validator.ValidationErrors
	if r.Decision == DecisionReject && validator.IsEmpty(r.Comment) {
		errs = append(errs, validator.ValidationError{Field: "comment", Message: "comment is required when rejecting"})
	}
	if r.ExpectedVersion == nil {
		errs = append(errs, validator.ValidationError{Field: "expected_version", Message: "expected_version is required"})
	}
	if r.StepOrder != nil && *r.StepOrder < 1 {
		errs = append(errs, validator.ValidationError{Field: "step_order", Message: "step_order must be a positive number"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ActionResponse struct {
	StepOrder int    `json:"step_order"`
	ActorID   string `json:"actor_id"`
	Decision  string `json:"decision"`
	Comment   string `json:"comment,omitempty"`
	ActedAt   string `json:"acted_at"`
}

type RequestResponse struct {
	ID               string           `json:"id"`
	DefinitionID     string           `json:"definition_id"`
	Type             string           `json:"type"`
	SubjectID        string           `json:"subject_id"`
	RequesterID      string           `json:"requester_id"`
	Status           string           `json:"status"`
	Version          int              `json:"version"`
	StepOrders       []int            `json:"step_orders"`
	CurrentStepOrder *int             `json:"current_step_order"`
	Actions          []ActionResponse `json:"actions"`
	SubmittedAt      string           `json:"submitted_at"`
	CompletedAt      *string          `json:"completed_at,omitempty"`
}

func NewRequestResponse(r Request) RequestResponse {
	actions := make([]ActionResponse, 0, len(r.Actions))
	for _, a := range r.Actions {
		actions = append(actions, ActionResponse{
			StepOrder: a.StepOrder,
			ActorID:   a.ActorID,
			Decision:  string(a.Decision),
			Comment:   a.Comment,
			ActedAt:   a.ActedAt.Format(time.RFC3339),
		})
	}
	resp := RequestResponse{
		ID:           r.ID,
		DefinitionID: r.DefinitionID,
		Type:         string(r.Type),
		SubjectID:    r.SubjectID,
		RequesterID:  r.RequesterID,
		Status:       string(r.Status),
		Version:      r.Version,
		StepOrders:   r.StepOrders,
		Actions:      actions,
		SubmittedAt:  r.SubmittedAt.Format(time.RFC3339),
	}
	if current, ok := r.CurrentStep(); ok {
		resp.CurrentStepOrder = &current
	}
	if r.CompletedAt != nil {
		s := r.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &s
	}
	return resp
}

type TransitionEventResponse struct {
	ID               string `json:"id"`
	RequestID        string `json:"request_id"`
	FromState        string `json:"from_state"`
	ToState          string `json:"to_state"`
	ActingApproverID string `json:"acting_approver_id"`
	StepOrder        int    `json:"step_order"`
	NextStepOrder    *int   `json:"next_step_order,omitempty"`
	Timestamp        string `json:"timestamp"`
}

func NewTransitionEventResponse(e TransitionEvent) TransitionEventResponse {
	resp := TransitionEventResponse{
		ID:               e.ID,
		RequestID:        e.RequestID,
		FromState:        string(e.FromState),
		ToState:          string(e.ToState),
		ActingApproverID: e.ActingApproverID,
		StepOrder:        e.StepOrder,
		Timestamp:        e.Timestamp.Format(time.RFC3339),
	}
	if e.NextStepOrder > 0 {
		next := e.NextStepOrder
		resp.NextStepOrder = &next
	}
	return resp
}
