package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/workflow"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/sse"
	"github.com/google/uuid"
)

// EventTransition is the SSE event name for workflow transitions
const EventTransition = "workflow.transition"

type WorkflowServiceImpl struct {
	tx           database.Transactor
	defRepo      workflow.DefinitionRepository
	requestRepo  workflow.RequestRepository
	employeeRepo employee.EmployeeRepository
	hub          *sse.Hub
	now          func() time.Time

	mu       sync.RWMutex
	handlers map[workflow.Type]workflow.CompletionHandler
}

func NewWorkflowService(
	tx database.Transactor,
	defRepo workflow.DefinitionRepository,
	requestRepo workflow.RequestRepository,
	employeeRepo employee.EmployeeRepository,
	hub *sse.Hub,
) *WorkflowServiceImpl {
	return &WorkflowServiceImpl{
		tx:           tx,
		defRepo:      defRepo,
		requestRepo:  requestRepo,
		employeeRepo: employeeRepo,
		hub:          hub,
		now:          time.Now,
		handlers:     make(map[workflow.Type]workflow.CompletionHandler),
	}
}

// RegisterCompletionHandler sets the side effect run when a request of type t
// becomes terminal. Types without a handler complete with no side effect.
func (s *WorkflowServiceImpl) RegisterCompletionHandler(t workflow.Type, h workflow.CompletionHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[t] = h
}

func (s *WorkflowServiceImpl) handler(t workflow.Type) (workflow.CompletionHandler, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.handlers[t]
	return h, ok
}

// ========================================
// DEFINITIONS
// ========================================

// CreateDefinition implements workflow.WorkflowService.
func (s *WorkflowServiceImpl) CreateDefinition(ctx context.Context, req workflow.CreateDefinitionRequest) (workflow.DefinitionResponse, error) {
	if err := req.Validate(); err != nil {
		return workflow.DefinitionResponse{}, err
	}

	now := s.now()
	def := workflow.Definition{
		ID:             uuid.NewString(),
		OrganizationID: req.OrganizationID,
		Name:           req.Name,
		Type:           workflow.Type(req.Type),
		Department:     req.Department,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	var id string
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		created, err := s.defRepo.Create(txCtx, def)
		if err != nil {
			return err
		}
		id = created.ID

		for i, in := range req.Steps {
			condition, err := normalizeCondition(in.Condition)
			if err != nil {
				return err
			}
			step, err := s.defRepo.CreateStep(txCtx, workflow.Step{
				ID:           uuid.NewString(),
				DefinitionID: created.ID,
				StepOrder:    i + 1,
				Name:         in.Name,
				Condition:    condition,
			})
			if err != nil {
				return err
			}
			if in.ApproverID != nil && *in.ApproverID != "" {
				if _, err := s.assign(txCtx, req.OrganizationID, step.ID, *in.ApproverID, req.AssignedBy); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return workflow.DefinitionResponse{}, err
	}

	return s.GetDefinition(ctx, req.OrganizationID, id)
}

// GetDefinition implements workflow.WorkflowService.
func (s *WorkflowServiceImpl) GetDefinition(ctx context.Context, organizationID, id string) (workflow.DefinitionResponse, error) {
	def, err := s.defRepo.GetByID(ctx, id, organizationID)
	if err != nil {
		return workflow.DefinitionResponse{}, err
	}
	return workflow.NewDefinitionResponse(def), nil
}

// ListDefinitions implements workflow.WorkflowService.
func (s *WorkflowServiceImpl) ListDefinitions(ctx context.Context, organizationID string) ([]workflow.DefinitionResponse, error) {
	defs, err := s.defRepo.List(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow definitions: %w", err)
	}

	resp := make([]workflow.DefinitionResponse, 0, len(defs))
	for _, d := range defs {
		resp = append(resp, workflow.NewDefinitionResponse(d))
	}
	return resp, nil
}

// UpdateDefinition implements workflow.WorkflowService.
func (s *WorkflowServiceImpl) UpdateDefinition(ctx context.Context, req workflow.UpdateDefinitionRequest) (workflow.DefinitionResponse, error) {
	if err := req.Validate(); err != nil {
		return workflow.DefinitionResponse{}, err
	}

	def, err := s.mutableDefinition(ctx, req.OrganizationID, req.ID)
	if err != nil {
		return workflow.DefinitionResponse{}, err
	}

	def.Name = req.Name
	def.Department = req.Department
	def.UpdatedAt = s.now()
	if _, err := s.defRepo.Update(ctx, def); err != nil {
		return workflow.DefinitionResponse{}, err
	}

	return s.GetDefinition(ctx, req.OrganizationID, def.ID)
}

// DeleteDefinition implements workflow.WorkflowService.
func (s *WorkflowServiceImpl) DeleteDefinition(ctx context.Context, organizationID, id string) error {
	if _, err := s.mutableDefinition(ctx, organizationID, id); err != nil {
		return err
	}
	return s.defRepo.Delete(ctx, id, organizationID)
}

// mutableDefinition loads a definition that no request references yet
func (s *WorkflowServiceImpl) mutableDefinition(ctx context.Context, organizationID, id string) (workflow.Definition, error) {
	def, err := s.defRepo.GetByID(ctx, id, organizationID)
	if err != nil {
		return workflow.Definition{}, err
	}
	referenced, err := s.defRepo.IsReferenced(ctx, def.ID)
	if err != nil {
		return workflow.Definition{}, fmt.Errorf("failed to check definition usage: %w", err)
	}
	if referenced {
		return workflow.Definition{}, workflow.ErrDefinitionInUse
	}
	return def, nil
}

// ========================================
// STEPS & ASSIGNMENTS
// ========================================

// AddStep implements workflow.WorkflowService.
func (s *WorkflowServiceImpl) AddStep(ctx context.Context, req workflow.AddStepRequest) (workflow.StepResponse, error) {
	if err := req.Validate(); err != nil {
		return workflow.StepResponse{}, err
	}

	def, err := s.mutableDefinition(ctx, req.OrganizationID, req.DefinitionID)
	if err != nil {
		return workflow.StepResponse{}, err
	}

	order := 1
	for _, st := range def.Steps {
		if st.StepOrder >= order {
			order = st.StepOrder + 1
		}
	}
	if req.StepOrder != nil {
		if _, exists := def.StepByOrder(*req.StepOrder); exists {
			return workflow.StepResponse{}, workflow.ErrStepOrderExists
		}
		order = *req.StepOrder
	}

	condition, err := normalizeCondition(req.Condition)
	if err != nil {
		return workflow.StepResponse{}, err
	}

	var step workflow.Step
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		step, err = s.defRepo.CreateStep(txCtx, workflow.Step{
			ID:           uuid.NewString(),
			DefinitionID: def.ID,
			StepOrder:    order,
			Name:         req.Name,
			Condition:    condition,
		})
		if err != nil {
			return err
		}
		if req.ApproverID != nil && *req.ApproverID != "" {
			a, err := s.assign(txCtx, req.OrganizationID, step.ID, *req.ApproverID, req.AssignedBy)
			if err != nil {
				return err
			}
			step.Approver = &a
		}
		return nil
	})
	if err != nil {
		return workflow.StepResponse{}, err
	}

	return workflow.NewStepResponse(step), nil
}

// UpdateStep implements workflow.WorkflowService.
func (s *WorkflowServiceImpl) UpdateStep(ctx context.Context, req workflow.UpdateStepRequest) (workflow.StepResponse, error) {
	if err := req.Validate(); err != nil {
		return workflow.StepResponse{}, err
	}

	step, err := s.mutableStep(ctx, req.OrganizationID, req.StepID)
	if err != nil {
		return workflow.StepResponse{}, err
	}

	condition, err := normalizeCondition(req.Condition)
	if err != nil {
		return workflow.StepResponse{}, err
	}
	step.Name = req.Name
	step.Condition = condition
	updated, err := s.defRepo.UpdateStep(ctx, step)
	if err != nil {
		return workflow.StepResponse{}, err
	}
	updated.Approver = step.Approver
	return workflow.NewStepResponse(updated), nil
}

// DeleteStep implements workflow.WorkflowService.
func (s *WorkflowServiceImpl) DeleteStep(ctx context.Context, organizationID, stepID string) error {
	step, err := s.mutableStep(ctx, organizationID, stepID)
	if err != nil {
		return err
	}
	return s.defRepo.DeleteStep(ctx, step.ID)
}

func (s *WorkflowServiceImpl) mutableStep(ctx context.Context, organizationID, stepID string) (workflow.Step, error) {
	step, err := s.defRepo.GetStep(ctx, stepID, organizationID)
	if err != nil {
		return workflow.Step{}, err
	}
	if _, err := s.mutableDefinition(ctx, organizationID, step.DefinitionID); err != nil {
		return workflow.Step{}, err
	}
	return step, nil
}

// AssignApprover implements workflow.WorkflowService. Reassignment stays
// allowed while requests are in flight; the new approver takes over the step.
func (s *WorkflowServiceImpl) AssignApprover(ctx context.Context, req workflow.AssignApproverRequest) (workflow.AssignmentResponse, error) {
	if err := req.Validate(); err != nil {
		return workflow.AssignmentResponse{}, err
	}

	step, err := s.defRepo.GetStep(ctx, req.StepID, req.OrganizationID)
	if err != nil {
		return workflow.AssignmentResponse{}, err
	}

	var assignment workflow.Assignment
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		assignment, err = s.assign(txCtx, req.OrganizationID, step.ID, req.ApproverID, req.AssignedBy)
		return err
	})
	if err != nil {
		return workflow.AssignmentResponse{}, err
	}

	return workflow.NewAssignmentResponse(assignment), nil
}

// assign replaces the active assignment of a step; callers hold a transaction
func (s *WorkflowServiceImpl) assign(ctx context.Context, organizationID, stepID, approverID, assignedBy string) (workflow.Assignment, error) {
	approver, err := s.employeeRepo.GetByID(ctx, approverID, organizationID)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return workflow.Assignment{}, workflow.ErrApproverNotFound
		}
		return workflow.Assignment{}, err
	}
	if !approver.IsActive {
		return workflow.Assignment{}, employee.ErrEmployeeInactive
	}

	if err := s.defRepo.DeactivateAssignments(ctx, stepID); err != nil {
		return workflow.Assignment{}, fmt.Errorf("failed to revoke previous approver: %w", err)
	}
	return s.defRepo.CreateAssignment(ctx, workflow.Assignment{
		ID:         uuid.NewString(),
		StepID:     stepID,
		ApproverID: approverID,
		AssignedBy: assignedBy,
		IsActive:   true,
		AssignedAt: s.now(),
	})
}

// normalizeCondition stores a condition in its canonical "field op value" form.
// A blank condition means the step always applies.
func normalizeCondition(c *string) (*string, error) {
	if c == nil || strings.TrimSpace(*c) == "" {
		return nil, nil
	}
	cond, err := workflow.ParseCondition(*c)
	if err != nil {
		return nil, err
	}
	normalized := cond.String()
	return &normalized, nil
}

// ========================================
// REQUESTS
// ========================================

// Submit implements workflow.Submitter. It joins the caller's transaction so
// the subject and its request are created together.
func (s *WorkflowServiceImpl) Submit(ctx context.Context, req workflow.SubmitRequest) (workflow.Request, error) {
	requester, err := s.employeeRepo.GetByID(ctx, req.RequesterID, req.OrganizationID)
	if err != nil {
		return workflow.Request{}, err
	}

	def, err := s.defRepo.FindForSubject(ctx, req.OrganizationID, req.Type, requester.Department)
	if err != nil {
		return workflow.Request{}, err
	}

	orders, err := workflow.ApplicableStepOrders(def, req.Facts)
	if err != nil {
		return workflow.Request{}, fmt.Errorf("%w: %v", workflow.ErrInvalidCondition, err)
	}
	if len(orders) == 0 {
		return workflow.Request{}, workflow.ErrNoApplicableSteps
	}
	for _, order := range orders {
		step, _ := def.StepByOrder(order)
		if step.Approver == nil || !step.Approver.IsActive {
			return workflow.Request{}, fmt.Errorf("%w: step %d", workflow.ErrStepUnassigned, order)
		}
	}

	now := s.now()
	request := workflow.Request{
		ID:             uuid.NewString(),
		OrganizationID: req.OrganizationID,
		DefinitionID:   def.ID,
		Type:           req.Type,
		SubjectID:      req.SubjectID,
		RequesterID:    req.RequesterID,
		Status:         workflow.StatusPending,
		Version:        1,
		StepOrders:     orders,
		SubmittedAt:    now,
		UpdatedAt:      now,
	}

	var created workflow.Request
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		created, err = s.requestRepo.Create(txCtx, request)
		if err != nil {
			return fmt.Errorf("failed to create workflow request: %w", err)
		}
		return s.requestRepo.AppendEvent(txCtx, workflow.TransitionEvent{
			ID:               uuid.NewString(),
			RequestID:        created.ID,
			OrganizationID:   created.OrganizationID,
			ToState:          workflow.StatusPending,
			ActingApproverID: req.RequesterID,
			NextStepOrder:    orders[0],
			Timestamp:        now,
		})
	})
	if err != nil {
		return workflow.Request{}, err
	}

	return created, nil
}

// Withdraw implements workflow.Submitter.
func (s *WorkflowServiceImpl) Withdraw(ctx context.Context, organizationID, requestID, requesterID string) error {
	req, err := s.requestRepo.GetByID(ctx, requestID, organizationID)
	if err != nil {
		return err
	}
	if req.RequesterID != requesterID {
		return workflow.ErrNotRequester
	}
	if req.Status.IsTerminal() {
		return workflow.ErrRequestNotPending
	}
	return s.requestRepo.Delete(ctx, req.ID, organizationID)
}

// MarkSubjectEdited implements workflow.Submitter.
func (s *WorkflowServiceImpl) MarkSubjectEdited(ctx context.Context, organizationID, requestID string) error {
	req, err := s.requestRepo.GetByID(ctx, requestID, organizationID)
	if err != nil {
		return err
	}
	if req.Status.IsTerminal() {
		return workflow.ErrRequestNotPending
	}
	return s.requestRepo.Touch(ctx, req.ID, req.Version)
}

// GetRequest implements workflow.WorkflowService.
func (s *WorkflowServiceImpl) GetRequest(ctx context.Context, organizationID, id string) (workflow.RequestResponse, error) {
	req, err := s.requestRepo.GetByID(ctx, id, organizationID)
	if err != nil {
		return workflow.RequestResponse{}, err
	}
	return workflow.NewRequestResponse(req), nil
}

// ListPendingForApprover implements workflow.WorkflowService.
func (s *WorkflowServiceImpl) ListPendingForApprover(ctx context.Context, organizationID, approverID string) ([]workflow.RequestResponse, error) {
	reqs, err := s.requestRepo.ListPendingForApprover(ctx, organizationID, approverID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}

	resp := make([]workflow.RequestResponse, 0, len(reqs))
	for _, r := range reqs {
		resp = append(resp, workflow.NewRequestResponse(r))
	}
	return resp, nil
}

// History implements workflow.WorkflowService.
func (s *WorkflowServiceImpl) History(ctx context.Context, organizationID, id string) ([]workflow.TransitionEventResponse, error) {
	req, err := s.requestRepo.GetByID(ctx, id, organizationID)
	if err != nil {
		return nil, err
	}
	events, err := s.requestRepo.ListEvents(ctx, req.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transition events: %w", err)
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Timestamp.Before(events[j].Timestamp) })

	resp := make([]workflow.TransitionEventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, workflow.NewTransitionEventResponse(e))
	}
	return resp, nil
}

// Act implements workflow.WorkflowService. The transition, its event and the
// completion side effect commit together; the version check in CompareAndSwap
// lets exactly one of two concurrent actors through.
func (s *WorkflowServiceImpl) Act(ctx context.Context, req workflow.ActRequest) (workflow.RequestResponse, error) {
	if err := req.Validate(); err != nil {
		return workflow.RequestResponse{}, err
	}

	var t Transition
	var notify []string
	err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.requestRepo.GetByID(txCtx, req.RequestID, req.OrganizationID)
		if err != nil {
			return err
		}
		def, err := s.defRepo.GetByID(txCtx, current.DefinitionID, req.OrganizationID)
		if err != nil {
			return err
		}

		t, err = Apply(current, def, Decision{
			ActorID:         req.ActorID,
			Decision:        req.Decision,
			StepOrder:       req.StepOrder,
			ExpectedVersion: req.ExpectedVersion,
			Comment:         req.Comment,
		}, s.now())
		if err != nil {
			return err
		}

		if err := s.requestRepo.CompareAndSwap(txCtx, t.Request, current.Version, t.Action); err != nil {
			return err
		}
		if err := s.requestRepo.AppendEvent(txCtx, t.Event); err != nil {
			return fmt.Errorf("failed to record transition: %w", err)
		}
		if err := s.complete(txCtx, t.Request); err != nil {
			return err
		}

		notify = []string{t.Request.RequesterID, req.ActorID}
		if t.Event.NextStepOrder > 0 {
			if next, ok := def.StepByOrder(t.Event.NextStepOrder); ok && next.Approver != nil {
				notify = append(notify, next.Approver.ApproverID)
			}
		}
		return nil
	})
	if err != nil {
		return workflow.RequestResponse{}, err
	}

	s.publish(t.Event, notify)
	return workflow.NewRequestResponse(t.Request), nil
}

func (s *WorkflowServiceImpl) complete(ctx context.Context, req workflow.Request) error {
	if !req.Status.IsTerminal() {
		return nil
	}
	h, ok := s.handler(req.Type)
	if !ok {
		return nil
	}

	var err error
	if req.Status == workflow.StatusApproved {
		err = h.OnApproved(ctx, req)
	} else {
		err = h.OnRejected(ctx, req)
	}
	if err != nil {
		return fmt.Errorf("failed to apply %s decision to %s %s: %w", req.Status, req.Type, req.SubjectID, err)
	}
	return nil
}

func (s *WorkflowServiceImpl) publish(event workflow.TransitionEvent, employeeIDs []string) {
	if s.hub == nil {
		return
	}
	s.hub.PublishToMany(employeeIDs, sse.Event{
		Name: EventTransition,
		Data: workflow.NewTransitionEventResponse(event),
	})
	slog.Debug("Workflow: transition published", "request_id", event.RequestID, "to_state", event.ToState, "recipients", len(employeeIDs))
}
