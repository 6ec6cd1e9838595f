package workflow

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/workflow"
	"github.com/google/uuid"
)

// Decision is one approver's action as the engine sees it
type Decision struct {
	ActorID  string
	Decision workflow.Decision
	// StepOrder targets a specific step; nil means the current one
	StepOrder *int
	// ExpectedVersion is the request version the actor last saw. Act always
	// sets it; nil skips the check for internal callers.
	ExpectedVersion *int
	Comment         string
}

// Transition is the result of applying a Decision
type Transition struct {
	Request workflow.Request
	Action  workflow.Action
	Event   workflow.TransitionEvent
}

// Apply advances req by one decision against the steps of def. It has no side
// effects; persisting the transition atomically is the caller's job.
//
// Checks run from most to least specific so that an actor racing on a step that
// was already decided gets a conflict rather than a state error.
func Apply(req workflow.Request, def workflow.Definition, d Decision, now time.Time) (Transition, error) {
	if d.ExpectedVersion != nil && *d.ExpectedVersion != req.Version {
		return Transition{}, workflow.ErrVersionMismatch
	}
	if d.StepOrder != nil {
		if !req.HasStep(*d.StepOrder) {
			return Transition{}, workflow.ErrStepNotFound
		}
		if _, acted := req.ActionFor(*d.StepOrder); acted {
			return Transition{}, workflow.ErrStepAlreadyActed
		}
	}
	if req.Status.IsTerminal() {
		return Transition{}, workflow.ErrRequestNotPending
	}

	current, ok := req.CurrentStep()
	if !ok {
		return Transition{}, workflow.ErrRequestNotPending
	}
	if d.StepOrder != nil && *d.StepOrder != current {
		return Transition{}, workflow.ErrNotCurrentStep
	}

	step, ok := def.StepByOrder(current)
	if !ok {
		return Transition{}, workflow.ErrStepNotFound
	}
	if step.Approver == nil || !step.Approver.IsActive {
		return Transition{}, workflow.ErrStepUnassigned
	}
	if step.Approver.ApproverID != d.ActorID {
		return Transition{}, workflow.ErrNotApprover
	}

	action := workflow.Action{
		ID:        uuid.NewString(),
		RequestID: req.ID,
		StepOrder: current,
		ActorID:   d.ActorID,
		Decision:  d.Decision,
		Comment:   d.Comment,
		ActedAt:   now,
	}

	next := req
	next.Actions = append(append([]workflow.Action(nil), req.Actions...), action)
	next.Version = req.Version + 1
	next.UpdatedAt = now

	switch {
	case d.Decision == workflow.DecisionReject:
		next.Status = workflow.StatusRejected
	case req.IsLastStep(current):
		next.Status = workflow.StatusApproved
	}
	if next.Status.IsTerminal() {
		next.CompletedAt = &now
	}

	event := workflow.TransitionEvent{
		ID:               uuid.NewString(),
		RequestID:        req.ID,
		OrganizationID:   req.OrganizationID,
		FromState:        req.Status,
		ToState:          next.Status,
		ActingApproverID: d.ActorID,
		StepOrder:        current,
		Timestamp:        now,
	}
	if order, ok := next.CurrentStep(); ok {
		event.NextStepOrder = order
	}

	return Transition{Request: next, Action: action, Event: event}, nil
}
