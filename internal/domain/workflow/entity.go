package workflow

import (
	"sort"
	"time"
)

type Type string

const (
	TypeTimeslip Type = "TIMESLIP"
	TypeLeave    Type = "LEAVE"
	TypeExpense  Type = "EXPENSE"
	TypeGeneric  Type = "GENERIC"
)

var TypeValues = []string{string(TypeTimeslip), string(TypeLeave), string(TypeExpense), string(TypeGeneric)}

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

type Definition struct {
	ID             string
	OrganizationID string
	Name           string
	Type           Type
	// Department scopes the definition; nil applies to every department
	Department *string
	Steps      []Step
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SortedSteps returns the steps ordered by StepOrder
func (d Definition) SortedSteps() []Step {
	steps := append([]Step(nil), d.Steps...)
	sort.Slice(steps, func(i, j int) bool { return steps[i].StepOrder < steps[j].StepOrder })
	return steps
}

func (d Definition) StepByOrder(order int) (Step, bool) {
	for _, s := range d.Steps {
		if s.StepOrder == order {
			return s, true
		}
	}
	return Step{}, false
}

type Step struct {
	ID           string
	DefinitionID string
	StepOrder    int
	Name         string
	// Condition is an optional "<field> <op> <number>" expression, e.g. "days > 2"
	Condition *string
	Approver  *Assignment
}

// Assignment links a step to its approver. At most one is active per step.
type Assignment struct {
	ID         string
	StepID     string
	ApproverID string
	AssignedBy string
	IsActive   bool
	AssignedAt time.Time
	RevokedAt  *time.Time
}

type Request struct {
	ID             string
	OrganizationID string
	DefinitionID   string
	Type           Type
	SubjectID      string
	RequesterID    string
	Status         Status
	Version        int
	// StepOrders are the applicable steps, ascending, fixed when the request is bound
	StepOrders  []int
	Actions     []Action
	SubmittedAt time.Time
	CompletedAt *time.Time
	UpdatedAt   time.Time
}

// CurrentStep is the lowest applicable step without a recorded action while the request is pending
func (r Request) CurrentStep() (int, bool) {
	if r.Status != StatusPending {
		return 0, false
	}
	for _, order := range r.StepOrders {
		if _, acted := r.ActionFor(order); !acted {
			return order, true
		}
	}
	return 0, false
}

func (r Request) ActionFor(stepOrder int) (Action, bool) {
	for _, a := range r.Actions {
		if a.StepOrder == stepOrder {
			return a, true
		}
	}
	return Action{}, false
}

func (r Request) HasStep(stepOrder int) bool {
	for _, o := range r.StepOrders {
		if o == stepOrder {
			return true
		}
	}
	return false
}

func (r Request) IsLastStep(stepOrder int) bool {
	return len(r.StepOrders) > 0 && r.StepOrders[len(r.StepOrders)-1] == stepOrder
}

type Action struct {
	ID        string
	RequestID string
	StepOrder int
	ActorID   string
	Decision  Decision
	Comment   string
	ActedAt   time.Time
}

type TransitionEvent struct {
	ID               string
	RequestID        string
	OrganizationID   string
	FromState        Status
	ToState          Status
	ActingApproverID string
	StepOrder        int
	// NextStepOrder is the step that became current, zero when the request is terminal
	NextStepOrder int
	Timestamp     time.Time
}

// SubjectFacts are the values step conditions are evaluated against
type SubjectFacts struct {
	Days int
}
