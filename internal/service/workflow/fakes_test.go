package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/workflow"
)

type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeDefinitionRepo struct {
	defs        map[string]workflow.Definition
	steps       map[string]workflow.Step
	assignments map[string][]workflow.Assignment
	referenced  map[string]bool
}

func newFakeDefinitionRepo() *fakeDefinitionRepo {
	return &fakeDefinitionRepo{
		defs:        map[string]workflow.Definition{},
		steps:       map[string]workflow.Step{},
		assignments: map[string][]workflow.Assignment{},
		referenced:  map[string]bool{},
	}
}

func (f *fakeDefinitionRepo) Create(_ context.Context, def workflow.Definition) (workflow.Definition, error) {
	for _, d := range f.defs {
		if d.OrganizationID == def.OrganizationID && d.Type == def.Type && deptKey(d.Department) == deptKey(def.Department) {
			return workflow.Definition{}, workflow.ErrDefinitionConflict
		}
	}
	f.defs[def.ID] = def
	return def, nil
}

func deptKey(d *string) string {
	if d == nil {
		return ""
	}
	return *d
}

// load assembles steps with their active approver the way the SQL join does
func (f *fakeDefinitionRepo) load(def workflow.Definition) workflow.Definition {
	def.Steps = nil
	for _, st := range f.steps {
		if st.DefinitionID != def.ID {
			continue
		}
		for _, a := range f.assignments[st.ID] {
			if a.IsActive {
				a := a
				st.Approver = &a
			}
		}
		def.Steps = append(def.Steps, st)
	}
	return def
}

func (f *fakeDefinitionRepo) GetByID(_ context.Context, id, organizationID string) (workflow.Definition, error) {
	def, ok := f.defs[id]
	if !ok || def.OrganizationID != organizationID {
		return workflow.Definition{}, workflow.ErrDefinitionNotFound
	}
	return f.load(def), nil
}

func (f *fakeDefinitionRepo) List(_ context.Context, organizationID string) ([]workflow.Definition, error) {
	var out []workflow.Definition
	for _, d := range f.defs {
		if d.OrganizationID == organizationID {
			out = append(out, f.load(d))
		}
	}
	return out, nil
}

func (f *fakeDefinitionRepo) FindForSubject(_ context.Context, organizationID string, t workflow.Type, department *string) (workflow.Definition, error) {
	var fallback *workflow.Definition
	for _, d := range f.defs {
		if d.OrganizationID != organizationID || d.Type != t {
			continue
		}
		if d.Department == nil {
			d := d
			fallback = &d
			continue
		}
		if department != nil && *d.Department == *department {
			return f.load(d), nil
		}
	}
	if fallback == nil {
		return workflow.Definition{}, workflow.ErrNoMatchingWorkflow
	}
	return f.load(*fallback), nil
}

func (f *fakeDefinitionRepo) Update(_ context.Context, def workflow.Definition) (workflow.Definition, error) {
	f.defs[def.ID] = def
	return def, nil
}

func (f *fakeDefinitionRepo) Delete(_ context.Context, id, _ string) error {
	delete(f.defs, id)
	return nil
}

func (f *fakeDefinitionRepo) IsReferenced(_ context.Context, definitionID string) (bool, error) {
	return f.referenced[definitionID], nil
}

func (f *fakeDefinitionRepo) CreateStep(_ context.Context, step workflow.Step) (workflow.Step, error) {
	for _, st := range f.steps {
		if st.DefinitionID == step.DefinitionID && st.StepOrder == step.StepOrder {
			return workflow.Step{}, workflow.ErrStepOrderExists
		}
	}
	f.steps[step.ID] = step
	return step, nil
}

func (f *fakeDefinitionRepo) GetStep(_ context.Context, stepID, organizationID string) (workflow.Step, error) {
	st, ok := f.steps[stepID]
	if !ok || f.defs[st.DefinitionID].OrganizationID != organizationID {
		return workflow.Step{}, workflow.ErrStepNotFound
	}
	return st, nil
}

func (f *fakeDefinitionRepo) UpdateStep(_ context.Context, step workflow.Step) (workflow.Step, error) {
	step.Approver = nil
	f.steps[step.ID] = step
	return step, nil
}

func (f *fakeDefinitionRepo) DeleteStep(_ context.Context, stepID string) error {
	delete(f.steps, stepID)
	return nil
}

func (f *fakeDefinitionRepo) DeactivateAssignments(_ context.Context, stepID string) error {
	list := f.assignments[stepID]
	for i := range list {
		if list[i].IsActive {
			now := time.Now()
			list[i].IsActive = false
			list[i].RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeDefinitionRepo) CreateAssignment(_ context.Context, a workflow.Assignment) (workflow.Assignment, error) {
	f.assignments[a.StepID] = append(f.assignments[a.StepID], a)
	return a, nil
}

func (f *fakeDefinitionRepo) ListAssignments(_ context.Context, stepID string) ([]workflow.Assignment, error) {
	return f.assignments[stepID], nil
}

type fakeRequestRepo struct {
	mu       sync.Mutex
	requests map[string]workflow.Request
	events   []workflow.TransitionEvent
	// beforeCAS runs between the read and the swap to simulate a concurrent writer
	beforeCAS func()
}

func newFakeRequestRepo() *fakeRequestRepo {
	return &fakeRequestRepo{requests: map[string]workflow.Request{}}
}

func (f *fakeRequestRepo) Create(_ context.Context, req workflow.Request) (workflow.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests[req.ID] = req
	return req, nil
}

func (f *fakeRequestRepo) GetByID(_ context.Context, id, organizationID string) (workflow.Request, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.requests[id]
	if !ok || req.OrganizationID != organizationID {
		return workflow.Request{}, workflow.ErrRequestNotFound
	}
	return req, nil
}

func (f *fakeRequestRepo) CompareAndSwap(_ context.Context, req workflow.Request, expectedVersion int, _ workflow.Action) error {
	if f.beforeCAS != nil {
		f.beforeCAS()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := f.requests[req.ID]
	if stored.Status != workflow.StatusPending || stored.Version != expectedVersion {
		return workflow.ErrVersionMismatch
	}
	f.requests[req.ID] = req
	return nil
}

func (f *fakeRequestRepo) Touch(_ context.Context, id string, expectedVersion int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req := f.requests[id]
	if req.Version != expectedVersion {
		return workflow.ErrVersionMismatch
	}
	req.Version++
	f.requests[id] = req
	return nil
}

func (f *fakeRequestRepo) Delete(_ context.Context, id, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.requests, id)
	return nil
}

func (f *fakeRequestRepo) ListPendingForApprover(context.Context, string, string) ([]workflow.Request, error) {
	return nil, nil
}

func (f *fakeRequestRepo) AppendEvent(_ context.Context, e workflow.TransitionEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakeRequestRepo) ListEvents(_ context.Context, requestID string) ([]workflow.TransitionEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []workflow.TransitionEvent
	for _, e := range f.events {
		if e.RequestID == requestID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeEmployeeRepo struct {
	employee.EmployeeRepository
	employees map[string]employee.Employee
}

func (f fakeEmployeeRepo) GetByID(_ context.Context, id, organizationID string) (employee.Employee, error) {
	e, ok := f.employees[id]
	if !ok || e.OrganizationID != organizationID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

type recordingHandler struct {
	approved []string
	rejected []string
}

func (h *recordingHandler) OnApproved(_ context.Context, req workflow.Request) error {
	h.approved = append(h.approved, req.SubjectID)
	return nil
}

func (h *recordingHandler) OnRejected(_ context.Context, req workflow.Request) error {
	h.rejected = append(h.rejected, req.SubjectID)
	return nil
}
