package attendance

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/workflow"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
)

// ========================================
// in-memory fakes
// ========================================

type passthroughTx struct{}

func (passthroughTx) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// fakeResolver applies exampleConfig with weekly offs only
type fakeResolver struct {
	broken map[string]bool
}

func (f *fakeResolver) Resolve(_ context.Context, _, employeeID string, date time.Time) (schedule.ResolvedDay, error) {
	if f.broken[employeeID] {
		return schedule.ResolvedDay{}, errors.New("schedule unavailable")
	}
	cfg := exampleConfig()
	day := schedule.ResolvedDay{Date: date, Config: cfg}
	if !cfg.IsWorkingWeekday(date.Weekday()) {
		day.NonWorking = true
		day.Reason = schedule.ReasonWeeklyOff
	}
	return day, nil
}

func (f *fakeResolver) ResolveRange(ctx context.Context, organizationID, employeeID string, from, to time.Time) ([]schedule.ResolvedDay, error) {
	var days []schedule.ResolvedDay
	for _, d := range dateutil.Range(from, to) {
		day, err := f.Resolve(ctx, organizationID, employeeID, d)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, nil
}

type fakePunchRepo struct {
	mu      sync.Mutex
	punches []attendance.PunchEvent
	lists   int
}

func (f *fakePunchRepo) Append(_ context.Context, p attendance.PunchEvent) (attendance.PunchEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.CreatedAt = p.Timestamp
	f.punches = append(f.punches, p)
	return p, nil
}

func (f *fakePunchRepo) AppendMany(_ context.Context, punches []attendance.PunchEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.punches = append(f.punches, punches...)
	return nil
}

func (f *fakePunchRepo) ListByEmployee(_ context.Context, employeeID string, from, to time.Time) ([]attendance.PunchEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	var out []attendance.PunchEvent
	for _, p := range f.punches {
		if p.EmployeeID == employeeID && !p.Timestamp.Before(from) && p.Timestamp.Before(to) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}

type fakeDayRepo struct {
	mu      sync.Mutex
	records map[string]attendance.DayRecord
}

func newFakeDayRepo() *fakeDayRepo {
	return &fakeDayRepo{records: make(map[string]attendance.DayRecord)}
}

func (f *fakeDayRepo) UpsertMany(_ context.Context, records []attendance.DayRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range records {
		f.records[r.EmployeeID+"/"+dateutil.Format(r.Date)] = r
	}
	return nil
}

func (f *fakeDayRepo) get(employeeID string, date time.Time) (attendance.DayRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.records[employeeID+"/"+dateutil.Format(date)]
	return r, ok
}

type fakeTimeslipRepo struct {
	mu        sync.Mutex
	timeslips map[string]attendance.Timeslip
}

func newFakeTimeslipRepo() *fakeTimeslipRepo {
	return &fakeTimeslipRepo{timeslips: make(map[string]attendance.Timeslip)}
}

func (f *fakeTimeslipRepo) Create(_ context.Context, ts attendance.Timeslip) (attendance.Timeslip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.timeslips {
		if existing.EmployeeID == ts.EmployeeID && existing.Date.Equal(ts.Date) && existing.IsPending() {
			return attendance.Timeslip{}, attendance.ErrTimeslipAlreadyExists
		}
	}
	f.timeslips[ts.ID] = ts
	return ts, nil
}

func (f *fakeTimeslipRepo) GetByID(_ context.Context, id, organizationID string) (attendance.Timeslip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ts, ok := f.timeslips[id]
	if !ok || ts.OrganizationID != organizationID {
		return attendance.Timeslip{}, attendance.ErrTimeslipNotFound
	}
	return ts, nil
}

func (f *fakeTimeslipRepo) Update(_ context.Context, ts attendance.Timeslip) (attendance.Timeslip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.timeslips[ts.ID].IsPending() {
		return attendance.Timeslip{}, attendance.ErrTimeslipNotPending
	}
	f.timeslips[ts.ID] = ts
	return ts, nil
}

func (f *fakeTimeslipRepo) Delete(_ context.Context, id, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.timeslips, id)
	return nil
}

func (f *fakeTimeslipRepo) SetWorkflowRequest(_ context.Context, id, requestID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ts := f.timeslips[id]
	ts.WorkflowRequestID = &requestID
	f.timeslips[id] = ts
	return nil
}

func (f *fakeTimeslipRepo) SetStatus(_ context.Context, id string, status attendance.TimeslipStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ts := f.timeslips[id]
	ts.Status = status
	f.timeslips[id] = ts
	return nil
}

func (f *fakeTimeslipRepo) ListPendingByEmployee(_ context.Context, employeeID string, from, to time.Time) ([]attendance.Timeslip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []attendance.Timeslip
	for _, ts := range f.timeslips {
		if ts.EmployeeID == employeeID && ts.IsPending() && !ts.Date.Before(from) && !ts.Date.After(to) {
			out = append(out, ts)
		}
	}
	return out, nil
}

// fakeLeaveRepo only serves the approved-leave lookup
type fakeLeaveRepo struct {
	leave.LeaveRequestRepository
	approved []leave.LeaveRequest
}

func (f *fakeLeaveRepo) ListApprovedByEmployee(_ context.Context, employeeID string, from, to time.Time) ([]leave.LeaveRequest, error) {
	var out []leave.LeaveRequest
	for _, l := range f.approved {
		if l.EmployeeID == employeeID && !l.EndDate.Before(from) && !l.StartDate.After(to) {
			out = append(out, l)
		}
	}
	return out, nil
}

type fakeEmployeeRepo struct {
	employees []employee.Employee
}

func (f *fakeEmployeeRepo) GetByID(_ context.Context, id, organizationID string) (employee.Employee, error) {
	for _, e := range f.employees {
		if e.ID == id && e.OrganizationID == organizationID {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (f *fakeEmployeeRepo) ListActive(_ context.Context, organizationID string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range f.employees {
		if e.OrganizationID == organizationID && e.IsActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEmployeeRepo) ListActiveOrganizationIDs(_ context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, e := range f.employees {
		if e.IsActive && !seen[e.OrganizationID] {
			seen[e.OrganizationID] = true
			out = append(out, e.OrganizationID)
		}
	}
	return out, nil
}

type fakeSubmitter struct {
	submitted []workflow.SubmitRequest
	withdrawn []string
	edited    []string
}

func (f *fakeSubmitter) Submit(_ context.Context, req workflow.SubmitRequest) (workflow.Request, error) {
	f.submitted = append(f.submitted, req)
	return workflow.Request{
		ID:             "wr-" + req.SubjectID,
		OrganizationID: req.OrganizationID,
		Type:           req.Type,
		SubjectID:      req.SubjectID,
		RequesterID:    req.RequesterID,
		Status:         workflow.StatusPending,
		Version:        1,
	}, nil
}

func (f *fakeSubmitter) Withdraw(_ context.Context, _, requestID, _ string) error {
	f.withdrawn = append(f.withdrawn, requestID)
	return nil
}

func (f *fakeSubmitter) MarkSubjectEdited(_ context.Context, _, requestID string) error {
	f.edited = append(f.edited, requestID)
	return nil
}

// ========================================
// fixture
// ========================================

type fixture struct {
	punches   *fakePunchRepo
	days      *fakeDayRepo
	timeslips *fakeTimeslipRepo
	leaves    *fakeLeaveRepo
	employees *fakeEmployeeRepo
	resolver  *fakeResolver
	submitter *fakeSubmitter

	attendance *AttendanceServiceImpl
	timeslip   *TimeslipServiceImpl
	completion *TimeslipCompletion
}

func newServiceFixture(now time.Time) fixture {
	f := fixture{
		punches:   &fakePunchRepo{},
		days:      newFakeDayRepo(),
		timeslips: newFakeTimeslipRepo(),
		leaves:    &fakeLeaveRepo{},
		employees: &fakeEmployeeRepo{employees: []employee.Employee{
			{ID: "emp-1", OrganizationID: "org-1", FullName: "Ayu", IsActive: true},
			{ID: "emp-2", OrganizationID: "org-1", FullName: "Budi", IsActive: true},
			{ID: "emp-3", OrganizationID: "org-1", FullName: "Citra", IsActive: true},
			{ID: "emp-gone", OrganizationID: "org-1", FullName: "Dedi", IsActive: false},
		}},
		resolver:  &fakeResolver{broken: map[string]bool{}},
		submitter: &fakeSubmitter{},
	}
	clock := func() time.Time { return now }

	f.attendance = NewAttendanceService(passthroughTx{}, f.punches, f.days, f.timeslips, f.leaves, f.employees, f.resolver, 2)
	f.attendance.now = clock
	f.timeslip = NewTimeslipService(passthroughTx{}, f.timeslips, f.employees, f.resolver, f.attendance, f.submitter)
	f.timeslip.now = clock
	f.completion = NewTimeslipCompletion(f.punches, f.timeslips, f.attendance)
	return f
}
