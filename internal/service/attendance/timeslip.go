package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/workflow"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"github.com/google/uuid"
)

type TimeslipServiceImpl struct {
	tx           database.Transactor
	timeslipRepo attendance.TimeslipRepository
	employeeRepo employee.EmployeeRepository
	resolver     schedule.Resolver
	recorder     attendance.DayRecorder
	workflow     workflow.Submitter
	now          func() time.Time
}

func NewTimeslipService(
	tx database.Transactor,
	timeslipRepo attendance.TimeslipRepository,
	employeeRepo employee.EmployeeRepository,
	resolver schedule.Resolver,
	recorder attendance.DayRecorder,
	submitter workflow.Submitter,
) *TimeslipServiceImpl {
	return &TimeslipServiceImpl{
		tx:           tx,
		timeslipRepo: timeslipRepo,
		employeeRepo: employeeRepo,
		resolver:     resolver,
		recorder:     recorder,
		workflow:     submitter,
		now:          time.Now,
	}
}

// Submit implements attendance.TimeslipService.
func (s *TimeslipServiceImpl) Submit(ctx context.Context, req attendance.SubmitTimeslipRequest) (attendance.TimeslipResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.TimeslipResponse{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, req.OrganizationID)
	if err != nil {
		return attendance.TimeslipResponse{}, err
	}
	if !emp.IsActive {
		return attendance.TimeslipResponse{}, employee.ErrEmployeeInactive
	}

	date, _ := dateutil.Parse(req.Date)
	day, err := s.workingDay(ctx, req.OrganizationID, req.EmployeeID, date)
	if err != nil {
		return attendance.TimeslipResponse{}, err
	}

	now := s.now()
	ts := attendance.Timeslip{
		ID:             uuid.NewString(),
		OrganizationID: req.OrganizationID,
		EmployeeID:     req.EmployeeID,
		Date:           date,
		MissingType:    attendance.MissingType(req.MissingType),
		Reason:         req.Reason,
		Status:         attendance.TimeslipPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	ts.CorrectedIn, ts.CorrectedOut = correctionTimes(day, ts.MissingType, req.CorrectedIn, req.CorrectedOut)

	var created attendance.Timeslip
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		created, err = s.timeslipRepo.Create(txCtx, ts)
		if err != nil {
			return err
		}

		wr, err := s.workflow.Submit(txCtx, workflow.SubmitRequest{
			OrganizationID: req.OrganizationID,
			Type:           workflow.TypeTimeslip,
			SubjectID:      created.ID,
			RequesterID:    req.EmployeeID,
			Facts:          workflow.SubjectFacts{Days: 1},
		})
		if err != nil {
			return err
		}
		if err := s.timeslipRepo.SetWorkflowRequest(txCtx, created.ID, wr.ID); err != nil {
			return fmt.Errorf("failed to link workflow request: %w", err)
		}
		created.WorkflowRequestID = &wr.ID

		_, err = s.recorder.RecomputeRange(txCtx, req.OrganizationID, req.EmployeeID, date, date)
		return err
	})
	if err != nil {
		return attendance.TimeslipResponse{}, err
	}

	return attendance.NewTimeslipResponse(created), nil
}

// Get implements attendance.TimeslipService.
func (s *TimeslipServiceImpl) Get(ctx context.Context, organizationID, id string) (attendance.TimeslipResponse, error) {
	ts, err := s.timeslipRepo.GetByID(ctx, id, organizationID)
	if err != nil {
		return attendance.TimeslipResponse{}, err
	}
	return attendance.NewTimeslipResponse(ts), nil
}

// Update implements attendance.TimeslipService.
func (s *TimeslipServiceImpl) Update(ctx context.Context, req attendance.UpdateTimeslipRequest) (attendance.TimeslipResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.TimeslipResponse{}, err
	}

	ts, err := s.ownedPending(ctx, req.OrganizationID, req.EmployeeID, req.ID)
	if err != nil {
		return attendance.TimeslipResponse{}, err
	}

	day, err := s.workingDay(ctx, req.OrganizationID, req.EmployeeID, ts.Date)
	if err != nil {
		return attendance.TimeslipResponse{}, err
	}

	ts.MissingType = attendance.MissingType(req.MissingType)
	ts.CorrectedIn, ts.CorrectedOut = correctionTimes(day, ts.MissingType, req.CorrectedIn, req.CorrectedOut)
	ts.Reason = req.Reason
	ts.UpdatedAt = s.now()

	var updated attendance.Timeslip
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		updated, err = s.timeslipRepo.Update(txCtx, ts)
		if err != nil {
			return err
		}
		if ts.WorkflowRequestID != nil {
			return s.workflow.MarkSubjectEdited(txCtx, req.OrganizationID, *ts.WorkflowRequestID)
		}
		return nil
	})
	if err != nil {
		return attendance.TimeslipResponse{}, err
	}

	return attendance.NewTimeslipResponse(updated), nil
}

// Delete implements attendance.TimeslipService.
func (s *TimeslipServiceImpl) Delete(ctx context.Context, organizationID, employeeID, id string) error {
	ts, err := s.ownedPending(ctx, organizationID, employeeID, id)
	if err != nil {
		return err
	}

	return s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if ts.WorkflowRequestID != nil {
			if err := s.workflow.Withdraw(txCtx, organizationID, *ts.WorkflowRequestID, employeeID); err != nil {
				return err
			}
		}
		if err := s.timeslipRepo.Delete(txCtx, ts.ID, organizationID); err != nil {
			return err
		}
		_, err := s.recorder.RecomputeRange(txCtx, organizationID, employeeID, ts.Date, ts.Date)
		return err
	})
}

func (s *TimeslipServiceImpl) ownedPending(ctx context.Context, organizationID, employeeID, id string) (attendance.Timeslip, error) {
	ts, err := s.timeslipRepo.GetByID(ctx, id, organizationID)
	if err != nil {
		return attendance.Timeslip{}, err
	}
	if ts.EmployeeID != employeeID {
		return attendance.Timeslip{}, attendance.ErrTimeslipNotOwner
	}
	if !ts.IsPending() {
		return attendance.Timeslip{}, attendance.ErrTimeslipNotPending
	}
	return ts, nil
}

// workingDay resolves date and rejects future and non-working days
func (s *TimeslipServiceImpl) workingDay(ctx context.Context, organizationID, employeeID string, date time.Time) (schedule.ResolvedDay, error) {
	day, err := s.resolver.Resolve(ctx, organizationID, employeeID, date)
	if err != nil {
		return schedule.ResolvedDay{}, err
	}
	if date.After(dateutil.In(s.now(), day.Config.Location())) {
		return schedule.ResolvedDay{}, attendance.ErrTimeslipFutureDate
	}
	if day.NonWorking {
		return schedule.ResolvedDay{}, attendance.ErrTimeslipOnNonWorkingDay
	}
	return day, nil
}

// correctionTimes anchors the corrected wall-clock times to the day in the schedule's timezone
func correctionTimes(day schedule.ResolvedDay, missing attendance.MissingType, in, out string) (*time.Time, *time.Time) {
	loc := day.Config.Location()
	at := func(raw string) *time.Time {
		c, err := schedule.ParseClock(raw)
		if err != nil {
			return nil
		}
		t := time.Date(day.Date.Year(), day.Date.Month(), day.Date.Day(), c.Hour(), c.Minute(), 0, 0, loc)
		return &t
	}

	var correctedIn, correctedOut *time.Time
	if missing == attendance.MissingIn || missing == attendance.MissingBoth {
		correctedIn = at(in)
	}
	if missing == attendance.MissingOut || missing == attendance.MissingBoth {
		correctedOut = at(out)
	}
	return correctedIn, correctedOut
}
