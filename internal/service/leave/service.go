package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/workflow"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"github.com/google/uuid"
)

type LeaveServiceImpl struct {
	tx database.Transactor
	leave.LeaveRequestRepository
	employeeRepo employee.EmployeeRepository
	resolver     schedule.Resolver
	recorder     attendance.DayRecorder
	workflow     workflow.Submitter
	now          func() time.Time
}

func NewLeaveService(
	tx database.Transactor,
	leaveRequestRepository leave.LeaveRequestRepository,
	employeeRepo employee.EmployeeRepository,
	resolver schedule.Resolver,
	recorder attendance.DayRecorder,
	submitter workflow.Submitter,
) *LeaveServiceImpl {
	return &LeaveServiceImpl{
		tx:                     tx,
		LeaveRequestRepository: leaveRequestRepository,
		employeeRepo:           employeeRepo,
		resolver:               resolver,
		recorder:               recorder,
		workflow:               submitter,
		now:                    time.Now,
	}
}

// Submit implements leave.LeaveRequestService.
func (l *LeaveServiceImpl) Submit(ctx context.Context, req leave.SubmitLeaveRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	emp, err := l.employeeRepo.GetByID(ctx, req.EmployeeID, req.OrganizationID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	if !emp.IsActive {
		return leave.LeaveRequestResponse{}, employee.ErrEmployeeInactive
	}

	start, _ := dateutil.Parse(req.StartDate)
	end, _ := dateutil.Parse(req.EndDate)
	workingDays, err := l.checkRange(ctx, req.OrganizationID, req.EmployeeID, start, end, "")
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	now := l.now()
	request := leave.LeaveRequest{
		ID:             uuid.NewString(),
		OrganizationID: req.OrganizationID,
		EmployeeID:     req.EmployeeID,
		StartDate:      start,
		EndDate:        end,
		WorkingDays:    workingDays,
		Reason:         req.Reason,
		Status:         leave.LeaveRequestStatusPending,
		SubmittedAt:    now,
		UpdatedAt:      now,
	}

	var created leave.LeaveRequest
	err = l.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		created, err = l.LeaveRequestRepository.Create(txCtx, request)
		if err != nil {
			return fmt.Errorf("failed to create leave request: %w", err)
		}

		wr, err := l.workflow.Submit(txCtx, workflow.SubmitRequest{
			OrganizationID: req.OrganizationID,
			Type:           workflow.TypeLeave,
			SubjectID:      created.ID,
			RequesterID:    req.EmployeeID,
			Facts:          workflow.SubjectFacts{Days: workingDays},
		})
		if err != nil {
			return err
		}
		if err := l.LeaveRequestRepository.SetWorkflowRequest(txCtx, created.ID, wr.ID); err != nil {
			return fmt.Errorf("failed to link workflow request: %w", err)
		}
		created.WorkflowRequestID = &wr.ID
		return nil
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	return leave.NewLeaveRequestResponse(created), nil
}

// Get implements leave.LeaveRequestService.
func (l *LeaveServiceImpl) Get(ctx context.Context, organizationID, id string) (leave.LeaveRequestResponse, error) {
	request, err := l.LeaveRequestRepository.GetByID(ctx, id, organizationID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	return leave.NewLeaveRequestResponse(request), nil
}

// Update implements leave.LeaveRequestService.
func (l *LeaveServiceImpl) Update(ctx context.Context, req leave.UpdateLeaveRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	request, err := l.ownedPending(ctx, req.OrganizationID, req.EmployeeID, req.ID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	start, _ := dateutil.Parse(req.StartDate)
	end, _ := dateutil.Parse(req.EndDate)
	workingDays, err := l.checkRange(ctx, req.OrganizationID, req.EmployeeID, start, end, request.ID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	request.StartDate = start
	request.EndDate = end
	request.WorkingDays = workingDays
	request.Reason = req.Reason
	request.UpdatedAt = l.now()

	var updated leave.LeaveRequest
	err = l.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		updated, err = l.LeaveRequestRepository.Update(txCtx, request)
		if err != nil {
			return err
		}
		if request.WorkflowRequestID != nil {
			return l.workflow.MarkSubjectEdited(txCtx, req.OrganizationID, *request.WorkflowRequestID)
		}
		return nil
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	return leave.NewLeaveRequestResponse(updated), nil
}

// Delete implements leave.LeaveRequestService.
func (l *LeaveServiceImpl) Delete(ctx context.Context, organizationID, employeeID, id string) error {
	request, err := l.ownedPending(ctx, organizationID, employeeID, id)
	if err != nil {
		return err
	}

	return l.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if request.WorkflowRequestID != nil {
			if err := l.workflow.Withdraw(txCtx, organizationID, *request.WorkflowRequestID, employeeID); err != nil {
				return err
			}
		}
		return l.LeaveRequestRepository.Delete(txCtx, request.ID, organizationID)
	})
}

func (l *LeaveServiceImpl) ownedPending(ctx context.Context, organizationID, employeeID, id string) (leave.LeaveRequest, error) {
	request, err := l.LeaveRequestRepository.GetByID(ctx, id, organizationID)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	if request.EmployeeID != employeeID {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotOwner
	}
	if !request.IsPending() {
		return leave.LeaveRequest{}, leave.ErrLeaveRequestNotPending
	}
	return request, nil
}

// checkRange rejects overlapping ranges and ranges without a working day
func (l *LeaveServiceImpl) checkRange(ctx context.Context, organizationID, employeeID string, start, end time.Time, excludeID string) (int, error) {
	overlap, err := l.LeaveRequestRepository.HasOverlap(ctx, employeeID, start, end, excludeID)
	if err != nil {
		return 0, fmt.Errorf("failed to check overlapping leave requests: %w", err)
	}
	if overlap {
		return 0, leave.ErrLeaveOverlaps
	}

	workingDays, err := countWorkingDays(ctx, l.resolver, organizationID, employeeID, start, end)
	if err != nil {
		return 0, fmt.Errorf("failed to calculate working days: %w", err)
	}
	if workingDays == 0 {
		return 0, leave.ErrNoWorkingDays
	}
	return workingDays, nil
}
