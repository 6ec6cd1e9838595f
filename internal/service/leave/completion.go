package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/workflow"
)

// LeaveCompletion applies workflow decisions on LEAVE requests
type LeaveCompletion struct {
	leaveRepo leave.LeaveRequestRepository
	recorder  attendance.DayRecorder
	now       func() time.Time
}

func NewLeaveCompletion(leaveRepo leave.LeaveRequestRepository, recorder attendance.DayRecorder) *LeaveCompletion {
	return &LeaveCompletion{leaveRepo: leaveRepo, recorder: recorder, now: time.Now}
}

// OnApproved implements workflow.CompletionHandler.
func (c *LeaveCompletion) OnApproved(ctx context.Context, req workflow.Request) error {
	request, err := c.leaveRepo.GetByID(ctx, req.SubjectID, req.OrganizationID)
	if err != nil {
		return err
	}
	if !request.IsPending() {
		return nil
	}
	if err := c.leaveRepo.SetStatus(ctx, request.ID, leave.LeaveRequestStatusApproved, c.now()); err != nil {
		return fmt.Errorf("failed to approve leave request: %w", err)
	}

	// days already classified inside the range flip to on-leave
	_, err = c.recorder.RecomputeRange(ctx, request.OrganizationID, request.EmployeeID, request.StartDate, request.EndDate)
	return err
}

// OnRejected implements workflow.CompletionHandler.
func (c *LeaveCompletion) OnRejected(ctx context.Context, req workflow.Request) error {
	request, err := c.leaveRepo.GetByID(ctx, req.SubjectID, req.OrganizationID)
	if err != nil {
		return err
	}
	if !request.IsPending() {
		return nil
	}
	if err := c.leaveRepo.SetStatus(ctx, request.ID, leave.LeaveRequestStatusRejected, c.now()); err != nil {
		return fmt.Errorf("failed to reject leave request: %w", err)
	}
	return nil
}
