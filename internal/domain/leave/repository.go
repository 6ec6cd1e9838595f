package leave

import (
	"context"
	"time"
)

type LeaveRequestRepository interface {
	Create(ctx context.Context, req LeaveRequest) (LeaveRequest, error)
	GetByID(ctx context.Context, id string, organizationID string) (LeaveRequest, error)
	// Update only touches pending requests and returns ErrLeaveRequestNotPending otherwise
	Update(ctx context.Context, req LeaveRequest) (LeaveRequest, error)
	Delete(ctx context.Context, id string, organizationID string) error
	SetWorkflowRequest(ctx context.Context, id string, requestID string) error
	SetStatus(ctx context.Context, id string, status LeaveRequestStatus, decidedAt time.Time) error
	// HasOverlap checks pending or approved requests of the employee, ignoring excludeID
	HasOverlap(ctx context.Context, employeeID string, from, to time.Time, excludeID string) (bool, error)
	ListApprovedByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]LeaveRequest, error)
}
