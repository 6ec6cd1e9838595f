package leave

import "context"

type LeaveRequestService interface {
	Submit(ctx context.Context, req SubmitLeaveRequest) (LeaveRequestResponse, error)
	Get(ctx context.Context, organizationID, id string) (LeaveRequestResponse, error)
	Update(ctx context.Context, req UpdateLeaveRequest) (LeaveRequestResponse, error)
	Delete(ctx context.Context, organizationID, employeeID, id string) error
}
