package leave

import (
	"time"
)

type LeaveRequestStatus string

const (
	LeaveRequestStatusPending  LeaveRequestStatus = "PENDING"
	LeaveRequestStatusApproved LeaveRequestStatus = "APPROVED"
	LeaveRequestStatusRejected LeaveRequestStatus = "REJECTED"
)

// LeaveRequest entity. Approved requests are what day classification treats as leave.
type LeaveRequest struct {
	ID             string
	OrganizationID string
	EmployeeID     string

	StartDate time.Time
	EndDate   time.Time
	// WorkingDays counts the working days inside the range at submission time
	WorkingDays int

	Reason string
	Status LeaveRequestStatus

	WorkflowRequestID *string
	DecidedAt         *time.Time

	SubmittedAt time.Time
	UpdatedAt   time.Time
}

func (l LeaveRequest) IsPending() bool {
	return l.Status == LeaveRequestStatusPending
}

// Covers reports whether date falls inside the inclusive leave range
func (l LeaveRequest) Covers(date time.Time) bool {
	return !date.Before(l.StartDate) && !date.After(l.EndDate)
}
