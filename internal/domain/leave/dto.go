package leave

import (
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

type SubmitLeaveRequest struct {
	OrganizationID string `json:"-"`
	EmployeeID     string `json:"-"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	Reason         string `json:"reason"`
}

func (r *SubmitLeaveRequest) Validate() error {
	errs := validateLeaveRange(r.StartDate, r.EndDate)
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "reason is required"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateLeaveRequest struct {
	ID             string `json:"-"`
	OrganizationID string `json:"-"`
	EmployeeID     string `json:"-"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	Reason         string `json:"reason"`
}

func (r *UpdateLeaveRequest) Validate() error {
	errs := validateLeaveRange(r.StartDate, r.EndDate)
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "reason is required"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateLeaveRange(start, end string) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if !validator.IsValidDate(start) {
		errs = append(errs, validator.ValidationError{Field: "start_date", Message: "start_date must be in YYYY-MM-DD format"})
	}
	if !validator.IsValidDate(end) {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must be in YYYY-MM-DD format"})
	}
	if len(errs) == 0 && end < start {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "end_date must not be before start_date"})
	}
	return errs
}

type LeaveRequestResponse struct {
	ID                string  `json:"id"`
	EmployeeID        string  `json:"employee_id"`
	StartDate         string  `json:"start_date"`
	EndDate           string  `json:"end_date"`
	WorkingDays       int     `json:"working_days"`
	Reason            string  `json:"reason"`
	Status            string  `json:"status"`
	WorkflowRequestID *string `json:"workflow_request_id"`
	SubmittedAt       string  `json:"submitted_at"`
}

func NewLeaveRequestResponse(l LeaveRequest) LeaveRequestResponse {
	return LeaveRequestResponse{
		ID:                l.ID,
		EmployeeID:        l.EmployeeID,
		StartDate:         dateutil.Format(l.StartDate),
		EndDate:           dateutil.Format(l.EndDate),
		WorkingDays:       l.WorkingDays,
		Reason:            l.Reason,
		Status:            string(l.Status),
		WorkflowRequestID: l.WorkflowRequestID,
		SubmittedAt:       l.SubmittedAt.Format(time.RFC3339),
	}
}
