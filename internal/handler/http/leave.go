package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type LeaveHandler interface {
	CreateRequest(w http.ResponseWriter, r *http.Request)
	GetRequest(w http.ResponseWriter, r *http.Request)
	UpdateRequest(w http.ResponseWriter, r *http.Request)
	DeleteRequest(w http.ResponseWriter, r *http.Request)
}

type LeaveHandlerImpl struct {
	leaveService leave.LeaveRequestService
}

func NewLeaveHandler(leaveService leave.LeaveRequestService) LeaveHandler {
	return &LeaveHandlerImpl{
		leaveService: leaveService,
	}
}

// CreateRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) CreateRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	var req leave.SubmitLeaveRequest
	if !decodeJSON(w, r, &req, "CreateRequest") {
		return
	}
	req.OrganizationID = id.OrganizationID
	req.EmployeeID = id.EmployeeID

	leaveRequest, err := l.leaveService.Submit(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Leave request submitted successfully", leaveRequest)
}

// GetRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	requestID := chi.URLParam(r, "id")
	if requestID == "" {
		response.BadRequest(w, "Leave request ID is required", nil)
		return
	}

	leaveRequest, err := l.leaveService.Get(r.Context(), id.OrganizationID, requestID)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if _, ok := targetEmployee(w, id, leaveRequest.EmployeeID); !ok {
		return
	}

	response.Success(w, leaveRequest)
}

// UpdateRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) UpdateRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	var req leave.UpdateLeaveRequest
	if !decodeJSON(w, r, &req, "UpdateRequest") {
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.OrganizationID = id.OrganizationID
	req.EmployeeID = id.EmployeeID

	leaveRequest, err := l.leaveService.Update(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request updated successfully", leaveRequest)
}

// DeleteRequest implements LeaveHandler.
func (l *LeaveHandlerImpl) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	if err := l.leaveService.Delete(r.Context(), id.OrganizationID, id.EmployeeID, chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave request withdrawn successfully", nil)
}
