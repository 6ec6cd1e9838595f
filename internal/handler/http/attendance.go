package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
)

type AttendanceHandler interface {
	RecordPunch(w http.ResponseWriter, r *http.Request)
	ListDays(w http.ResponseWriter, r *http.Request)
	Recompute(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// RecordPunch handles POST /attendance/punches
func (h *attendanceHandlerImpl) RecordPunch(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	var req attendance.RecordPunchRequest
	if !decodeJSON(w, r, &req, "RecordPunch") {
		return
	}
	req.OrganizationID = id.OrganizationID
	req.EmployeeID = id.EmployeeID

	punch, err := h.attendanceService.RecordPunch(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Punch recorded successfully", punch)
}

// ListDays handles GET /attendance/days?employee_id&from&to
func (h *attendanceHandlerImpl) ListDays(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	employeeID, ok := targetEmployee(w, id, r.URL.Query().Get("employee_id"))
	if !ok {
		return
	}

	days, err := h.attendanceService.ListDays(r.Context(), attendance.DayRecordFilter{
		OrganizationID: id.OrganizationID,
		EmployeeID:     employeeID,
		From:           r.URL.Query().Get("from"),
		To:             r.URL.Query().Get("to"),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, days)
}

// Recompute handles POST /attendance/recompute
func (h *attendanceHandlerImpl) Recompute(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	var req attendance.RecomputeRequest
	if !decodeJSON(w, r, &req, "Recompute") {
		return
	}
	req.OrganizationID = id.OrganizationID

	result, err := h.attendanceService.Recompute(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance recomputed successfully", result)
}
