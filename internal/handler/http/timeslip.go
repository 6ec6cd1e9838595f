package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type TimeslipHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
}

type timeslipHandlerImpl struct {
	timeslipService attendance.TimeslipService
}

func NewTimeslipHandler(timeslipService attendance.TimeslipService) TimeslipHandler {
	return &timeslipHandlerImpl{timeslipService: timeslipService}
}

// Submit handles POST /timeslips
func (h *timeslipHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	var req attendance.SubmitTimeslipRequest
	if !decodeJSON(w, r, &req, "SubmitTimeslip") {
		return
	}
	req.OrganizationID = id.OrganizationID
	req.EmployeeID = id.EmployeeID

	timeslip, err := h.timeslipService.Submit(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Timeslip submitted successfully", timeslip)
}

// Get handles GET /timeslips/{id}
func (h *timeslipHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	timeslip, err := h.timeslipService.Get(r.Context(), id.OrganizationID, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if _, ok := targetEmployee(w, id, timeslip.EmployeeID); !ok {
		return
	}

	response.Success(w, timeslip)
}

// Update handles PUT /timeslips/{id}
func (h *timeslipHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	var req attendance.UpdateTimeslipRequest
	if !decodeJSON(w, r, &req, "UpdateTimeslip") {
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.OrganizationID = id.OrganizationID
	req.EmployeeID = id.EmployeeID

	timeslip, err := h.timeslipService.Update(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Timeslip updated successfully", timeslip)
}

// Delete handles DELETE /timeslips/{id}
func (h *timeslipHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	if err := h.timeslipService.Delete(r.Context(), id.OrganizationID, id.EmployeeID, chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Timeslip withdrawn successfully", nil)
}
