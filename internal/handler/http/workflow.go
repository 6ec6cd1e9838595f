package http

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/workflow"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type WorkflowHandler interface {
	// Definitions (manager)
	CreateDefinition(w http.ResponseWriter, r *http.Request)
	ListDefinitions(w http.ResponseWriter, r *http.Request)
	GetDefinition(w http.ResponseWriter, r *http.Request)
	UpdateDefinition(w http.ResponseWriter, r *http.Request)
	DeleteDefinition(w http.ResponseWriter, r *http.Request)

	AddStep(w http.ResponseWriter, r *http.Request)
	UpdateStep(w http.ResponseWriter, r *http.Request)
	DeleteStep(w http.ResponseWriter, r *http.Request)
	AssignApprover(w http.ResponseWriter, r *http.Request)

	// Requests
	ListPending(w http.ResponseWriter, r *http.Request)
	GetRequest(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	History(w http.ResponseWriter, r *http.Request)
}

type workflowHandlerImpl struct {
	workflowService workflow.WorkflowService
}

func NewWorkflowHandler(workflowService workflow.WorkflowService) WorkflowHandler {
	return &workflowHandlerImpl{workflowService: workflowService}
}

// ========================================
// DEFINITIONS
// ========================================

// CreateDefinition handles POST /workflows/definitions
func (h *workflowHandlerImpl) CreateDefinition(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	var req workflow.CreateDefinitionRequest
	if !decodeJSON(w, r, &req, "CreateDefinition") {
		return
	}
	req.OrganizationID = id.OrganizationID
	req.AssignedBy = id.UserID

	definition, err := h.workflowService.CreateDefinition(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Workflow definition created successfully", definition)
}

// ListDefinitions handles GET /workflows/definitions
func (h *workflowHandlerImpl) ListDefinitions(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	definitions, err := h.workflowService.ListDefinitions(r.Context(), id.OrganizationID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, definitions)
}

// GetDefinition handles GET /workflows/definitions/{id}
func (h *workflowHandlerImpl) GetDefinition(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	definition, err := h.workflowService.GetDefinition(r.Context(), id.OrganizationID, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, definition)
}

// UpdateDefinition handles PUT /workflows/definitions/{id}
func (h *workflowHandlerImpl) UpdateDefinition(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	var req workflow.UpdateDefinitionRequest
	if !decodeJSON(w, r, &req, "UpdateDefinition") {
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.OrganizationID = id.OrganizationID

	definition, err := h.workflowService.UpdateDefinition(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Workflow definition updated successfully", definition)
}

// DeleteDefinition handles DELETE /workflows/definitions/{id}
func (h *workflowHandlerImpl) DeleteDefinition(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	if err := h.workflowService.DeleteDefinition(r.Context(), id.OrganizationID, chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Workflow definition deleted successfully", nil)
}

// AddStep handles POST /workflows/definitions/{id}/steps
func (h *workflowHandlerImpl) AddStep(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	var req workflow.AddStepRequest
	if !decodeJSON(w, r, &req, "AddStep") {
		return
	}
	req.OrganizationID = id.OrganizationID
	req.DefinitionID = chi.URLParam(r, "id")
	req.AssignedBy = id.UserID

	step, err := h.workflowService.AddStep(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Workflow step added successfully", step)
}

// UpdateStep handles PUT /workflows/steps/{stepID}
func (h *workflowHandlerImpl) UpdateStep(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	var req workflow.UpdateStepRequest
	if !decodeJSON(w, r, &req, "UpdateStep") {
		return
	}
	req.OrganizationID = id.OrganizationID
	req.StepID = chi.URLParam(r, "stepID")

	step, err := h.workflowService.UpdateStep(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Workflow step updated successfully", step)
}

// DeleteStep handles DELETE /workflows/steps/{stepID}
func (h *workflowHandlerImpl) DeleteStep(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	if err := h.workflowService.DeleteStep(r.Context(), id.OrganizationID, chi.URLParam(r, "stepID")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Workflow step deleted successfully", nil)
}

// AssignApprover handles PUT /workflows/steps/{stepID}/assignment
func (h *workflowHandlerImpl) AssignApprover(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	var req workflow.AssignApproverRequest
	if !decodeJSON(w, r, &req, "AssignApprover") {
		return
	}
	req.OrganizationID = id.OrganizationID
	req.StepID = chi.URLParam(r, "stepID")
	req.AssignedBy = id.UserID

	assignment, err := h.workflowService.AssignApprover(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Approver assigned successfully", assignment)
}

// ========================================
// REQUESTS
// ========================================

// ListPending handles GET /workflows/requests/pending
func (h *workflowHandlerImpl) ListPending(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	requests, err := h.workflowService.ListPendingForApprover(r.Context(), id.OrganizationID, id.EmployeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.List(w, requests, response.Meta{})
}

// GetRequest handles GET /workflows/requests/{id}
func (h *workflowHandlerImpl) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	request, err := h.workflowService.GetRequest(r.Context(), id.OrganizationID, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, request)
}

// Approve handles POST /workflows/requests/{id}/approve
func (h *workflowHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, workflow.DecisionApprove)
}

// Reject handles POST /workflows/requests/{id}/reject
func (h *workflowHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, workflow.DecisionReject)
}

func (h *workflowHandlerImpl) act(w http.ResponseWriter, r *http.Request, decision workflow.Decision) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	var req workflow.ActRequest
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &req, "Act") {
			return
		}
	}
	req.OrganizationID = id.OrganizationID
	req.RequestID = chi.URLParam(r, "id")
	req.ActorID = id.EmployeeID
	req.Decision = decision

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	request, err := h.workflowService.Act(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Decision recorded", request)
}

// History handles GET /workflows/requests/{id}/history
func (h *workflowHandlerImpl) History(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	events, err := h.workflowService.History(r.Context(), id.OrganizationID, chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, events)
}
