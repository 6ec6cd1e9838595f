package http

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

// maxCalendarUpload bounds both multipart uploads and fetched feeds
const maxCalendarUpload = 5 << 20

type ScheduleHandler interface {
	GetConfig(w http.ResponseWriter, r *http.Request)
	UpsertConfig(w http.ResponseWriter, r *http.Request)
	Resolve(w http.ResponseWriter, r *http.Request)

	ListHolidays(w http.ResponseWriter, r *http.Request)
	CreateHoliday(w http.ResponseWriter, r *http.Request)
	ImportHolidays(w http.ResponseWriter, r *http.Request)
	DeleteHoliday(w http.ResponseWriter, r *http.Request)
	AcceptHoliday(w http.ResponseWriter, r *http.Request)
}

type scheduleHandlerImpl struct {
	scheduleService schedule.ScheduleService
	httpClient      *http.Client
}

func NewScheduleHandler(scheduleService schedule.ScheduleService) ScheduleHandler {
	return &scheduleHandlerImpl{
		scheduleService: scheduleService,
		httpClient:      &http.Client{Timeout: 15 * time.Second},
	}
}

// GetConfig handles GET /schedule/config
func (h *scheduleHandlerImpl) GetConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	cfg, err := h.scheduleService.GetConfig(r.Context(), id.OrganizationID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, cfg)
}

// UpsertConfig handles PUT /schedule/config
func (h *scheduleHandlerImpl) UpsertConfig(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	var req schedule.UpsertScheduleConfigRequest
	if !decodeJSON(w, r, &req, "UpsertConfig") {
		return
	}
	req.OrganizationID = id.OrganizationID

	cfg, err := h.scheduleService.UpsertConfig(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Schedule config saved successfully", cfg)
}

// Resolve handles GET /schedule/resolve?employee_id&date
func (h *scheduleHandlerImpl) Resolve(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}
	employeeID, ok := targetEmployee(w, id, r.URL.Query().Get("employee_id"))
	if !ok {
		return
	}

	day, err := h.scheduleService.ResolveDay(r.Context(), schedule.ResolveDayRequest{
		OrganizationID: id.OrganizationID,
		EmployeeID:     employeeID,
		Date:           r.URL.Query().Get("date"),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, day)
}

// ListHolidays handles GET /holidays?from&to
func (h *scheduleHandlerImpl) ListHolidays(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	filter := schedule.HolidayFilter{
		OrganizationID: id.OrganizationID,
		From:           r.URL.Query().Get("from"),
		To:             r.URL.Query().Get("to"),
	}
	holidays, err := h.scheduleService.ListHolidays(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.List(w, holidays, response.Meta{From: filter.From, To: filter.To})
}

// CreateHoliday handles POST /holidays
func (h *scheduleHandlerImpl) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	var req schedule.CreateHolidayRequest
	if !decodeJSON(w, r, &req, "CreateHoliday") {
		return
	}
	req.OrganizationID = id.OrganizationID

	holiday, err := h.scheduleService.CreateHoliday(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Holiday created successfully", holiday)
}

// ImportHolidays handles POST /holidays/import. The calendar comes either as a
// multipart "file" or as a "url" form value pointing at an .ics feed.
func (h *scheduleHandlerImpl) ImportHolidays(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCalendarUpload+1<<20)
	if err := r.ParseMultipartForm(maxCalendarUpload); err != nil {
		slog.Error("Failed to parse multipart form", "error", err)
		response.BadRequest(w, "Failed to parse form data", nil)
		return
	}

	markOptional, _ := strconv.ParseBool(r.FormValue("optional"))

	var calendar io.Reader
	file, _, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		calendar = file
	case err == http.ErrMissingFile && r.FormValue("url") != "":
		body, err := h.fetchCalendar(r, r.FormValue("url"))
		if err != nil {
			slog.Error("Failed to fetch holiday calendar", "url", r.FormValue("url"), "error", err)
			response.BadRequest(w, "Failed to fetch calendar from url", nil)
			return
		}
		defer body.Close()
		calendar = io.LimitReader(body, maxCalendarUpload)
	default:
		response.BadRequest(w, "Either 'file' or 'url' is required", nil)
		return
	}

	result, err := h.scheduleService.ImportHolidays(r.Context(), schedule.ImportHolidaysRequest{
		OrganizationID:  id.OrganizationID,
		Calendar:        calendar,
		MarkAllOptional: markOptional,
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Holidays imported successfully", result)
}

func (h *scheduleHandlerImpl) fetchCalendar(r *http.Request, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// DeleteHoliday handles DELETE /holidays/{id}
func (h *scheduleHandlerImpl) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	holidayID := chi.URLParam(r, "id")
	if holidayID == "" {
		response.BadRequest(w, "Holiday ID is required", nil)
		return
	}

	if err := h.scheduleService.DeleteHoliday(r.Context(), id.OrganizationID, holidayID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Holiday deleted successfully", nil)
}

// AcceptHoliday handles POST /holidays/{id}/accept
func (h *scheduleHandlerImpl) AcceptHoliday(w http.ResponseWriter, r *http.Request) {
	id, ok := currentIdentity(w, r)
	if !ok {
		return
	}

	holidayID := chi.URLParam(r, "id")
	if err := h.scheduleService.AcceptOptionalHoliday(r.Context(), id.OrganizationID, id.EmployeeID, holidayID); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Optional holiday accepted", nil)
}
