package attendance

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

// ========================================
// PUNCH DTOs
// ========================================

type RecordPunchRequest struct {
	OrganizationID string     `json:"-"`
	EmployeeID     string     `json:"-"`
	Type           string     `json:"type"`
	Timestamp      *time.Time `json:"timestamp"`
	Source         string     `json:"source"`

	// Results of the external checks, consumed as-is
	GPSVerified  *bool `json:"gps_verified"`
	WifiVerified *bool `json:"wifi_verified"`
	FaceVerified *bool `json:"face_verified"`

	// Device position; used for the GPS check when gps_verified is absent
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (r *RecordPunchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}
	if !PunchType(r.Type).Valid() {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of: check-in, check-out",
		})
	}
	if r.Source == "" {
		r.Source = SourceWeb
	}
	if !validator.IsInSlice(r.Source, PunchSourceValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "source",
			Message: "source must be one of: " + strings.Join(PunchSourceValues, ", "),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PunchResponse struct {
	ID         string            `json:"id"`
	EmployeeID string            `json:"employee_id"`
	Type       string            `json:"type"`
	Timestamp  string            `json:"timestamp"`
	Source     string            `json:"source"`
	Day        DayRecordResponse `json:"day"`
}

// ========================================
// DAY RECORD DTOs
// ========================================

type DayRecordFilter struct {
	OrganizationID string
	EmployeeID     string
	From           string
	To             string
}

func (f *DayRecordFilter) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(f.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	errs = append(errs, validateRange(f.From, f.To)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// maxRangeDays bounds a single classification request
const maxRangeDays = 366

func validateRange(from, to string) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if !validator.IsValidDate(from) {
		errs = append(errs, validator.ValidationError{Field: "from", Message: "from must be in YYYY-MM-DD format"})
	}
	if !validator.IsValidDate(to) {
		errs = append(errs, validator.ValidationError{Field: "to", Message: "to must be in YYYY-MM-DD format"})
	}
	if len(errs) > 0 {
		return errs
	}
	f, _ := dateutil.Parse(from)
	t, _ := dateutil.Parse(to)
	if t.Before(f) {
		errs = append(errs, validator.ValidationError{Field: "to", Message: "to must not be before from"})
	} else if t.Sub(f).Hours()/24 >= maxRangeDays {
		errs = append(errs, validator.ValidationError{Field: "to", Message: "range must not exceed 366 days"})
	}
	return errs
}

type DayRecordResponse struct {
	Date                  string  `json:"date"`
	Status                string  `json:"status"`
	InTime                *string `json:"in_time"`
	OutTime               *string `json:"out_time"`
	WorkingHours          float64 `json:"working_hours"`
	IsHoliday             bool    `json:"is_holiday"`
	IsSunday              bool    `json:"is_sunday"`
	LateClockIn           bool    `json:"late_clock_in"`
	NoClockOut            bool    `json:"no_clock_out"`
	EarlyClockOut         bool    `json:"early_clock_out"`
	LateMinutes           int     `json:"late_minutes"`
	ExceededLateThreshold bool    `json:"exceeded_late_threshold"`
	Reason                string  `json:"reason,omitempty"`
}

func NewDayRecordResponse(r DayRecord) DayRecordResponse {
	return DayRecordResponse{
		Date:                  dateutil.Format(r.Date),
		Status:                string(r.Status),
		InTime:                timePtrToString(r.InTime),
		OutTime:               timePtrToString(r.OutTime),
		WorkingHours:          r.WorkingHours,
		IsHoliday:             r.IsHoliday,
		IsSunday:              r.IsSunday,
		LateClockIn:           r.LateClockIn,
		NoClockOut:            r.NoClockOut,
		EarlyClockOut:         r.EarlyClockOut,
		LateMinutes:           r.LateMinutes,
		ExceededLateThreshold: r.ExceededLateThreshold,
		Reason:                r.Reason,
	}
}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

type RecomputeRequest struct {
	OrganizationID string `json:"-"`
	EmployeeID     string `json:"employee_id"`
	From           string `json:"from"`
	To             string `json:"to"`
}

func (r *RecomputeRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	errs = append(errs, validateRange(r.From, r.To)...)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RecomputeResponse struct {
	EmployeeID string              `json:"employee_id"`
	Days       []DayRecordResponse `json:"days"`
}

// ========================================
// TIMESLIP DTOs
// ========================================

type SubmitTimeslipRequest struct {
	OrganizationID string `json:"-"`
	EmployeeID     string `json:"-"`
	Date           string `json:"date"`
	MissingType    string `json:"missing_type"`
	CorrectedIn    string `json:"corrected_in"`
	CorrectedOut   string `json:"corrected_out"`
	Reason         string `json:"reason"`
}

func (r *SubmitTimeslipRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidDate(r.Date) {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be in YYYY-MM-DD format"})
	}
	errs = append(errs, validateCorrection(r.MissingType, r.CorrectedIn, r.CorrectedOut)...)
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "reason is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateCorrection(missingType, correctedIn, correctedOut string) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if !validator.IsInSlice(missingType, MissingTypeValues) {
		return append(errs, validator.ValidationError{
			Field:   "missing_type",
			Message: "missing_type must be one of: " + strings.Join(MissingTypeValues, ", "),
		})
	}

	needIn := missingType == string(MissingIn) || missingType == string(MissingBoth)
	needOut := missingType == string(MissingOut) || missingType == string(MissingBoth)

	var in, out schedule.ClockTime
	var inErr, outErr error
	if needIn {
		if in, inErr = schedule.ParseClock(correctedIn); inErr != nil {
			errs = append(errs, validator.ValidationError{Field: "corrected_in", Message: "corrected_in is required and must be a valid time"})
		}
	}
	if needOut {
		if out, outErr = schedule.ParseClock(correctedOut); outErr != nil {
			errs = append(errs, validator.ValidationError{Field: "corrected_out", Message: "corrected_out is required and must be a valid time"})
		}
	}
	if needIn && needOut && inErr == nil && outErr == nil && out <= in {
		errs = append(errs, validator.ValidationError{Field: "corrected_out", Message: "corrected_out must be after corrected_in"})
	}
	return errs
}

type UpdateTimeslipRequest struct {
	ID             string `json:"-"`
	OrganizationID string `json:"-"`
	EmployeeID     string `json:"-"`
	MissingType    string `json:"missing_type"`
	CorrectedIn    string `json:"corrected_in"`
	CorrectedOut   string `json:"corrected_out"`
	Reason         string `json:"reason"`
}

func (r *UpdateTimeslipRequest) Validate() error {
	var errs validator.ValidationErrors
	errs = append(errs, validateCorrection(r.MissingType, r.CorrectedIn, r.CorrectedOut)...)
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "reason is required"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type TimeslipResponse struct {
	ID                string  `json:"id"`
	EmployeeID        string  `json:"employee_id"`
	Date              string  `json:"date"`
	MissingType       string  `json:"missing_type"`
	CorrectedIn       *string `json:"corrected_in"`
	CorrectedOut      *string `json:"corrected_out"`
	Reason            string  `json:"reason"`
	Status            string  `json:"status"`
	WorkflowRequestID *string `json:"workflow_request_id"`
	CreatedAt         string  `json:"created_at"`
	UpdatedAt         string  `json:"updated_at"`
}

func NewTimeslipResponse(t Timeslip) TimeslipResponse {
	return TimeslipResponse{
		ID:                t.ID,
		EmployeeID:        t.EmployeeID,
		Date:              dateutil.Format(t.Date),
		MissingType:       string(t.MissingType),
		CorrectedIn:       timePtrToString(t.CorrectedIn),
		CorrectedOut:      timePtrToString(t.CorrectedOut),
		Reason:            t.Reason,
		Status:            string(t.Status),
		WorkflowRequestID: t.WorkflowRequestID,
		CreatedAt:         t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         t.UpdatedAt.Format(time.RFC3339),
	}
}
