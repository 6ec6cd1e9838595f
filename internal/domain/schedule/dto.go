package schedule

import (
	"io"
	"strconv"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

type UpsertScheduleConfigRequest struct {
	OrganizationID       string           `json:"-"`
	Timezone             string           `json:"timezone"`
	WorkStartTime        string           `json:"work_start_time"`
	WorkEndTime          string           `json:"work_end_time"`
	GraceMinutes         int              `json:"grace_minutes"`
	LateThresholdMinutes int              `json:"late_threshold_minutes"`
	HalfDayCutoffTime    string           `json:"half_day_cutoff_time"`
	WorkingDays          []int            `json:"working_days"`
	WeekdayOffRules      map[string][]int `json:"weekday_off_rules"`
	AllowedRadiusMeters  int              `json:"allowed_radius_meters"`
	OfficeLatitude       *float64         `json:"office_latitude"`
	OfficeLongitude      *float64         `json:"office_longitude"`

	EnableGPSValidation      bool `json:"enable_gps_validation"`
	EnableWifiValidation     bool `json:"enable_wifi_validation"`
	EnableFaceValidation     bool `json:"enable_face_validation"`
	EnableCheckinValidation  bool `json:"enable_checkin_validation"`
	EnableCheckoutValidation bool `json:"enable_checkout_validation"`
}

func (r *UpsertScheduleConfigRequest) Validate() error {
	var errs validator.ValidationErrors

	clocks := map[string]string{
		"work_start_time":      r.WorkStartTime,
		"work_end_time":        r.WorkEndTime,
		"half_day_cutoff_time": r.HalfDayCutoffTime,
	}
	for _, field := range []string{"work_start_time", "work_end_time", "half_day_cutoff_time"} {
		if validator.IsEmpty(clocks[field]) {
			errs = append(errs, validator.ValidationError{Field: field, Message: field + " is required"})
			continue
		}
		if _, err := ParseClock(clocks[field]); err != nil {
			errs = append(errs, validator.ValidationError{Field: field, Message: field + " must be HH:MM, HH:MM:SS or hh:mm AM/PM"})
		}
	}
	if len(r.WorkingDays) == 0 {
		errs = append(errs, validator.ValidationError{Field: "working_days", Message: "working_days must not be empty"})
	}
	for _, wd := range r.WorkingDays {
		if wd < 0 || wd > 6 {
			errs = append(errs, validator.ValidationError{Field: "working_days", Message: "working_days must contain values between 0 and 6"})
			break
		}
	}
	if _, err := ParseWeekdayOffRules(r.WeekdayOffRules); err != nil {
		errs = append(errs, validator.ValidationError{Field: "weekday_off_rules", Message: err.Error()})
	}
	if r.GraceMinutes < 0 {
		errs = append(errs, validator.ValidationError{Field: "grace_minutes", Message: "grace_minutes must be a non-negative number"})
	}
	if r.LateThresholdMinutes < 0 {
		errs = append(errs, validator.ValidationError{Field: "late_threshold_minutes", Message: "late_threshold_minutes must be a non-negative number"})
	}
	if r.AllowedRadiusMeters < 0 {
		errs = append(errs, validator.ValidationError{Field: "allowed_radius_meters", Message: "allowed_radius_meters must be a non-negative number"})
	}
	if r.Timezone != "" {
		if _, err := time.LoadLocation(r.Timezone); err != nil {
			errs = append(errs, validator.ValidationError{Field: "timezone", Message: "timezone must be a valid IANA zone name"})
		}
	}
	if (r.OfficeLatitude == nil) != (r.OfficeLongitude == nil) {
		errs = append(errs, validator.ValidationError{Field: "office_latitude", Message: "office_latitude and office_longitude must be set together"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ToConfig assumes Validate has passed
func (r *UpsertScheduleConfigRequest) ToConfig() ScheduleConfig {
	tz := r.Timezone
	if tz == "" {
		tz = "UTC"
	}
	days := make([]time.Weekday, 0, len(r.WorkingDays))
	seen := map[int]bool{}
	for _, wd := range r.WorkingDays {
		if !seen[wd] {
			seen[wd] = true
			days = append(days, time.Weekday(wd))
		}
	}
	rules, _ := ParseWeekdayOffRules(r.WeekdayOffRules)
	return ScheduleConfig{
		OrganizationID:           r.OrganizationID,
		Timezone:                 tz,
		WorkStartTime:            MustParseClock(r.WorkStartTime),
		WorkEndTime:              MustParseClock(r.WorkEndTime),
		GraceMinutes:             r.GraceMinutes,
		LateThresholdMinutes:     r.LateThresholdMinutes,
		HalfDayCutoffTime:        MustParseClock(r.HalfDayCutoffTime),
		WorkingDays:              days,
		WeekdayOffRules:          rules,
		AllowedRadiusMeters:      r.AllowedRadiusMeters,
		OfficeLatitude:           r.OfficeLatitude,
		OfficeLongitude:          r.OfficeLongitude,
		EnableGPSValidation:      r.EnableGPSValidation,
		EnableWifiValidation:     r.EnableWifiValidation,
		EnableFaceValidation:     r.EnableFaceValidation,
		EnableCheckinValidation:  r.EnableCheckinValidation,
		EnableCheckoutValidation: r.EnableCheckoutValidation,
	}
}

type ScheduleConfigResponse struct {
	OrganizationID       string           `json:"organization_id"`
	BranchID             *string          `json:"branch_id,omitempty"`
	Timezone             string           `json:"timezone"`
	WorkStartTime        string           `json:"work_start_time"`
	WorkEndTime          string           `json:"work_end_time"`
	GraceMinutes         int              `json:"grace_minutes"`
	LateThresholdMinutes int              `json:"late_threshold_minutes"`
	HalfDayCutoffTime    string           `json:"half_day_cutoff_time"`
	WorkingDays          []int            `json:"working_days"`
	WeekdayOffRules      map[string][]int `json:"weekday_off_rules"`
	AllowedRadiusMeters  int              `json:"allowed_radius_meters"`
	OfficeLatitude       *float64         `json:"office_latitude,omitempty"`
	OfficeLongitude      *float64         `json:"office_longitude,omitempty"`

	EnableGPSValidation      bool `json:"enable_gps_validation"`
	EnableWifiValidation     bool `json:"enable_wifi_validation"`
	EnableFaceValidation     bool `json:"enable_face_validation"`
	EnableCheckinValidation  bool `json:"enable_checkin_validation"`
	EnableCheckoutValidation bool `json:"enable_checkout_validation"`
}

func NewScheduleConfigResponse(c ScheduleConfig) ScheduleConfigResponse {
	days := make([]int, len(c.WorkingDays))
	for i, wd := range c.WorkingDays {
		days[i] = int(wd)
	}
	rules := make(map[string][]int, len(c.WeekdayOffRules))
	for _, p := range c.WeekdayOffRules.Pairs() {
		key := strconv.Itoa(int(p.Weekday))
		rules[key] = append(rules[key], p.WeekIndex)
	}
	return ScheduleConfigResponse{
		OrganizationID:           c.OrganizationID,
		BranchID:                 c.BranchID,
		Timezone:                 c.Timezone,
		WorkStartTime:            c.WorkStartTime.String(),
		WorkEndTime:              c.WorkEndTime.String(),
		GraceMinutes:             c.GraceMinutes,
		LateThresholdMinutes:     c.LateThresholdMinutes,
		HalfDayCutoffTime:        c.HalfDayCutoffTime.String(),
		WorkingDays:              days,
		WeekdayOffRules:          rules,
		AllowedRadiusMeters:      c.AllowedRadiusMeters,
		OfficeLatitude:           c.OfficeLatitude,
		OfficeLongitude:          c.OfficeLongitude,
		EnableGPSValidation:      c.EnableGPSValidation,
		EnableWifiValidation:     c.EnableWifiValidation,
		EnableFaceValidation:     c.EnableFaceValidation,
		EnableCheckinValidation:  c.EnableCheckinValidation,
		EnableCheckoutValidation: c.EnableCheckoutValidation,
	}
}

type ResolveDayRequest struct {
	OrganizationID string
	EmployeeID     string
	Date           string
}

func (r *ResolveDayRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	if !validator.IsValidDate(r.Date) {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be in YYYY-MM-DD format"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ResolvedDayResponse struct {
	Date        string                 `json:"date"`
	IsWorkday   bool                   `json:"is_workday"`
	Reason      string                 `json:"reason,omitempty"`
	HolidayName *string                `json:"holiday_name,omitempty"`
	Schedule    ScheduleConfigResponse `json:"schedule"`
}

func NewResolvedDayResponse(d ResolvedDay) ResolvedDayResponse {
	resp := ResolvedDayResponse{
		Date:      dateutil.Format(d.Date),
		IsWorkday: !d.NonWorking,
		Reason:    string(d.Reason),
		Schedule:  NewScheduleConfigResponse(d.Config),
	}
	if d.Holiday != nil {
		resp.HolidayName = &d.Holiday.Name
	}
	return resp
}

type HolidayFilter struct {
	OrganizationID string
	From           string
	To             string
}

func (f *HolidayFilter) Validate() error {
	var errs validator.ValidationErrors
	if !validator.IsValidDate(f.From) {
		errs = append(errs, validator.ValidationError{Field: "from", Message: "from must be in YYYY-MM-DD format"})
	}
	if !validator.IsValidDate(f.To) {
		errs = append(errs, validator.ValidationError{Field: "to", Message: "to must be in YYYY-MM-DD format"})
	}
	if len(errs) == 0 && f.To < f.From {
		errs = append(errs, validator.ValidationError{Field: "to", Message: "to must not be before from"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

type CreateHolidayRequest struct {
	OrganizationID string `json:"-"`
	Date           string `json:"date"`
	Name           string `json:"name"`
	IsOptional     bool   `json:"is_optional"`
}

func (r *CreateHolidayRequest) Validate() error {
	var errs validator.ValidationErrors
	if !validator.IsValidDate(r.Date) {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "date must be in YYYY-MM-DD format"})
	}
	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "name is required"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ImportHolidaysRequest carries an iCalendar feed. Events whose CATEGORIES
// contain "optional" are imported as optional holidays.
type ImportHolidaysRequest struct {
	OrganizationID string
	Calendar       io.Reader
	// MarkAllOptional forces every imported event to be optional
	MarkAllOptional bool
}

type ImportHolidaysResponse struct {
	Parsed   int `json:"parsed"`
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

type HolidayResponse struct {
	ID         string `json:"id"`
	Date       string `json:"date"`
	Name       string `json:"name"`
	IsOptional bool   `json:"is_optional"`
	Source     string `json:"source"`
}

func NewHolidayResponse(h Holiday) HolidayResponse {
	return HolidayResponse{
		ID:         h.ID,
		Date:       dateutil.Format(h.Date),
		Name:       h.Name,
		IsOptional: h.IsOptional,
		Source:     h.Source,
	}
}
