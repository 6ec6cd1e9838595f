package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"time"
)

// WeekdayOff marks the WeekIndex-th occurrence of Weekday in a month as non-working
type WeekdayOff struct {
	Weekday   time.Weekday
	WeekIndex int
}

func (w WeekdayOff) Validate() error {
	if w.Weekday < time.Sunday || w.Weekday > time.Saturday {
		return fmt.Errorf("%w: got %d", ErrInvalidWeekday, int(w.Weekday))
	}
	if w.WeekIndex < 1 || w.WeekIndex > 5 {
		return fmt.Errorf("%w: got %d", ErrInvalidWeekIndex, w.WeekIndex)
	}
	return nil
}

// WeekdayOffRules is a set of (weekday, week index) pairs. The JSON form is
// {"6":[1,3]}, weekday number to the week indices that are off.
type WeekdayOffRules map[time.Weekday][]int

func NewWeekdayOffRules(pairs ...WeekdayOff) (WeekdayOffRules, error) {
	rules := WeekdayOffRules{}
	for _, p := range pairs {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if !rules.Contains(p.Weekday, p.WeekIndex) {
			rules[p.Weekday] = append(rules[p.Weekday], p.WeekIndex)
		}
	}
	for wd := range rules {
		sort.Ints(rules[wd])
	}
	return rules, nil
}

func (r WeekdayOffRules) Contains(weekday time.Weekday, weekIndex int) bool {
	for _, idx := range r[weekday] {
		if idx == weekIndex {
			return true
		}
	}
	return false
}

// Pairs lists the rules ordered by weekday then week index
func (r WeekdayOffRules) Pairs() []WeekdayOff {
	var pairs []WeekdayOff
	for wd, indices := range r {
		for _, idx := range indices {
			pairs = append(pairs, WeekdayOff{Weekday: wd, WeekIndex: idx})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Weekday != pairs[j].Weekday {
			return pairs[i].Weekday < pairs[j].Weekday
		}
		return pairs[i].WeekIndex < pairs[j].WeekIndex
	})
	return pairs
}

func (r WeekdayOffRules) Validate() error {
	for wd, indices := range r {
		for _, idx := range indices {
			if err := (WeekdayOff{Weekday: wd, WeekIndex: idx}).Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// ScheduleConfig is the effective schedule for one employee on one date.
// Values are copied on resolution and never mutated afterwards.
type ScheduleConfig struct {
	OrganizationID       string          `json:"organization_id"`
	BranchID             *string         `json:"branch_id,omitempty"`
	Timezone             string          `json:"timezone"`
	WorkStartTime        ClockTime       `json:"work_start_time"`
	WorkEndTime          ClockTime       `json:"work_end_time"`
	GraceMinutes         int             `json:"grace_minutes"`
	LateThresholdMinutes int             `json:"late_threshold_minutes"`
	HalfDayCutoffTime    ClockTime       `json:"half_day_cutoff_time"`
	WorkingDays          []time.Weekday  `json:"working_days"`
	WeekdayOffRules      WeekdayOffRules `json:"weekday_off_rules"`
	AllowedRadiusMeters  int             `json:"allowed_radius_meters"`
	OfficeLatitude       *float64        `json:"office_latitude,omitempty"`
	OfficeLongitude      *float64        `json:"office_longitude,omitempty"`

	EnableGPSValidation      bool `json:"enable_gps_validation"`
	EnableWifiValidation     bool `json:"enable_wifi_validation"`
	EnableFaceValidation     bool `json:"enable_face_validation"`
	EnableCheckinValidation  bool `json:"enable_checkin_validation"`
	EnableCheckoutValidation bool `json:"enable_checkout_validation"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (c ScheduleConfig) Validate() error {
	if len(c.WorkingDays) == 0 {
		return ErrEmptyWorkingDays
	}
	for _, wd := range c.WorkingDays {
		if wd < time.Sunday || wd > time.Saturday {
			return fmt.Errorf("%w: got %d", ErrInvalidWeekday, int(wd))
		}
	}
	if err := c.WeekdayOffRules.Validate(); err != nil {
		return err
	}
	for _, ct := range []ClockTime{c.WorkStartTime, c.WorkEndTime, c.HalfDayCutoffTime} {
		if !ct.Valid() {
			return fmt.Errorf("%w: %d minutes", ErrInvalidClockTime, int(ct))
		}
	}
	if c.WorkEndTime <= c.WorkStartTime {
		return ErrWorkEndBeforeStart
	}
	if c.GraceMinutes < 0 || c.LateThresholdMinutes < 0 || c.AllowedRadiusMeters < 0 {
		return ErrNegativeMinutes
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTimezone, c.Timezone)
	}
	if c.OfficeLatitude != nil && (*c.OfficeLatitude < -90 || *c.OfficeLatitude > 90) {
		return ErrInvalidCoordinates
	}
	if c.OfficeLongitude != nil && (*c.OfficeLongitude < -180 || *c.OfficeLongitude > 180) {
		return ErrInvalidCoordinates
	}
	return nil
}

// Location falls back to UTC for an unknown zone; Validate rejects those before they are stored.
func (c ScheduleConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c ScheduleConfig) IsWorkingWeekday(wd time.Weekday) bool {
	for _, d := range c.WorkingDays {
		if d == wd {
			return true
		}
	}
	return false
}

// WithBranch applies the timing fields a branch overrides. Working days,
// weekday-off rules and holidays stay organization scoped.
func (c ScheduleConfig) WithBranch(b *BranchTiming) ScheduleConfig {
	if b == nil || !b.IsActive {
		return c
	}
	out := c
	out.BranchID = &b.BranchID
	if b.Timezone != nil && *b.Timezone != "" {
		out.Timezone = *b.Timezone
	}
	if b.WorkStartTime != nil {
		out.WorkStartTime = *b.WorkStartTime
	}
	if b.WorkEndTime != nil {
		out.WorkEndTime = *b.WorkEndTime
	}
	if b.GraceMinutes != nil {
		out.GraceMinutes = *b.GraceMinutes
	}
	if b.LateThresholdMinutes != nil {
		out.LateThresholdMinutes = *b.LateThresholdMinutes
	}
	if b.HalfDayCutoffTime != nil {
		out.HalfDayCutoffTime = *b.HalfDayCutoffTime
	}
	if b.OfficeLatitude != nil && b.OfficeLongitude != nil {
		out.OfficeLatitude = b.OfficeLatitude
		out.OfficeLongitude = b.OfficeLongitude
	}
	if b.AllowedRadiusMeters != nil {
		out.AllowedRadiusMeters = *b.AllowedRadiusMeters
	}
	out.WorkingDays = append([]time.Weekday(nil), c.WorkingDays...)
	return out
}

// BranchTiming holds the per-branch overrides; nil fields inherit the organization value
type BranchTiming struct {
	BranchID             string
	OrganizationID       string
	Name                 string
	IsActive             bool
	Timezone             *string
	WorkStartTime        *ClockTime
	WorkEndTime          *ClockTime
	GraceMinutes         *int
	LateThresholdMinutes *int
	HalfDayCutoffTime    *ClockTime
	OfficeLatitude       *float64
	OfficeLongitude      *float64
	AllowedRadiusMeters  *int
}

type Holiday struct {
	ID             string
	OrganizationID string
	Date           time.Time
	Name           string
	IsOptional     bool
	Source         string
	CreatedAt      time.Time
}

type NonWorkingReason string

const (
	ReasonNone           NonWorkingReason = ""
	ReasonWeeklyOff      NonWorkingReason = "weekly_off"
	ReasonWeekdayOffRule NonWorkingReason = "weekday_off_rule"
	ReasonHoliday        NonWorkingReason = "holiday"
)

// ResolvedDay is the schedule outcome for one (employee, date)
type ResolvedDay struct {
	Date       time.Time
	Config     ScheduleConfig
	NonWorking bool
	Reason     NonWorkingReason
	Holiday    *Holiday
}

func (d ResolvedDay) IsSunday() bool {
	return d.Date.Weekday() == time.Sunday
}

// ParseWeekdayOffRules converts the {"6":[1]} wire form, validating every pair
func ParseWeekdayOffRules(raw map[string][]int) (WeekdayOffRules, error) {
	var pairs []WeekdayOff
	for key, indices := range raw {
		wd, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidWeekday, key)
		}
		for _, idx := range indices {
			pairs = append(pairs, WeekdayOff{Weekday: time.Weekday(wd), WeekIndex: idx})
		}
	}
	return NewWeekdayOffRules(pairs...)
}
