package attendance

import (
	"time"
)

type PunchType string

const (
	PunchCheckIn  PunchType = "check-in"
	PunchCheckOut PunchType = "check-out"
)

func (t PunchType) Valid() bool {
	return t == PunchCheckIn || t == PunchCheckOut
}

const (
	SourceDevice   = "device"
	SourceWeb      = "web"
	SourceMobile   = "mobile"
	SourceTimeslip = "timeslip"
)

var PunchSourceValues = []string{SourceDevice, SourceWeb, SourceMobile}

// PunchEvent is append-only; corrections add new events with SourceTimeslip
type PunchEvent struct {
	ID             string
	OrganizationID string
	EmployeeID     string
	Type           PunchType
	Timestamp      time.Time
	Source         string
	TimeslipID     *string
	CreatedAt      time.Time
}

type DayStatus string

const (
	StatusPresent DayStatus = "present"
	StatusAbsent  DayStatus = "absent"
	StatusHalfDay DayStatus = "half-day"
	StatusHoliday DayStatus = "holiday"
	StatusOnLeave DayStatus = "on-leave"
	StatusPending DayStatus = "pending"
)

// DayRecord is derived from the schedule, punches, leave and corrections of one
// employee on one date. It is only ever written by recomputation.
type DayRecord struct {
	OrganizationID        string
	EmployeeID            string
	Date                  time.Time
	Status                DayStatus
	InTime                *time.Time
	OutTime               *time.Time
	WorkingHours          float64
	IsHoliday             bool
	IsSunday              bool
	LateClockIn           bool
	NoClockOut            bool
	EarlyClockOut         bool
	LateMinutes           int
	ExceededLateThreshold bool
	Reason                string
	ComputedAt            time.Time
}

type MissingType string

const (
	MissingIn   MissingType = "IN"
	MissingOut  MissingType = "OUT"
	MissingBoth MissingType = "BOTH"
)

var MissingTypeValues = []string{string(MissingIn), string(MissingOut), string(MissingBoth)}

type TimeslipStatus string

const (
	TimeslipPending  TimeslipStatus = "PENDING"
	TimeslipApproved TimeslipStatus = "APPROVED"
	TimeslipRejected TimeslipStatus = "REJECTED"
)

// Timeslip is a correction request for missing punches on one date
type Timeslip struct {
	ID                string
	OrganizationID    string
	EmployeeID        string
	Date              time.Time
	MissingType       MissingType
	CorrectedIn       *time.Time
	CorrectedOut      *time.Time
	Reason            string
	Status            TimeslipStatus
	WorkflowRequestID *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (t Timeslip) IsPending() bool {
	return t.Status == TimeslipPending
}

// CorrectionPunches are the events appended once the timeslip is approved
func (t Timeslip) CorrectionPunches() []PunchEvent {
	id := t.ID
	var punches []PunchEvent
	if t.CorrectedIn != nil && (t.MissingType == MissingIn || t.MissingType == MissingBoth) {
		punches = append(punches, PunchEvent{
			OrganizationID: t.OrganizationID,
			EmployeeID:     t.EmployeeID,
			Type:           PunchCheckIn,
			Timestamp:      *t.CorrectedIn,
			Source:         SourceTimeslip,
			TimeslipID:     &id,
		})
	}
	if t.CorrectedOut != nil && (t.MissingType == MissingOut || t.MissingType == MissingBoth) {
		punches = append(punches, PunchEvent{
			OrganizationID: t.OrganizationID,
			EmployeeID:     t.EmployeeID,
			Type:           PunchCheckOut,
			Timestamp:      *t.CorrectedOut,
			Source:         SourceTimeslip,
			TimeslipID:     &id,
		})
	}
	return punches
}
