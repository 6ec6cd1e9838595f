package attendance

import (
	"fmt"
	"math"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
)

const (
	reasonCorrectionPending = "correction awaiting approval"
	reasonNotElapsed        = "day not yet elapsed"
	reasonOrphanCheckOut    = "check-out without check-in"
	reasonMissingClockOut   = "no clock-out recorded"
)

// ClassifyInput is everything known about one employee on one date
type ClassifyInput struct {
	OrganizationID string
	EmployeeID     string
	Day            schedule.ResolvedDay
	Punches        []attendance.PunchEvent
	OnLeave        bool
	// PendingCorrection is set while a timeslip for the date awaits approval
	PendingCorrection bool
	// Today is the current date in the schedule's timezone
	Today time.Time
	Now   time.Time
}

// Classify turns one day's inputs into its DayRecord. Rules are evaluated in
// order and the first match decides the status. It never fails: unusable punch
// data yields a pending day with the reason recorded.
func Classify(in ClassifyInput) attendance.DayRecord {
	rec := attendance.DayRecord{
		OrganizationID: in.OrganizationID,
		EmployeeID:     in.EmployeeID,
		Date:           in.Day.Date,
		IsSunday:       in.Day.IsSunday(),
		IsHoliday:      in.Day.Holiday != nil,
		ComputedAt:     in.Now,
	}

	if in.Day.NonWorking {
		rec.Status = attendance.StatusHoliday
		rec.Reason = string(in.Day.Reason)
		if in.Day.Holiday != nil {
			rec.Reason = in.Day.Holiday.Name
		}
		return rec
	}

	if in.OnLeave {
		rec.Status = attendance.StatusOnLeave
		return rec
	}

	classifyPunches(&rec, in)

	// the punches stay visible but the status waits for the correction decision
	if in.PendingCorrection {
		rec.Status = attendance.StatusPending
		rec.Reason = reasonCorrectionPending
	}
	return rec
}

func classifyPunches(rec *attendance.DayRecord, in ClassifyInput) {
	cfg := in.Day.Config
	loc := cfg.Location()
	elapsed := in.Day.Date.Before(dateutil.DateOf(in.Today))

	if err := checkPunches(in.Punches, in.Day.Date, loc); err != nil {
		rec.Status = attendance.StatusPending
		rec.Reason = err.Error()
		return
	}

	if len(in.Punches) == 0 {
		if elapsed {
			rec.Status = attendance.StatusAbsent
		} else {
			rec.Status = attendance.StatusPending
			rec.Reason = reasonNotElapsed
		}
		return
	}

	firstIn, lastOut := pairPunches(in.Punches)
	if firstIn == nil {
		rec.Status = attendance.StatusAbsent
		rec.Reason = reasonOrphanCheckOut
		return
	}

	rec.InTime = firstIn
	rec.OutTime = lastOut
	if lastOut != nil {
		rec.WorkingHours = roundHours(lastOut.Sub(*firstIn))
	}

	inClock := schedule.ClockOf(*firstIn, loc)
	rec.LateClockIn = inClock > cfg.WorkStartTime.Add(cfg.GraceMinutes)
	if rec.LateClockIn {
		rec.LateMinutes = int(inClock - cfg.WorkStartTime)
		rec.ExceededLateThreshold = cfg.LateThresholdMinutes > 0 && rec.LateMinutes > cfg.LateThresholdMinutes
	}
	if lastOut != nil {
		rec.EarlyClockOut = schedule.ClockOf(*lastOut, loc) < cfg.WorkEndTime
	}

	rec.Status = attendance.StatusPresent
	if lastOut == nil {
		rec.NoClockOut = true
		// an elapsed day without a clock-out only earns half-day credit until corrected
		if elapsed {
			rec.Status = attendance.StatusHalfDay
			rec.Reason = reasonMissingClockOut
		}
	}
	if inClock > cfg.HalfDayCutoffTime {
		rec.Status = attendance.StatusHalfDay
	}
}

// checkPunches rejects events the rules cannot interpret
func checkPunches(punches []attendance.PunchEvent, date time.Time, loc *time.Location) error {
	for _, p := range punches {
		switch {
		case !p.Type.Valid():
			return fmt.Errorf("%w: unknown punch type %q", attendance.ErrInvalidPunchSequence, p.Type)
		case p.Timestamp.IsZero():
			return fmt.Errorf("%w: punch without timestamp", attendance.ErrInvalidPunchSequence)
		case !dateutil.In(p.Timestamp, loc).Equal(date):
			return fmt.Errorf("%w: punch at %s is outside %s", attendance.ErrInvalidPunchSequence,
				p.Timestamp.In(loc).Format(time.RFC3339), dateutil.Format(date))
		}
	}
	return nil
}

// pairPunches returns the earliest check-in and the latest check-out strictly after it
func pairPunches(punches []attendance.PunchEvent) (*time.Time, *time.Time) {
	var firstIn *time.Time
	for i := range punches {
		p := punches[i]
		if p.Type == attendance.PunchCheckIn && (firstIn == nil || p.Timestamp.Before(*firstIn)) {
			ts := p.Timestamp
			firstIn = &ts
		}
	}
	if firstIn == nil {
		return nil, nil
	}

	var lastOut *time.Time
	for i := range punches {
		p := punches[i]
		if p.Type == attendance.PunchCheckOut && p.Timestamp.After(*firstIn) && (lastOut == nil || p.Timestamp.After(*lastOut)) {
			ts := p.Timestamp
			lastOut = &ts
		}
	}
	return firstIn, lastOut
}

func roundHours(d time.Duration) float64 {
	return math.Round(d.Minutes()/60*100) / 100
}
