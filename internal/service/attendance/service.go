package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/utils"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// maxFutureSkew tolerates device clocks running slightly ahead
const maxFutureSkew = 2 * time.Minute

type AttendanceServiceImpl struct {
	tx           database.Transactor
	punchRepo    attendance.PunchRepository
	dayRepo      attendance.DayRecordRepository
	timeslipRepo attendance.TimeslipRepository
	leaveRepo    leave.LeaveRequestRepository
	employeeRepo employee.EmployeeRepository
	resolver     schedule.Resolver
	workers      int
	now          func() time.Time
}

func NewAttendanceService(
	tx database.Transactor,
	punchRepo attendance.PunchRepository,
	dayRepo attendance.DayRecordRepository,
	timeslipRepo attendance.TimeslipRepository,
	leaveRepo leave.LeaveRequestRepository,
	employeeRepo employee.EmployeeRepository,
	resolver schedule.Resolver,
	workers int,
) *AttendanceServiceImpl {
	if workers < 1 {
		workers = 1
	}
	return &AttendanceServiceImpl{
		tx:           tx,
		punchRepo:    punchRepo,
		dayRepo:      dayRepo,
		timeslipRepo: timeslipRepo,
		leaveRepo:    leaveRepo,
		employeeRepo: employeeRepo,
		resolver:     resolver,
		workers:      workers,
		now:          time.Now,
	}
}

// ClassifyRange implements attendance.DayRecorder.
func (s *AttendanceServiceImpl) ClassifyRange(ctx context.Context, organizationID, employeeID string, from, to time.Time) ([]attendance.DayRecord, error) {
	days, err := s.resolver.ResolveRange(ctx, organizationID, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return nil, nil
	}

	loc := days[0].Config.Location()
	first, last := days[0].Date, days[len(days)-1].Date
	rangeStart := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, loc)
	rangeEnd := time.Date(last.Year(), last.Month(), last.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)

	punches, err := s.punchRepo.ListByEmployee(ctx, employeeID, rangeStart, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("failed to load punches: %w", err)
	}
	leaves, err := s.leaveRepo.ListApprovedByEmployee(ctx, employeeID, first, last)
	if err != nil {
		return nil, fmt.Errorf("failed to load approved leave: %w", err)
	}
	pending, err := s.timeslipRepo.ListPendingByEmployee(ctx, employeeID, first, last)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending timeslips: %w", err)
	}

	punchesByDate := make(map[string][]attendance.PunchEvent)
	for _, p := range punches {
		key := dateutil.Format(dateutil.In(p.Timestamp, loc))
		punchesByDate[key] = append(punchesByDate[key], p)
	}
	pendingByDate := make(map[string]bool, len(pending))
	for _, ts := range pending {
		pendingByDate[dateutil.Format(ts.Date)] = true
	}

	now := s.now()
	today := dateutil.In(now, loc)
	records := make([]attendance.DayRecord, 0, len(days))
	for _, day := range days {
		key := dateutil.Format(day.Date)
		records = append(records, Classify(ClassifyInput{
			OrganizationID:    organizationID,
			EmployeeID:        employeeID,
			Day:               day,
			Punches:           punchesByDate[key],
			OnLeave:           coveredByLeave(leaves, day.Date),
			PendingCorrection: pendingByDate[key],
			Today:             today,
			Now:               now,
		}))
	}
	return records, nil
}

func coveredByLeave(leaves []leave.LeaveRequest, date time.Time) bool {
	for _, l := range leaves {
		if l.Status == leave.LeaveRequestStatusApproved && l.Covers(date) {
			return true
		}
	}
	return false
}

// RecomputeRange implements attendance.DayRecorder.
func (s *AttendanceServiceImpl) RecomputeRange(ctx context.Context, organizationID, employeeID string, from, to time.Time) ([]attendance.DayRecord, error) {
	records, err := s.ClassifyRange(ctx, organizationID, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	if err := s.dayRepo.UpsertMany(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to save day records: %w", err)
	}
	return records, nil
}

// RecordPunch implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) RecordPunch(ctx context.Context, req attendance.RecordPunchRequest) (attendance.PunchResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.PunchResponse{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, req.OrganizationID)
	if err != nil {
		return attendance.PunchResponse{}, err
	}
	if !emp.IsActive {
		return attendance.PunchResponse{}, employee.ErrEmployeeInactive
	}

	now := s.now()
	ts := now
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}
	if ts.After(now.Add(maxFutureSkew)) {
		return attendance.PunchResponse{}, attendance.ErrPunchInFuture
	}

	day, err := s.resolveLocalDay(ctx, req.OrganizationID, req.EmployeeID, ts)
	if err != nil {
		return attendance.PunchResponse{}, err
	}
	punchType := attendance.PunchType(req.Type)
	if !passesValidation(day.Config, punchType, req) {
		return attendance.PunchResponse{}, attendance.ErrPunchValidationFailed
	}

	var saved attendance.PunchEvent
	var record attendance.DayRecord
	err = s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		saved, err = s.punchRepo.Append(txCtx, attendance.PunchEvent{
			ID:             uuid.NewString(),
			OrganizationID: req.OrganizationID,
			EmployeeID:     req.EmployeeID,
			Type:           punchType,
			Timestamp:      ts,
			Source:         req.Source,
		})
		if err != nil {
			return fmt.Errorf("failed to save punch: %w", err)
		}

		records, err := s.RecomputeRange(txCtx, req.OrganizationID, req.EmployeeID, day.Date, day.Date)
		if err != nil {
			return err
		}
		record = records[0]
		return nil
	})
	if err != nil {
		return attendance.PunchResponse{}, err
	}

	return attendance.PunchResponse{
		ID:         saved.ID,
		EmployeeID: saved.EmployeeID,
		Type:       string(saved.Type),
		Timestamp:  saved.Timestamp.Format(time.RFC3339),
		Source:     saved.Source,
		Day:        attendance.NewDayRecordResponse(record),
	}, nil
}

// resolveLocalDay finds the schedule day ts falls on in the employee's own timezone
func (s *AttendanceServiceImpl) resolveLocalDay(ctx context.Context, organizationID, employeeID string, ts time.Time) (schedule.ResolvedDay, error) {
	utcDate := dateutil.DateOf(ts.UTC())
	days, err := s.resolver.ResolveRange(ctx, organizationID, employeeID, utcDate.AddDate(0, 0, -1), utcDate.AddDate(0, 0, 1))
	if err != nil {
		return schedule.ResolvedDay{}, err
	}
	local := dateutil.In(ts, days[1].Config.Location())
	for _, d := range days {
		if d.Date.Equal(local) {
			return d, nil
		}
	}
	return days[1], nil
}

// passesValidation consumes the results of the external location and identity
// checks; a check that is enabled but not reported counts as failed.
func passesValidation(cfg schedule.ScheduleConfig, t attendance.PunchType, req attendance.RecordPunchRequest) bool {
	if t == attendance.PunchCheckIn && !cfg.EnableCheckinValidation {
		return true
	}
	if t == attendance.PunchCheckOut && !cfg.EnableCheckoutValidation {
		return true
	}
	checks := []struct {
		enabled bool
		result  *bool
	}{
		{cfg.EnableGPSValidation, gpsResult(cfg, req)},
		{cfg.EnableWifiValidation, req.WifiVerified},
		{cfg.EnableFaceValidation, req.FaceVerified},
	}
	for _, c := range checks {
		if c.enabled && (c.result == nil || !*c.result) {
			return false
		}
	}
	return true
}

// gpsResult prefers the reported check and falls back to the office radius
func gpsResult(cfg schedule.ScheduleConfig, req attendance.RecordPunchRequest) *bool {
	if req.GPSVerified != nil {
		return req.GPSVerified
	}
	if req.Latitude == nil || req.Longitude == nil || cfg.OfficeLatitude == nil || cfg.OfficeLongitude == nil {
		return nil
	}
	inside := utils.WithinRadius(*req.Latitude, *req.Longitude, *cfg.OfficeLatitude, *cfg.OfficeLongitude, cfg.AllowedRadiusMeters)
	return &inside
}

// ListDays implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListDays(ctx context.Context, filter attendance.DayRecordFilter) ([]attendance.DayRecordResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	from, _ := dateutil.Parse(filter.From)
	to, _ := dateutil.Parse(filter.To)

	records, err := s.ClassifyRange(ctx, filter.OrganizationID, filter.EmployeeID, from, to)
	if err != nil {
		return nil, err
	}

	resp := make([]attendance.DayRecordResponse, 0, len(records))
	for _, r := range records {
		resp = append(resp, attendance.NewDayRecordResponse(r))
	}
	return resp, nil
}

// Recompute implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) Recompute(ctx context.Context, req attendance.RecomputeRequest) (attendance.RecomputeResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecomputeResponse{}, err
	}
	from, _ := dateutil.Parse(req.From)
	to, _ := dateutil.Parse(req.To)

	records, err := s.RecomputeRange(ctx, req.OrganizationID, req.EmployeeID, from, to)
	if err != nil {
		return attendance.RecomputeResponse{}, err
	}

	days := make([]attendance.DayRecordResponse, 0, len(records))
	for _, r := range records {
		days = append(days, attendance.NewDayRecordResponse(r))
	}
	return attendance.RecomputeResponse{EmployeeID: req.EmployeeID, Days: days}, nil
}

// RecomputeOrganizationDay implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) RecomputeOrganizationDay(ctx context.Context, organizationID string, date time.Time) (int, error) {
	employees, err := s.employeeRepo.ListActive(ctx, organizationID)
	if err != nil {
		return 0, fmt.Errorf("failed to list active employees: %w", err)
	}

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, emp := range employees {
		emp := emp
		g.Go(func() error {
			if _, err := s.RecomputeRange(gctx, organizationID, emp.ID, date, date); err != nil {
				// one employee's bad data must not block the rest of the organization
				slog.Error("Failed to recompute day", "organization_id", organizationID, "employee_id", emp.ID, "date", dateutil.Format(date), "error", err)
				return nil
			}
			done.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return int(done.Load()), err
	}
	return int(done.Load()), ctx.Err()
}
