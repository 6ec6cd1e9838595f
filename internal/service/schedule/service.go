package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/cache"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
)

type scheduleServiceImpl struct {
	configRepo   schedule.ConfigRepository
	holidayRepo  schedule.HolidayRepository
	employeeRepo employee.EmployeeRepository
	cache        cache.Cache
	cacheTTL     time.Duration
}

func NewScheduleService(
	configRepo schedule.ConfigRepository,
	holidayRepo schedule.HolidayRepository,
	employeeRepo employee.EmployeeRepository,
	c cache.Cache,
	cacheTTL time.Duration,
) schedule.ScheduleService {
	if c == nil {
		c = cache.Noop{}
	}
	return &scheduleServiceImpl{
		configRepo:   configRepo,
		holidayRepo:  holidayRepo,
		employeeRepo: employeeRepo,
		cache:        c,
		cacheTTL:     cacheTTL,
	}
}

func cachePrefix(organizationID string) string {
	return "schedule:" + organizationID + ":"
}

// Resolve implements schedule.Resolver.
func (s *scheduleServiceImpl) Resolve(ctx context.Context, organizationID, employeeID string, date time.Time) (schedule.ResolvedDay, error) {
	days, err := s.ResolveRange(ctx, organizationID, employeeID, date, date)
	if err != nil {
		return schedule.ResolvedDay{}, err
	}
	return days[0], nil
}

// ResolveRange implements schedule.Resolver.
func (s *scheduleServiceImpl) ResolveRange(ctx context.Context, organizationID, employeeID string, from, to time.Time) ([]schedule.ResolvedDay, error) {
	from, to = dateutil.DateOf(from), dateutil.DateOf(to)
	if to.Before(from) {
		return nil, fmt.Errorf("invalid range %s..%s", dateutil.Format(from), dateutil.Format(to))
	}

	emp, err := s.employeeRepo.GetByID(ctx, employeeID, organizationID)
	if err != nil {
		return nil, err
	}

	cfg, err := s.effectiveConfig(ctx, organizationID, emp.BranchID)
	if err != nil {
		return nil, err
	}

	holidays, err := s.holidays(ctx, organizationID, from, to)
	if err != nil {
		return nil, err
	}

	accepted := map[string]bool{}
	if hasOptional(holidays) {
		ids, err := s.holidayRepo.ListAcceptedOptional(ctx, employeeID, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to load accepted optional holidays: %w", err)
		}
		for _, id := range ids {
			accepted[id] = true
		}
	}

	byDate := indexHolidays(holidays)
	dates := dateutil.Range(from, to)
	days := make([]schedule.ResolvedDay, 0, len(dates))
	for _, d := range dates {
		days = append(days, ResolveDay(cfg, d, byDate, accepted))
	}
	return days, nil
}

func hasOptional(holidays []schedule.Holiday) bool {
	for _, h := range holidays {
		if h.IsOptional {
			return true
		}
	}
	return false
}

// effectiveConfig merges the active branch timing into the organization config and validates the result
func (s *scheduleServiceImpl) effectiveConfig(ctx context.Context, organizationID string, branchID *string) (schedule.ScheduleConfig, error) {
	cfg, err := s.organizationConfig(ctx, organizationID)
	if err != nil {
		return schedule.ScheduleConfig{}, err
	}

	if branchID != nil && *branchID != "" {
		branch, err := s.branchTiming(ctx, organizationID, *branchID)
		switch {
		case errors.Is(err, schedule.ErrBranchNotFound):
			slog.Warn("Employee branch not found, using organization schedule", "organization_id", organizationID, "branch_id", *branchID)
		case err != nil:
			return schedule.ScheduleConfig{}, err
		default:
			cfg = cfg.WithBranch(&branch)
		}
	}

	if err := cfg.Validate(); err != nil {
		return schedule.ScheduleConfig{}, err
	}
	return cfg, nil
}

func (s *scheduleServiceImpl) organizationConfig(ctx context.Context, organizationID string) (schedule.ScheduleConfig, error) {
	key := cachePrefix(organizationID) + "config"
	var cfg schedule.ScheduleConfig
	if err := s.cache.GetJSON(ctx, key, &cfg); err == nil {
		return cfg, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		slog.Warn("Schedule cache read failed", "key", key, "error", err)
	}

	cfg, err := s.configRepo.GetByOrganization(ctx, organizationID)
	if err != nil {
		return schedule.ScheduleConfig{}, err
	}
	s.store(ctx, key, cfg)
	return cfg, nil
}

func (s *scheduleServiceImpl) branchTiming(ctx context.Context, organizationID, branchID string) (schedule.BranchTiming, error) {
	key := cachePrefix(organizationID) + "branch:" + branchID
	var branch schedule.BranchTiming
	if err := s.cache.GetJSON(ctx, key, &branch); err == nil {
		return branch, nil
	}

	branch, err := s.configRepo.GetBranchTiming(ctx, branchID, organizationID)
	if err != nil {
		return schedule.BranchTiming{}, err
	}
	s.store(ctx, key, branch)
	return branch, nil
}

func (s *scheduleServiceImpl) holidays(ctx context.Context, organizationID string, from, to time.Time) ([]schedule.Holiday, error) {
	key := fmt.Sprintf("%sholidays:%s:%s", cachePrefix(organizationID), dateutil.Format(from), dateutil.Format(to))
	var holidays []schedule.Holiday
	if err := s.cache.GetJSON(ctx, key, &holidays); err == nil {
		return holidays, nil
	}

	holidays, err := s.holidayRepo.ListByRange(ctx, organizationID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load holidays: %w", err)
	}
	s.store(ctx, key, holidays)
	return holidays, nil
}

func (s *scheduleServiceImpl) store(ctx context.Context, key string, value interface{}) {
	if err := s.cache.SetJSON(ctx, key, value, s.cacheTTL); err != nil {
		slog.Warn("Schedule cache write failed", "key", key, "error", err)
	}
}

func (s *scheduleServiceImpl) invalidate(ctx context.Context, organizationID string) {
	if err := s.cache.DeletePrefix(ctx, cachePrefix(organizationID)); err != nil {
		slog.Warn("Schedule cache invalidation failed", "organization_id", organizationID, "error", err)
	}
}

// GetConfig implements schedule.ScheduleService.
func (s *scheduleServiceImpl) GetConfig(ctx context.Context, organizationID string) (schedule.ScheduleConfigResponse, error) {
	cfg, err := s.organizationConfig(ctx, organizationID)
	if err != nil {
		return schedule.ScheduleConfigResponse{}, err
	}
	return schedule.NewScheduleConfigResponse(cfg), nil
}

// UpsertConfig implements schedule.ScheduleService.
func (s *scheduleServiceImpl) UpsertConfig(ctx context.Context, req schedule.UpsertScheduleConfigRequest) (schedule.ScheduleConfigResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.ScheduleConfigResponse{}, err
	}

	cfg := req.ToConfig()
	if err := cfg.Validate(); err != nil {
		return schedule.ScheduleConfigResponse{}, err
	}

	saved, err := s.configRepo.Upsert(ctx, cfg)
	if err != nil {
		return schedule.ScheduleConfigResponse{}, fmt.Errorf("failed to save schedule config: %w", err)
	}
	s.invalidate(ctx, req.OrganizationID)

	slog.Info("Schedule config updated", "organization_id", req.OrganizationID)
	return schedule.NewScheduleConfigResponse(saved), nil
}

// ResolveDay implements schedule.ScheduleService.
func (s *scheduleServiceImpl) ResolveDay(ctx context.Context, req schedule.ResolveDayRequest) (schedule.ResolvedDayResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.ResolvedDayResponse{}, err
	}
	date, _ := dateutil.Parse(req.Date)

	day, err := s.Resolve(ctx, req.OrganizationID, req.EmployeeID, date)
	if err != nil {
		return schedule.ResolvedDayResponse{}, err
	}
	return schedule.NewResolvedDayResponse(day), nil
}

// ListHolidays implements schedule.ScheduleService.
func (s *scheduleServiceImpl) ListHolidays(ctx context.Context, filter schedule.HolidayFilter) ([]schedule.HolidayResponse, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	from, _ := dateutil.Parse(filter.From)
	to, _ := dateutil.Parse(filter.To)

	holidays, err := s.holidays(ctx, filter.OrganizationID, from, to)
	if err != nil {
		return nil, err
	}

	resp := make([]schedule.HolidayResponse, 0, len(holidays))
	for _, h := range holidays {
		resp = append(resp, schedule.NewHolidayResponse(h))
	}
	return resp, nil
}

// CreateHoliday implements schedule.ScheduleService.
func (s *scheduleServiceImpl) CreateHoliday(ctx context.Context, req schedule.CreateHolidayRequest) (schedule.HolidayResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.HolidayResponse{}, err
	}
	date, _ := dateutil.Parse(req.Date)

	created, err := s.holidayRepo.Create(ctx, schedule.Holiday{
		OrganizationID: req.OrganizationID,
		Date:           date,
		Name:           req.Name,
		IsOptional:     req.IsOptional,
		Source:         "manual",
	})
	if err != nil {
		return schedule.HolidayResponse{}, err
	}
	s.invalidate(ctx, req.OrganizationID)

	return schedule.NewHolidayResponse(created), nil
}

// ImportHolidays implements schedule.ScheduleService.
func (s *scheduleServiceImpl) ImportHolidays(ctx context.Context, req schedule.ImportHolidaysRequest) (schedule.ImportHolidaysResponse, error) {
	holidays, parsed, err := ParseHolidayCalendar(req.Calendar, req.OrganizationID, req.MarkAllOptional)
	if err != nil {
		return schedule.ImportHolidaysResponse{}, err
	}

	inserted, err := s.holidayRepo.CreateMany(ctx, holidays)
	if err != nil {
		return schedule.ImportHolidaysResponse{}, fmt.Errorf("failed to import holidays: %w", err)
	}
	s.invalidate(ctx, req.OrganizationID)

	slog.Info("Holidays imported", "organization_id", req.OrganizationID, "events", parsed, "imported", inserted)
	return schedule.ImportHolidaysResponse{
		Parsed:   parsed,
		Imported: inserted,
		Skipped:  len(holidays) - inserted,
	}, nil
}

// DeleteHoliday implements schedule.ScheduleService.
func (s *scheduleServiceImpl) DeleteHoliday(ctx context.Context, organizationID, id string) error {
	if err := s.holidayRepo.Delete(ctx, id, organizationID); err != nil {
		return err
	}
	s.invalidate(ctx, organizationID)
	return nil
}

// AcceptOptionalHoliday implements schedule.ScheduleService.
func (s *scheduleServiceImpl) AcceptOptionalHoliday(ctx context.Context, organizationID, employeeID, holidayID string) error {
	h, err := s.holidayRepo.GetByID(ctx, holidayID, organizationID)
	if err != nil {
		return err
	}
	if !h.IsOptional {
		return schedule.ErrHolidayNotOptional
	}
	if _, err := s.employeeRepo.GetByID(ctx, employeeID, organizationID); err != nil {
		return err
	}
	return s.holidayRepo.AcceptOptional(ctx, holidayID, employeeID)
}
