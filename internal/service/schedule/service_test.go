package schedule

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/apperror"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/cache"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ========================================
// in-memory fakes
// ========================================

type fakeConfigRepo struct {
	configs  map[string]schedule.ScheduleConfig
	branches map[string]schedule.BranchTiming
	reads    int
}

func (f *fakeConfigRepo) GetByOrganization(_ context.Context, organizationID string) (schedule.ScheduleConfig, error) {
	f.reads++
	cfg, ok := f.configs[organizationID]
	if !ok {
		return schedule.ScheduleConfig{}, schedule.ErrScheduleNotFound
	}
	return cfg, nil
}

func (f *fakeConfigRepo) Upsert(_ context.Context, cfg schedule.ScheduleConfig) (schedule.ScheduleConfig, error) {
	f.configs[cfg.OrganizationID] = cfg
	return cfg, nil
}

func (f *fakeConfigRepo) GetBranchTiming(_ context.Context, branchID, _ string) (schedule.BranchTiming, error) {
	b, ok := f.branches[branchID]
	if !ok {
		return schedule.BranchTiming{}, schedule.ErrBranchNotFound
	}
	return b, nil
}

type fakeHolidayRepo struct {
	holidays []schedule.Holiday
	accepted map[string][]string
}

func (f *fakeHolidayRepo) ListByRange(_ context.Context, organizationID string, from, to time.Time) ([]schedule.Holiday, error) {
	var out []schedule.Holiday
	for _, h := range f.holidays {
		if h.OrganizationID == organizationID && !h.Date.Before(from) && !h.Date.After(to) {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeHolidayRepo) GetByID(_ context.Context, id, _ string) (schedule.Holiday, error) {
	for _, h := range f.holidays {
		if h.ID == id {
			return h, nil
		}
	}
	return schedule.Holiday{}, schedule.ErrHolidayNotFound
}

func (f *fakeHolidayRepo) Create(_ context.Context, h schedule.Holiday) (schedule.Holiday, error) {
	h.ID = "h-" + dateutil.Format(h.Date)
	f.holidays = append(f.holidays, h)
	return h, nil
}

func (f *fakeHolidayRepo) CreateMany(ctx context.Context, hs []schedule.Holiday) (int, error) {
	n := 0
	for _, h := range hs {
		if _, err := f.GetByID(ctx, "h-"+dateutil.Format(h.Date), h.OrganizationID); err == nil {
			continue
		}
		_, _ = f.Create(ctx, h)
		n++
	}
	return n, nil
}

func (f *fakeHolidayRepo) Delete(_ context.Context, id, _ string) error {
	for i, h := range f.holidays {
		if h.ID == id {
			f.holidays = append(f.holidays[:i], f.holidays[i+1:]...)
			return nil
		}
	}
	return schedule.ErrHolidayNotFound
}

func (f *fakeHolidayRepo) AcceptOptional(_ context.Context, holidayID, employeeID string) error {
	f.accepted[employeeID] = append(f.accepted[employeeID], holidayID)
	return nil
}

func (f *fakeHolidayRepo) ListAcceptedOptional(_ context.Context, employeeID string, _, _ time.Time) ([]string, error) {
	return f.accepted[employeeID], nil
}

type fakeEmployeeRepo struct {
	employees map[string]employee.Employee
}

func (f *fakeEmployeeRepo) GetByID(_ context.Context, id, organizationID string) (employee.Employee, error) {
	e, ok := f.employees[id]
	if !ok || e.OrganizationID != organizationID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (f *fakeEmployeeRepo) ListActive(_ context.Context, organizationID string) ([]employee.Employee, error) {
	var out []employee.Employee
	for _, e := range f.employees {
		if e.OrganizationID == organizationID && e.IsActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEmployeeRepo) ListActiveOrganizationIDs(context.Context) ([]string, error) {
	return nil, nil
}

type mapCache struct {
	data map[string][]byte
}

func (c *mapCache) GetJSON(_ context.Context, key string, dest interface{}) error {
	raw, ok := c.data[key]
	if !ok {
		return cache.ErrMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *mapCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *mapCache) DeletePrefix(_ context.Context, prefix string) error {
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

type fixture struct {
	svc      schedule.ScheduleService
	configs  *fakeConfigRepo
	holidays *fakeHolidayRepo
	cache    *mapCache
}

func newFixture() fixture {
	branchID := "br-1"
	configs := &fakeConfigRepo{
		configs:  map[string]schedule.ScheduleConfig{"org-1": mondayToSaturday()},
		branches: map[string]schedule.BranchTiming{},
	}
	holidays := &fakeHolidayRepo{accepted: map[string][]string{}}
	employees := &fakeEmployeeRepo{employees: map[string]employee.Employee{
		"emp-1": {ID: "emp-1", OrganizationID: "org-1", IsActive: true},
		"emp-2": {ID: "emp-2", OrganizationID: "org-1", BranchID: &branchID, IsActive: true},
	}}
	c := &mapCache{data: map[string][]byte{}}
	return fixture{
		svc:      NewScheduleService(configs, holidays, employees, c, time.Minute),
		configs:  configs,
		holidays: holidays,
		cache:    c,
	}
}

// ========================================
// tests
// ========================================

func TestResolveRange_CompleteRange(t *testing.T) {
	f := newFixture()
	days, err := f.svc.ResolveRange(context.Background(), "org-1", "emp-1",
		dateutil.Date(2024, time.June, 1), dateutil.Date(2024, time.June, 30))
	require.NoError(t, err)
	require.Len(t, days, 30)

	nonWorking := 0
	for _, d := range days {
		if d.NonWorking {
			nonWorking++
		}
	}
	// five Sundays in June 2024
	assert.Equal(t, 5, nonWorking)
}

func TestResolve_BranchOverride(t *testing.T) {
	f := newFixture()
	start := schedule.MustParseClock("07:30")
	f.configs.branches["br-1"] = schedule.BranchTiming{BranchID: "br-1", IsActive: true, WorkStartTime: &start}

	day, err := f.svc.Resolve(context.Background(), "org-1", "emp-2", dateutil.Date(2024, time.June, 3))
	require.NoError(t, err)
	assert.Equal(t, start, day.Config.WorkStartTime)

	other, err := f.svc.Resolve(context.Background(), "org-1", "emp-1", dateutil.Date(2024, time.June, 3))
	require.NoError(t, err)
	assert.Equal(t, schedule.MustParseClock("09:00"), other.Config.WorkStartTime)
}

func TestResolve_MissingBranchFallsBack(t *testing.T) {
	f := newFixture()
	day, err := f.svc.Resolve(context.Background(), "org-1", "emp-2", dateutil.Date(2024, time.June, 3))
	require.NoError(t, err)
	assert.Nil(t, day.Config.BranchID)
}

func TestResolve_UnknownEmployee(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Resolve(context.Background(), "org-1", "ghost", dateutil.Date(2024, time.June, 3))
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestResolve_InvalidStoredConfig(t *testing.T) {
	f := newFixture()
	cfg := mondayToSaturday()
	cfg.WorkingDays = nil
	f.configs.configs["org-1"] = cfg

	_, err := f.svc.Resolve(context.Background(), "org-1", "emp-1", dateutil.Date(2024, time.June, 3))
	assert.ErrorIs(t, err, schedule.ErrEmptyWorkingDays)
}

func TestResolve_UsesCacheUntilInvalidated(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	date := dateutil.Date(2024, time.June, 3)

	_, err := f.svc.Resolve(ctx, "org-1", "emp-1", date)
	require.NoError(t, err)
	_, err = f.svc.Resolve(ctx, "org-1", "emp-1", date)
	require.NoError(t, err)
	assert.Equal(t, 1, f.configs.reads)

	_, err = f.svc.CreateHoliday(ctx, schedule.CreateHolidayRequest{
		OrganizationID: "org-1",
		Date:           "2024-06-03",
		Name:           "Company Day",
	})
	require.NoError(t, err)

	day, err := f.svc.Resolve(ctx, "org-1", "emp-1", date)
	require.NoError(t, err)
	assert.True(t, day.NonWorking)
	assert.Equal(t, schedule.ReasonHoliday, day.Reason)
	assert.Equal(t, 2, f.configs.reads)
}

func TestAcceptOptionalHoliday(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	f.holidays.holidays = []schedule.Holiday{
		{ID: "opt", OrganizationID: "org-1", Date: dateutil.Date(2024, time.June, 4), Name: "Regional", IsOptional: true},
		{ID: "fixed", OrganizationID: "org-1", Date: dateutil.Date(2024, time.June, 5), Name: "National"},
	}

	before, err := f.svc.Resolve(ctx, "org-1", "emp-1", dateutil.Date(2024, time.June, 4))
	require.NoError(t, err)
	assert.False(t, before.NonWorking)

	require.NoError(t, f.svc.AcceptOptionalHoliday(ctx, "org-1", "emp-1", "opt"))
	after, err := f.svc.Resolve(ctx, "org-1", "emp-1", dateutil.Date(2024, time.June, 4))
	require.NoError(t, err)
	assert.True(t, after.NonWorking)

	err = f.svc.AcceptOptionalHoliday(ctx, "org-1", "emp-1", "fixed")
	assert.ErrorIs(t, err, schedule.ErrHolidayNotOptional)
}

func TestUpsertConfig_Validation(t *testing.T) {
	f := newFixture()
	_, err := f.svc.UpsertConfig(context.Background(), schedule.UpsertScheduleConfigRequest{
		OrganizationID:    "org-1",
		WorkStartTime:     "09:00",
		WorkEndTime:       "18:00",
		HalfDayCutoffTime: "14:00",
		WeekdayOffRules:   map[string][]int{"6": {6}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "working_days")
	assert.Contains(t, err.Error(), "weekday_off_rules")
}

func TestUpsertConfig_Saves(t *testing.T) {
	f := newFixture()
	resp, err := f.svc.UpsertConfig(context.Background(), schedule.UpsertScheduleConfigRequest{
		OrganizationID:    "org-2",
		Timezone:          "Asia/Jakarta",
		WorkStartTime:     "08:30 AM",
		WorkEndTime:       "05:30 PM",
		HalfDayCutoffTime: "13:00",
		WorkingDays:       []int{1, 2, 3, 4, 5},
		WeekdayOffRules:   map[string][]int{"5": {5}},
	})
	require.NoError(t, err)
	assert.Equal(t, "08:30", resp.WorkStartTime)
	assert.Equal(t, "17:30", resp.WorkEndTime)
	assert.Equal(t, map[string][]int{"5": {5}}, resp.WeekdayOffRules)
}

func TestImportHolidays_SkipsExisting(t *testing.T) {
	f := newFixture()
	f.holidays.holidays = []schedule.Holiday{{ID: "h-2025-01-01", OrganizationID: "org-1", Date: dateutil.Date(2025, time.January, 1), Name: "New Year"}}

	resp, err := f.svc.ImportHolidays(context.Background(), schedule.ImportHolidaysRequest{
		OrganizationID: "org-1",
		Calendar:       strings.NewReader(holidayFeed),
	})
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Parsed)
	assert.Equal(t, 3, resp.Imported)
	assert.Equal(t, 1, resp.Skipped)
}
