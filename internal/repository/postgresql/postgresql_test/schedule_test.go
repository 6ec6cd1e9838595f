package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleConfigRepository_UpsertAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewScheduleConfigRepository(db)
	ctx := context.Background()

	_, err := repo.GetByOrganization(ctx, testOrg)
	assert.ErrorIs(t, err, schedule.ErrScheduleNotFound)

	rules, err := schedule.NewWeekdayOffRules(schedule.WeekdayOff{Weekday: time.Saturday, WeekIndex: 2})
	require.NoError(t, err)

	cfg := schedule.ScheduleConfig{
		OrganizationID:       testOrg,
		Timezone:             "Asia/Jakarta",
		WorkStartTime:        schedule.MustParseClock("09:00"),
		WorkEndTime:          schedule.MustParseClock("18:00"),
		GraceMinutes:         15,
		LateThresholdMinutes: 60,
		HalfDayCutoffTime:    schedule.MustParseClock("13:00"),
		WorkingDays:          []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday},
		WeekdayOffRules:      rules,
		EnableGPSValidation:  true,
	}
	_, err = repo.Upsert(ctx, cfg)
	require.NoError(t, err)

	got, err := repo.GetByOrganization(ctx, testOrg)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", got.Timezone)
	assert.Equal(t, schedule.MustParseClock("13:00"), got.HalfDayCutoffTime)
	assert.Len(t, got.WorkingDays, 6)
	assert.True(t, got.WeekdayOffRules.Contains(time.Saturday, 2))
	assert.True(t, got.EnableGPSValidation)

	cfg.GraceMinutes = 5
	_, err = repo.Upsert(ctx, cfg)
	require.NoError(t, err)
	got, err = repo.GetByOrganization(ctx, testOrg)
	require.NoError(t, err)
	assert.Equal(t, 5, got.GraceMinutes)
}

func TestScheduleConfigRepository_GetBranchTiming(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewScheduleConfigRepository(db)
	ctx := context.Background()

	var branchID string
	err := db.QueryRow(ctx, `
		INSERT INTO branches (organization_id, name, work_start_time, grace_minutes)
		VALUES ($1, 'Surabaya', 480, 10)
		RETURNING id
	`, testOrg).Scan(&branchID)
	require.NoError(t, err)

	b, err := repo.GetBranchTiming(ctx, branchID, testOrg)
	require.NoError(t, err)
	assert.True(t, b.IsActive)
	require.NotNil(t, b.WorkStartTime)
	assert.Equal(t, schedule.MustParseClock("08:00"), *b.WorkStartTime)
	assert.Nil(t, b.WorkEndTime)
	require.NotNil(t, b.GraceMinutes)
	assert.Equal(t, 10, *b.GraceMinutes)

	_, err = repo.GetBranchTiming(ctx, "00000000-0000-0000-0000-000000000999", testOrg)
	assert.ErrorIs(t, err, schedule.ErrBranchNotFound)
}

func TestHolidayRepository_CreateManySkipsExistingDates(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewHolidayRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, schedule.Holiday{
		OrganizationID: testOrg,
		Date:           dateutil.Date(2024, time.January, 1),
		Name:           "New Year",
		Source:         "manual",
	})
	require.NoError(t, err)

	_, err = repo.Create(ctx, schedule.Holiday{
		OrganizationID: testOrg,
		Date:           dateutil.Date(2024, time.January, 1),
		Name:           "Duplicate",
		Source:         "manual",
	})
	assert.ErrorIs(t, err, schedule.ErrHolidayAlreadyExists)

	inserted, err := repo.CreateMany(ctx, []schedule.Holiday{
		{OrganizationID: testOrg, Date: dateutil.Date(2024, time.January, 1), Name: "New Year", Source: "ics"},
		{OrganizationID: testOrg, Date: dateutil.Date(2024, time.February, 10), Name: "Lunar New Year", Source: "ics"},
		{OrganizationID: testOrg, Date: dateutil.Date(2024, time.March, 11), Name: "Nyepi", IsOptional: true, Source: "ics"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)

	holidays, err := repo.ListByRange(ctx, testOrg, dateutil.Date(2024, time.January, 1), dateutil.Date(2024, time.February, 29))
	require.NoError(t, err)
	require.Len(t, holidays, 2)
	assert.Equal(t, dateutil.Date(2024, time.February, 10), holidays[1].Date)
}

func TestHolidayRepository_AcceptOptional(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewHolidayRepository(db)
	ctx := context.Background()
	emp := seedEmployee(t, db, "E001", nil)

	h, err := repo.Create(ctx, schedule.Holiday{
		OrganizationID: testOrg,
		Date:           dateutil.Date(2024, time.March, 11),
		Name:           "Nyepi",
		IsOptional:     true,
		Source:         "manual",
	})
	require.NoError(t, err)

	require.NoError(t, repo.AcceptOptional(ctx, h.ID, emp))
	require.NoError(t, repo.AcceptOptional(ctx, h.ID, emp))

	ids, err := repo.ListAcceptedOptional(ctx, emp, dateutil.Date(2024, time.March, 1), dateutil.Date(2024, time.March, 31))
	require.NoError(t, err)
	assert.Equal(t, []string{h.ID}, ids)

	require.NoError(t, repo.Delete(ctx, h.ID, testOrg))
	assert.ErrorIs(t, repo.Delete(ctx, h.ID, testOrg), schedule.ErrHolidayNotFound)
}
