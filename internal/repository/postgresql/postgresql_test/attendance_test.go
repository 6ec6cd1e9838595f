package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"github.com/cmlabs-hris/attendance-engine/internal/repository/postgresql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmployeeRepository(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewEmployeeRepository(db)
	ctx := context.Background()

	dept := "Engineering"
	id := seedEmployee(t, db, "E001", &dept)

	emp, err := repo.GetByID(ctx, id, testOrg)
	require.NoError(t, err)
	assert.Equal(t, "Engineering", emp.DepartmentName())
	assert.True(t, emp.IsActive)

	_, err = repo.GetByID(ctx, id, "00000000-0000-0000-0000-0000000000bb")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)

	orgs, err := repo.ListActiveOrganizationIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{testOrg}, orgs)
}

func TestPunchRepository_ListByEmployeeIsHalfOpen(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewPunchRepository(db)
	ctx := context.Background()
	emp := seedEmployee(t, db, "E001", nil)

	day := time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.AppendMany(ctx, []attendance.PunchEvent{
		{OrganizationID: testOrg, EmployeeID: emp, Type: attendance.PunchCheckIn, Timestamp: day.Add(9 * time.Hour), Source: attendance.SourceDevice},
		{OrganizationID: testOrg, EmployeeID: emp, Type: attendance.PunchCheckOut, Timestamp: day.Add(18 * time.Hour), Source: attendance.SourceDevice},
		{OrganizationID: testOrg, EmployeeID: emp, Type: attendance.PunchCheckIn, Timestamp: day.Add(24 * time.Hour), Source: attendance.SourceDevice},
	}))

	punches, err := repo.ListByEmployee(ctx, emp, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, punches, 2)
	assert.Equal(t, attendance.PunchCheckIn, punches[0].Type)
	assert.Equal(t, attendance.PunchCheckOut, punches[1].Type)
}

func TestDayRecordRepository_UpsertReplacesSnapshot(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewDayRecordRepository(db)
	ctx := context.Background()
	emp := seedEmployee(t, db, "E001", nil)

	rec := attendance.DayRecord{
		OrganizationID: testOrg,
		EmployeeID:     emp,
		Date:           dateutil.Date(2024, time.June, 3),
		Status:         attendance.StatusPending,
	}
	require.NoError(t, repo.UpsertMany(ctx, []attendance.DayRecord{rec}))

	rec.Status = attendance.StatusPresent
	rec.WorkingHours = 8.5
	require.NoError(t, repo.UpsertMany(ctx, []attendance.DayRecord{rec}))

	var (
		status string
		count  int
	)
	err := db.QueryRow(ctx, `SELECT status, COUNT(*) OVER () FROM day_records WHERE employee_id = $1`, emp).Scan(&status, &count)
	require.NoError(t, err)
	assert.Equal(t, "present", status)
	assert.Equal(t, 1, count)
}

func TestTimeslipRepository_OnePendingPerDay(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewTimeslipRepository(db)
	ctx := context.Background()
	emp := seedEmployee(t, db, "E001", nil)

	in := time.Date(2024, time.June, 3, 2, 0, 0, 0, time.UTC)
	slip := attendance.Timeslip{
		OrganizationID: testOrg,
		EmployeeID:     emp,
		Date:           dateutil.Date(2024, time.June, 3),
		MissingType:    attendance.MissingIn,
		CorrectedIn:    &in,
		Reason:         "badge reader offline",
	}
	created, err := repo.Create(ctx, slip)
	require.NoError(t, err)
	assert.Equal(t, attendance.TimeslipPending, created.Status)

	_, err = repo.Create(ctx, slip)
	assert.ErrorIs(t, err, attendance.ErrTimeslipAlreadyExists)

	require.NoError(t, repo.SetStatus(ctx, created.ID, attendance.TimeslipApproved))
	_, err = repo.Update(ctx, created)
	assert.ErrorIs(t, err, attendance.ErrTimeslipNotPending)

	_, err = repo.Create(ctx, slip)
	assert.NoError(t, err)

	pending, err := repo.ListPendingByEmployee(ctx, emp, dateutil.Date(2024, time.June, 1), dateutil.Date(2024, time.June, 30))
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestLeaveRequestRepository_Overlap(t *testing.T) {
	db := newTestDB(t)
	repo := postgresql.NewLeaveRequestRepository(db)
	ctx := context.Background()
	emp := seedEmployee(t, db, "E001", nil)

	created, err := repo.Create(ctx, leave.LeaveRequest{
		OrganizationID: testOrg,
		EmployeeID:     emp,
		StartDate:      dateutil.Date(2024, time.June, 3),
		EndDate:        dateutil.Date(2024, time.June, 5),
		WorkingDays:    3,
		Reason:         "family",
	})
	require.NoError(t, err)

	overlap, err := repo.HasOverlap(ctx, emp, dateutil.Date(2024, time.June, 5), dateutil.Date(2024, time.June, 7), "")
	require.NoError(t, err)
	assert.True(t, overlap)

	overlap, err = repo.HasOverlap(ctx, emp, dateutil.Date(2024, time.June, 5), dateutil.Date(2024, time.June, 7), created.ID)
	require.NoError(t, err)
	assert.False(t, overlap)

	approved, err := repo.ListApprovedByEmployee(ctx, emp, dateutil.Date(2024, time.June, 1), dateutil.Date(2024, time.June, 30))
	require.NoError(t, err)
	assert.Empty(t, approved)

	require.NoError(t, repo.SetStatus(ctx, created.ID, leave.LeaveRequestStatusApproved, time.Now()))
	approved, err = repo.ListApprovedByEmployee(ctx, emp, dateutil.Date(2024, time.June, 1), dateutil.Date(2024, time.June, 30))
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.True(t, approved[0].Covers(dateutil.Date(2024, time.June, 4)))
}
