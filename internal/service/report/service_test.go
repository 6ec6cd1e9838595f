package report

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/report"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeEmployeeRepo struct {
	employee.EmployeeRepository
	employees []employee.Employee
}

func (f fakeEmployeeRepo) GetByID(_ context.Context, id, _ string) (employee.Employee, error) {
	for _, e := range f.employees {
		if e.ID == id {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (f fakeEmployeeRepo) ListActive(context.Context, string) ([]employee.Employee, error) {
	return f.employees, nil
}

// fakeRecorder marks every weekday present and every Sunday a holiday
type fakeRecorder struct {
	mu     sync.Mutex
	calls  int
	failOn string
}

func (f *fakeRecorder) ClassifyRange(_ context.Context, _, employeeID string, from, to time.Time) ([]attendance.DayRecord, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if employeeID == f.failOn {
		return nil, errors.New("boom")
	}
	var days []attendance.DayRecord
	for _, d := range dateutil.Range(from, to) {
		rec := attendance.DayRecord{EmployeeID: employeeID, Date: d, Status: attendance.StatusPresent, WorkingHours: 8}
		if d.Weekday() == time.Sunday {
			rec.Status, rec.IsSunday, rec.WorkingHours = attendance.StatusHoliday, true, 0
		}
		days = append(days, rec)
	}
	return days, nil
}

func (f *fakeRecorder) RecomputeRange(ctx context.Context, organizationID, employeeID string, from, to time.Time) ([]attendance.DayRecord, error) {
	return f.ClassifyRange(ctx, organizationID, employeeID, from, to)
}

func newReportFixture(employees ...employee.Employee) (*ReportServiceImpl, *fakeRecorder) {
	rec := &fakeRecorder{}
	svc := NewReportService(fakeEmployeeRepo{employees: employees}, rec, 4)
	svc.now = func() time.Time { return time.Date(2024, time.July, 1, 8, 0, 0, 0, time.UTC) }
	return svc, rec
}

var staff = []employee.Employee{
	{ID: "emp-1", EmployeeCode: "E001", FullName: "Ayu", IsActive: true},
	{ID: "emp-2", EmployeeCode: "E002", FullName: "Budi", IsActive: true},
	{ID: "emp-3", EmployeeCode: "E003", FullName: "Citra", IsActive: true},
}

func TestGenerateMonthlyAttendanceReport(t *testing.T) {
	svc, rec := newReportFixture(staff...)

	resp, err := svc.GenerateMonthlyAttendanceReport(context.Background(), report.MonthlyAttendanceReportRequest{
		OrganizationID: "org-1",
		Month:          6,
		Year:           2024,
	})
	require.NoError(t, err)

	assert.Equal(t, "2024-06-01", resp.PeriodStart)
	assert.Equal(t, "2024-06-30", resp.PeriodEnd)
	assert.Equal(t, 3, rec.calls)
	require.Len(t, resp.Employees, 3)

	// order follows the repository, not goroutine completion
	for i, e := range resp.Employees {
		assert.Equal(t, staff[i].ID, e.EmployeeID)
		assert.Len(t, e.DailyLogs, 30)
		// June 2024 has five Sundays
		assert.Equal(t, 25, e.Summary.TotalWorkingDays)
		assert.Equal(t, 5, e.Summary.HolidayDays)
		assert.Equal(t, 100, e.Summary.AttendancePercentage)
		assert.Equal(t, 200.0, e.Summary.TotalWorkingHours)
	}
}

func TestGenerateMonthlyAttendanceReport_SingleEmployee(t *testing.T) {
	svc, _ := newReportFixture(staff...)

	resp, err := svc.GenerateMonthlyAttendanceReport(context.Background(), report.MonthlyAttendanceReportRequest{
		OrganizationID: "org-1",
		Month:          6,
		Year:           2024,
		EmployeeID:     "emp-2",
	})
	require.NoError(t, err)
	require.Len(t, resp.Employees, 1)
	assert.Equal(t, "Budi", resp.Employees[0].EmployeeName)
}

func TestGenerateMonthlyAttendanceReport_Errors(t *testing.T) {
	svc, _ := newReportFixture()
	_, err := svc.GenerateMonthlyAttendanceReport(context.Background(), report.MonthlyAttendanceReportRequest{
		OrganizationID: "org-1", Month: 6, Year: 2024,
	})
	assert.ErrorIs(t, err, report.ErrNoEmployees)

	svc, rec := newReportFixture(staff...)
	rec.failOn = "emp-2"
	_, err = svc.GenerateMonthlyAttendanceReport(context.Background(), report.MonthlyAttendanceReportRequest{
		OrganizationID: "org-1", Month: 6, Year: 2024,
	})
	assert.ErrorContains(t, err, "emp-2")

	_, err = svc.GenerateMonthlyAttendanceReport(context.Background(), report.MonthlyAttendanceReportRequest{
		OrganizationID: "org-1", Month: 13, Year: 2024,
	})
	assert.Error(t, err)
}

func TestExportMonthlyAttendanceReport_XLSX(t *testing.T) {
	svc, _ := newReportFixture(staff...)

	file, err := svc.ExportMonthlyAttendanceReport(context.Background(), report.ExportAttendanceReportRequest{
		OrganizationID: "org-1",
		Month:          6,
		Year:           2024,
	})
	require.NoError(t, err)
	assert.Equal(t, "attendance-2024-06.xlsx", file.Filename)

	wb, err := excelize.OpenReader(bytes.NewReader(file.Content))
	require.NoError(t, err)
	defer wb.Close()

	rows, err := wb.GetRows(sheetName)
	require.NoError(t, err)
	// title, header, one row per employee
	require.Len(t, rows, 5)
	assert.Equal(t, "Employee Code", rows[1][0])
	assert.Equal(t, "E001", rows[2][0])
	assert.Equal(t, "100%", rows[2][len(rows[2])-1])
}

func TestExportMonthlyAttendanceReport_PDF(t *testing.T) {
	svc, _ := newReportFixture(staff...)

	file, err := svc.ExportMonthlyAttendanceReport(context.Background(), report.ExportAttendanceReportRequest{
		OrganizationID: "org-1",
		Month:          6,
		Year:           2024,
		Format:         "PDF",
	})
	require.NoError(t, err)

	assert.Equal(t, "attendance-2024-06.pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Content, []byte("%PDF-")))
}
