package report

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/report"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
	"golang.org/x/sync/errgroup"
)

type ReportServiceImpl struct {
	employeeRepo employee.EmployeeRepository
	recorder     attendance.DayRecorder
	workers      int
	now          func() time.Time
}

func NewReportService(employeeRepo employee.EmployeeRepository, recorder attendance.DayRecorder, workers int) *ReportServiceImpl {
	if workers < 1 {
		workers = 1
	}
	return &ReportServiceImpl{
		employeeRepo: employeeRepo,
		recorder:     recorder,
		workers:      workers,
		now:          time.Now,
	}
}

// GenerateMonthlyAttendanceReport implements report.ReportService.
func (s *ReportServiceImpl) GenerateMonthlyAttendanceReport(ctx context.Context, req report.MonthlyAttendanceReportRequest) (report.MonthlyAttendanceReport, error) {
	if err := req.Validate(); err != nil {
		return report.MonthlyAttendanceReport{}, err
	}

	periodStart, periodEnd := dateutil.MonthBounds(req.Year, time.Month(req.Month))
	reports, err := s.collect(ctx, req.OrganizationID, req.EmployeeID, periodStart, periodEnd)
	if err != nil {
		return report.MonthlyAttendanceReport{}, err
	}

	employees := make([]report.MonthlyAttendanceEmployee, 0, len(reports))
	for _, er := range reports {
		employees = append(employees, report.NewMonthlyAttendanceEmployee(er))
	}

	return report.MonthlyAttendanceReport{
		PeriodMonth: req.Month,
		PeriodYear:  req.Year,
		PeriodStart: dateutil.Format(periodStart),
		PeriodEnd:   dateutil.Format(periodEnd),
		GeneratedAt: s.now().Format(time.RFC3339),
		Employees:   employees,
	}, nil
}

// ExportMonthlyAttendanceReport implements report.ReportService.
func (s *ReportServiceImpl) ExportMonthlyAttendanceReport(ctx context.Context, req report.ExportAttendanceReportRequest) (report.ExportFile, error) {
	if err := req.Validate(); err != nil {
		return report.ExportFile{}, err
	}

	periodStart, periodEnd := dateutil.MonthBounds(req.Year, time.Month(req.Month))
	reports, err := s.collect(ctx, req.OrganizationID, "", periodStart, periodEnd)
	if err != nil {
		return report.ExportFile{}, err
	}

	grid := BuildExportGrid(reports)
	title := fmt.Sprintf("Attendance Report %s", periodStart.Format("January 2006"))
	base := fmt.Sprintf("attendance-%04d-%02d", req.Year, req.Month)

	switch report.ExportFormat(req.Format) {
	case report.FormatPDF:
		content, err := RenderPDF(title, grid)
		if err != nil {
			return report.ExportFile{}, err
		}
		return report.ExportFile{Filename: base + ".pdf", ContentType: "application/pdf", Content: content}, nil
	default:
		content, err := RenderXLSX(title, grid)
		if err != nil {
			return report.ExportFile{}, err
		}
		return report.ExportFile{
			Filename:    base + ".xlsx",
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Content:     content,
		}, nil
	}
}

// collect classifies the period for each employee in parallel, keeping the
// repository's employee order
func (s *ReportServiceImpl) collect(ctx context.Context, organizationID, employeeID string, from, to time.Time) ([]report.EmployeeReport, error) {
	var employees []employee.Employee
	if employeeID != "" {
		emp, err := s.employeeRepo.GetByID(ctx, employeeID, organizationID)
		if err != nil {
			return nil, err
		}
		employees = []employee.Employee{emp}
	} else {
		list, err := s.employeeRepo.ListActive(ctx, organizationID)
		if err != nil {
			return nil, fmt.Errorf("failed to list employees: %w", err)
		}
		employees = list
	}
	if len(employees) == 0 {
		return nil, report.ErrNoEmployees
	}

	reports := make([]report.EmployeeReport, len(employees))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, emp := range employees {
		i, emp := i, emp
		g.Go(func() error {
			days, err := s.recorder.ClassifyRange(gctx, organizationID, emp.ID, from, to)
			if err != nil {
				return fmt.Errorf("failed to classify attendance for employee %s: %w", emp.ID, err)
			}
			reports[i] = report.EmployeeReport{
				Employee: emp,
				Report:   Aggregate(emp.ID, from, to, days),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}
