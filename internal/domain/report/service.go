package report

import "context"

type ReportService interface {
	GenerateMonthlyAttendanceReport(ctx context.Context, req MonthlyAttendanceReportRequest) (MonthlyAttendanceReport, error)
	ExportMonthlyAttendanceReport(ctx context.Context, req ExportAttendanceReportRequest) (ExportFile, error)
}
