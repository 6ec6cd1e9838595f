package attendance

import (
	"context"
	"time"
)

// DayRecorder classifies days. ClassifyRange is read-only; RecomputeRange persists.
type DayRecorder interface {
	ClassifyRange(ctx context.Context, organizationID, employeeID string, from, to time.Time) ([]DayRecord, error)
	RecomputeRange(ctx context.Context, organizationID, employeeID string, from, to time.Time) ([]DayRecord, error)
}

type AttendanceService interface {
	DayRecorder

	RecordPunch(ctx context.Context, req RecordPunchRequest) (PunchResponse, error)
	ListDays(ctx context.Context, filter DayRecordFilter) ([]DayRecordResponse, error)
	Recompute(ctx context.Context, req RecomputeRequest) (RecomputeResponse, error)
	// RecomputeOrganizationDay recomputes date for every active employee and returns how many succeeded
	RecomputeOrganizationDay(ctx context.Context, organizationID string, date time.Time) (int, error)
}

type TimeslipService interface {
	Submit(ctx context.Context, req SubmitTimeslipRequest) (TimeslipResponse, error)
	Get(ctx context.Context, organizationID, id string) (TimeslipResponse, error)
	Update(ctx context.Context, req UpdateTimeslipRequest) (TimeslipResponse, error)
	Delete(ctx context.Context, organizationID, employeeID, id string) error
}
