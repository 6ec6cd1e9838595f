package attendance

import (
	"context"
	"time"
)

type PunchRepository interface {
	Append(ctx context.Context, punch PunchEvent) (PunchEvent, error)
	AppendMany(ctx context.Context, punches []PunchEvent) error
	// ListByEmployee returns punches with from <= timestamp < to, ordered by timestamp
	ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]PunchEvent, error)
}

type DayRecordRepository interface {
	// UpsertMany replaces the stored snapshot for each (employee, date)
	UpsertMany(ctx context.Context, records []DayRecord) error
}

type TimeslipRepository interface {
	Create(ctx context.Context, timeslip Timeslip) (Timeslip, error)
	GetByID(ctx context.Context, id string, organizationID string) (Timeslip, error)
	// Update only touches pending timeslips and returns ErrTimeslipNotPending otherwise
	Update(ctx context.Context, timeslip Timeslip) (Timeslip, error)
	Delete(ctx context.Context, id string, organizationID string) error
	SetWorkflowRequest(ctx context.Context, id string, requestID string) error
	SetStatus(ctx context.Context, id string, status TimeslipStatus) error
	ListPendingByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]Timeslip, error)
}
