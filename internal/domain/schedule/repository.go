package schedule

import (
	"context"
	"time"
)

// ConfigRepository stores the organization schedule and its branch overrides
type ConfigRepository interface {
	// GetByOrganization returns ErrScheduleNotFound when the organization has no config yet
	GetByOrganization(ctx context.Context, organizationID string) (ScheduleConfig, error)
	Upsert(ctx context.Context, config ScheduleConfig) (ScheduleConfig, error)
	GetBranchTiming(ctx context.Context, branchID string, organizationID string) (BranchTiming, error)
}

type HolidayRepository interface {
	ListByRange(ctx context.Context, organizationID string, from, to time.Time) ([]Holiday, error)
	GetByID(ctx context.Context, id string, organizationID string) (Holiday, error)
	Create(ctx context.Context, holiday Holiday) (Holiday, error)
	// CreateMany skips dates that already carry a holiday and returns how many rows were inserted
	CreateMany(ctx context.Context, holidays []Holiday) (int, error)
	Delete(ctx context.Context, id string, organizationID string) error

	AcceptOptional(ctx context.Context, holidayID string, employeeID string) error
	// ListAcceptedOptional returns the IDs of optional holidays in range the employee accepted
	ListAcceptedOptional(ctx context.Context, employeeID string, from, to time.Time) ([]string, error)
}
