package schedule

import (
	"context"
	"time"
)

// Resolver yields the effective schedule of an employee per date
type Resolver interface {
	Resolve(ctx context.Context, organizationID, employeeID string, date time.Time) (ResolvedDay, error)
	// ResolveRange loads config and holidays once; dates are inclusive
	ResolveRange(ctx context.Context, organizationID, employeeID string, from, to time.Time) ([]ResolvedDay, error)
}

type ScheduleService interface {
	Resolver

	GetConfig(ctx context.Context, organizationID string) (ScheduleConfigResponse, error)
	UpsertConfig(ctx context.Context, req UpsertScheduleConfigRequest) (ScheduleConfigResponse, error)
	ResolveDay(ctx context.Context, req ResolveDayRequest) (ResolvedDayResponse, error)

	ListHolidays(ctx context.Context, filter HolidayFilter) ([]HolidayResponse, error)
	CreateHoliday(ctx context.Context, req CreateHolidayRequest) (HolidayResponse, error)
	ImportHolidays(ctx context.Context, req ImportHolidaysRequest) (ImportHolidaysResponse, error)
	DeleteHoliday(ctx context.Context, organizationID, id string) error
	AcceptOptionalHoliday(ctx context.Context, organizationID, employeeID, holidayID string) error
}
