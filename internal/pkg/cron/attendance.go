package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/dateutil"
)

// DayRecomputer persists the classification of one date for an organization
type DayRecomputer interface {
	RecomputeOrganizationDay(ctx context.Context, organizationID string, date time.Time) (int, error)
}

// OrganizationLister yields the organizations that still have active employees
type OrganizationLister interface {
	ListActiveOrganizationIDs(ctx context.Context) ([]string, error)
}

type AttendanceJobs struct {
	recomputer DayRecomputer
	orgs       OrganizationLister
	interval   time.Duration
	now        func() time.Time
}

func NewAttendanceJobs(recomputer DayRecomputer, orgs OrganizationLister, interval time.Duration) *AttendanceJobs {
	return &AttendanceJobs{
		recomputer: recomputer,
		orgs:       orgs,
		interval:   interval,
		now:        time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("recompute_previous_day", j.interval, j.RecomputePreviousDay)
}

// RecomputePreviousDay classifies yesterday (UTC) for every active employee.
// Days without punches become ABSENT here, so the job also replaces the old
// mark-absent sweep.
func (j *AttendanceJobs) RecomputePreviousDay(ctx context.Context) error {
	date := dateutil.DateOf(j.now().UTC()).AddDate(0, 0, -1)

	slog.Info("Cron: Starting recompute previous day job", "date", dateutil.Format(date))

	orgIDs, err := j.orgs.ListActiveOrganizationIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list organizations: %w", err)
	}

	total, failed := 0, 0
	for _, orgID := range orgIDs {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		count, err := j.recomputer.RecomputeOrganizationDay(ctx, orgID, date)
		total += count
		if err != nil {
			failed++
			slog.Error("Cron: Failed to recompute organization day",
				"organization_id", orgID,
				"date", dateutil.Format(date),
				"error", err)
			continue
		}
	}

	slog.Info("Cron: Recomputed previous day", "date", dateutil.Format(date), "employees", total, "failed_organizations", failed)
	if failed > 0 {
		return fmt.Errorf("recompute failed for %d of %d organizations", failed, len(orgIDs))
	}
	return nil
}
