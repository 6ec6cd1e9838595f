package leave

import (
	"context"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
)

// countWorkingDays counts the days in [start, end] that the employee's
// schedule treats as working, so weekly offs, off rules and holidays are excluded
func countWorkingDays(ctx context.Context, resolver schedule.Resolver, organizationID, employeeID string, start, end time.Time) (int, error) {
	days, err := resolver.ResolveRange(ctx, organizationID, employeeID, start, end)
	if err != nil {
		return 0, err
	}

	var n int
	for _, d := range days {
		if !d.NonWorking {
			n++
		}
	}
	return n, nil
}
