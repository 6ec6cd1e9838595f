package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
)

// GetBranchTiming implements schedule.ConfigRepository.
func (r *scheduleConfigRepositoryImpl) GetBranchTiming(ctx context.Context, branchID string, organizationID string) (schedule.BranchTiming, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, organization_id, name, is_active, timezone, work_start_time, work_end_time,
			grace_minutes, late_threshold_minutes, half_day_cutoff_time,
			office_latitude, office_longitude, allowed_radius_meters
		FROM branches
		WHERE id = $1 AND organization_id = $2
	`

	var (
		b                           schedule.BranchTiming
		workStart, workEnd, halfDay *int
	)
	err := q.QueryRow(ctx, query, branchID, organizationID).Scan(
		&b.BranchID,
		&b.OrganizationID,
		&b.Name,
		&b.IsActive,
		&b.Timezone,
		&workStart,
		&workEnd,
		&b.GraceMinutes,
		&b.LateThresholdMinutes,
		&halfDay,
		&b.OfficeLatitude,
		&b.OfficeLongitude,
		&b.AllowedRadiusMeters,
	)
	if err != nil {
		if isNoRows(err) {
			return schedule.BranchTiming{}, schedule.ErrBranchNotFound
		}
		return schedule.BranchTiming{}, fmt.Errorf("failed to get branch %s: %w", branchID, err)
	}

	b.WorkStartTime = clockPtr(workStart)
	b.WorkEndTime = clockPtr(workEnd)
	b.HalfDayCutoffTime = clockPtr(halfDay)

	return b, nil
}

func clockPtr(minutes *int) *schedule.ClockTime {
	if minutes == nil {
		return nil
	}
	c := schedule.ClockTime(*minutes)
	return &c
}
