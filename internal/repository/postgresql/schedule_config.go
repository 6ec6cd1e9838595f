package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
)

type scheduleConfigRepositoryImpl struct {
	db *database.DB
}

func NewScheduleConfigRepository(db *database.DB) schedule.ConfigRepository {
	return &scheduleConfigRepositoryImpl{db: db}
}

// GetByOrganization implements schedule.ConfigRepository.
func (r *scheduleConfigRepositoryImpl) GetByOrganization(ctx context.Context, organizationID string) (schedule.ScheduleConfig, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		-- QUERY: GetScheduleConfig
		SELECT organization_id, timezone, work_start_time, work_end_time, grace_minutes,
			late_threshold_minutes, half_day_cutoff_time, working_days, weekday_off_rules,
			allowed_radius_meters, office_latitude, office_longitude,
			enable_gps_validation, enable_wifi_validation, enable_face_validation,
			enable_checkin_validation, enable_checkout_validation, updated_at
		FROM schedule_configs
		WHERE organization_id = $1
	`

	var (
		cfg                         schedule.ScheduleConfig
		workStart, workEnd, halfDay int
		workingDays                 []int16
		offRules                    []byte
	)
	err := q.QueryRow(ctx, query, organizationID).Scan(
		&cfg.OrganizationID,
		&cfg.Timezone,
		&workStart,
		&workEnd,
		&cfg.GraceMinutes,
		&cfg.LateThresholdMinutes,
		&halfDay,
		&workingDays,
		&offRules,
		&cfg.AllowedRadiusMeters,
		&cfg.OfficeLatitude,
		&cfg.OfficeLongitude,
		&cfg.EnableGPSValidation,
		&cfg.EnableWifiValidation,
		&cfg.EnableFaceValidation,
		&cfg.EnableCheckinValidation,
		&cfg.EnableCheckoutValidation,
		&cfg.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return schedule.ScheduleConfig{}, schedule.ErrScheduleNotFound
		}
		return schedule.ScheduleConfig{}, fmt.Errorf("failed to get schedule config: %w", err)
	}

	cfg.WorkStartTime = schedule.ClockTime(workStart)
	cfg.WorkEndTime = schedule.ClockTime(workEnd)
	cfg.HalfDayCutoffTime = schedule.ClockTime(halfDay)
	cfg.WorkingDays = make([]time.Weekday, 0, len(workingDays))
	for _, wd := range workingDays {
		cfg.WorkingDays = append(cfg.WorkingDays, time.Weekday(wd))
	}

	cfg.WeekdayOffRules = schedule.WeekdayOffRules{}
	if len(offRules) > 0 {
		if err := json.Unmarshal(offRules, &cfg.WeekdayOffRules); err != nil {
			return schedule.ScheduleConfig{}, fmt.Errorf("failed to decode weekday off rules: %w", err)
		}
	}

	return cfg, nil
}

// Upsert implements schedule.ConfigRepository.
func (r *scheduleConfigRepositoryImpl) Upsert(ctx context.Context, cfg schedule.ScheduleConfig) (schedule.ScheduleConfig, error) {
	q := GetQuerier(ctx, r.db)

	rules := cfg.WeekdayOffRules
	if rules == nil {
		rules = schedule.WeekdayOffRules{}
	}
	offRules, err := json.Marshal(rules)
	if err != nil {
		return schedule.ScheduleConfig{}, fmt.Errorf("failed to encode weekday off rules: %w", err)
	}

	workingDays := make([]int16, 0, len(cfg.WorkingDays))
	for _, wd := range cfg.WorkingDays {
		workingDays = append(workingDays, int16(wd))
	}

	query := `
		-- QUERY: UpsertScheduleConfig
		INSERT INTO schedule_configs (
			organization_id, timezone, work_start_time, work_end_time, grace_minutes,
			late_threshold_minutes, half_day_cutoff_time, working_days, weekday_off_rules,
			allowed_radius_meters, office_latitude, office_longitude,
			enable_gps_validation, enable_wifi_validation, enable_face_validation,
			enable_checkin_validation, enable_checkout_validation, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, NOW())
		ON CONFLICT (organization_id) DO UPDATE SET
			timezone = EXCLUDED.timezone,
			work_start_time = EXCLUDED.work_start_time,
			work_end_time = EXCLUDED.work_end_time,
			grace_minutes = EXCLUDED.grace_minutes,
			late_threshold_minutes = EXCLUDED.late_threshold_minutes,
			half_day_cutoff_time = EXCLUDED.half_day_cutoff_time,
			working_days = EXCLUDED.working_days,
			weekday_off_rules = EXCLUDED.weekday_off_rules,
			allowed_radius_meters = EXCLUDED.allowed_radius_meters,
			office_latitude = EXCLUDED.office_latitude,
			office_longitude = EXCLUDED.office_longitude,
			enable_gps_validation = EXCLUDED.enable_gps_validation,
			enable_wifi_validation = EXCLUDED.enable_wifi_validation,
			enable_face_validation = EXCLUDED.enable_face_validation,
			enable_checkin_validation = EXCLUDED.enable_checkin_validation,
			enable_checkout_validation = EXCLUDED.enable_checkout_validation,
			updated_at = NOW()
		RETURNING updated_at
	`

	err = q.QueryRow(ctx, query,
		cfg.OrganizationID,
		cfg.Timezone,
		int(cfg.WorkStartTime),
		int(cfg.WorkEndTime),
		cfg.GraceMinutes,
		cfg.LateThresholdMinutes,
		int(cfg.HalfDayCutoffTime),
		workingDays,
		offRules,
		cfg.AllowedRadiusMeters,
		cfg.OfficeLatitude,
		cfg.OfficeLongitude,
		cfg.EnableGPSValidation,
		cfg.EnableWifiValidation,
		cfg.EnableFaceValidation,
		cfg.EnableCheckinValidation,
		cfg.EnableCheckoutValidation,
	).Scan(&cfg.UpdatedAt)
	if err != nil {
		return schedule.ScheduleConfig{}, fmt.Errorf("failed to upsert schedule config: %w", err)
	}

	cfg.WeekdayOffRules = rules
	return cfg, nil
}
