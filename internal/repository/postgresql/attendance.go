package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

// ========================================
// PUNCH EVENTS
// ========================================

type punchRepository struct {
	db *database.DB
}

func NewPunchRepository(db *database.DB) attendance.PunchRepository {
	return &punchRepository{db: db}
}

const insertPunchQuery = `
	INSERT INTO punch_events (id, organization_id, employee_id, punch_type, punched_at, source, timeslip_id, created_at)
	VALUES (COALESCE(NULLIF($1::text, '')::uuid, gen_random_uuid()), $2, $3, $4, $5, $6, $7, NOW())
	RETURNING id, created_at
`

// Append implements attendance.PunchRepository.
func (a *punchRepository) Append(ctx context.Context, punch attendance.PunchEvent) (attendance.PunchEvent, error) {
	q := GetQuerier(ctx, a.db)

	err := q.QueryRow(ctx, insertPunchQuery,
		punch.ID,
		punch.OrganizationID,
		punch.EmployeeID,
		string(punch.Type),
		punch.Timestamp,
		punch.Source,
		punch.TimeslipID,
	).Scan(&punch.ID, &punch.CreatedAt)
	if err != nil {
		return attendance.PunchEvent{}, fmt.Errorf("failed to append punch: %w", err)
	}

	return punch, nil
}

// AppendMany implements attendance.PunchRepository.
func (a *punchRepository) AppendMany(ctx context.Context, punches []attendance.PunchEvent) error {
	if len(punches) == 0 {
		return nil
	}
	q := GetQuerier(ctx, a.db)

	batch := &pgx.Batch{}
	for _, p := range punches {
		batch.Queue(insertPunchQuery, p.ID, p.OrganizationID, p.EmployeeID, string(p.Type), p.Timestamp, p.Source, p.TimeslipID)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	for range punches {
		var id string
		var createdAt time.Time
		if err := results.QueryRow().Scan(&id, &createdAt); err != nil {
			return fmt.Errorf("failed to append punch: %w", err)
		}
	}

	return nil
}

// ListByEmployee implements attendance.PunchRepository.
func (a *punchRepository) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.PunchEvent, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT id, organization_id, employee_id, punch_type, punched_at, source, timeslip_id, created_at
		FROM punch_events
		WHERE employee_id = $1 AND punched_at >= $2 AND punched_at < $3
		ORDER BY punched_at ASC, created_at ASC
	`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list punches: %w", err)
	}
	defer rows.Close()

	var punches []attendance.PunchEvent
	for rows.Next() {
		var p attendance.PunchEvent
		var punchType string
		if err := rows.Scan(&p.ID, &p.OrganizationID, &p.EmployeeID, &punchType, &p.Timestamp, &p.Source, &p.TimeslipID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan punch: %w", err)
		}
		p.Type = attendance.PunchType(punchType)
		punches = append(punches, p)
	}

	return punches, rows.Err()
}

// ========================================
// DAY RECORDS
// ========================================

type dayRecordRepository struct {
	db *database.DB
}

func NewDayRecordRepository(db *database.DB) attendance.DayRecordRepository {
	return &dayRecordRepository{db: db}
}

// UpsertMany implements attendance.DayRecordRepository.
func (a *dayRecordRepository) UpsertMany(ctx context.Context, records []attendance.DayRecord) error {
	if len(records) == 0 {
		return nil
	}
	q := GetQuerier(ctx, a.db)

	query := `
		-- QUERY: UpsertDayRecord
		INSERT INTO day_records (
			organization_id, employee_id, record_date, status, in_time, out_time, working_hours,
			is_holiday, is_sunday, late_clock_in, no_clock_out, early_clock_out,
			late_minutes, exceeded_late_threshold, reason, computed_at
		) VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (employee_id, record_date) DO UPDATE SET
			status = EXCLUDED.status,
			in_time = EXCLUDED.in_time,
			out_time = EXCLUDED.out_time,
			working_hours = EXCLUDED.working_hours,
			is_holiday = EXCLUDED.is_holiday,
			is_sunday = EXCLUDED.is_sunday,
			late_clock_in = EXCLUDED.late_clock_in,
			no_clock_out = EXCLUDED.no_clock_out,
			early_clock_out = EXCLUDED.early_clock_out,
			late_minutes = EXCLUDED.late_minutes,
			exceeded_late_threshold = EXCLUDED.exceeded_late_threshold,
			reason = EXCLUDED.reason,
			computed_at = EXCLUDED.computed_at
	`

	batch := &pgx.Batch{}
	for _, r := range records {
		computedAt := r.ComputedAt
		if computedAt.IsZero() {
			computedAt = time.Now()
		}
		batch.Queue(query,
			r.OrganizationID, r.EmployeeID, r.Date, string(r.Status), r.InTime, r.OutTime, r.WorkingHours,
			r.IsHoliday, r.IsSunday, r.LateClockIn, r.NoClockOut, r.EarlyClockOut,
			r.LateMinutes, r.ExceededLateThreshold, r.Reason, computedAt,
		)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	for _, r := range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to store day record %s for employee %s: %w", r.Date.Format("2006-01-02"), r.EmployeeID, err)
		}
	}

	return nil
}
