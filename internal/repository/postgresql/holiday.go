package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/schedule"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type holidayRepositoryImpl struct {
	db *database.DB
}

func NewHolidayRepository(db *database.DB) schedule.HolidayRepository {
	return &holidayRepositoryImpl{db: db}
}

const holidayColumns = `id, organization_id, holiday_date, name, is_optional, source, created_at`

func scanHoliday(row pgx.Row) (schedule.Holiday, error) {
	var h schedule.Holiday
	err := row.Scan(&h.ID, &h.OrganizationID, &h.Date, &h.Name, &h.IsOptional, &h.Source, &h.CreatedAt)
	return h, err
}

// ListByRange implements schedule.HolidayRepository.
func (r *holidayRepositoryImpl) ListByRange(ctx context.Context, organizationID string, from, to time.Time) ([]schedule.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + holidayColumns + `
		FROM holidays
		WHERE organization_id = $1 AND holiday_date BETWEEN $2::date AND $3::date
		ORDER BY holiday_date ASC
	`

	rows, err := q.Query(ctx, query, organizationID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	holidays := []schedule.Holiday{}
	for rows.Next() {
		h, err := scanHoliday(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays = append(holidays, h)
	}

	return holidays, rows.Err()
}

// GetByID implements schedule.HolidayRepository.
func (r *holidayRepositoryImpl) GetByID(ctx context.Context, id string, organizationID string) (schedule.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + holidayColumns + ` FROM holidays WHERE id = $1 AND organization_id = $2`

	h, err := scanHoliday(q.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if isNoRows(err) {
			return schedule.Holiday{}, schedule.ErrHolidayNotFound
		}
		return schedule.Holiday{}, fmt.Errorf("failed to get holiday: %w", err)
	}
	return h, nil
}

// Create implements schedule.HolidayRepository.
func (r *holidayRepositoryImpl) Create(ctx context.Context, holiday schedule.Holiday) (schedule.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO holidays (id, organization_id, holiday_date, name, is_optional, source, created_at)
		VALUES (COALESCE(NULLIF($1::text, '')::uuid, gen_random_uuid()), $2, $3::date, $4, $5, $6, NOW())
		RETURNING ` + holidayColumns

	created, err := scanHoliday(q.QueryRow(ctx, query,
		holiday.ID,
		holiday.OrganizationID,
		holiday.Date,
		holiday.Name,
		holiday.IsOptional,
		holiday.Source,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return schedule.Holiday{}, schedule.ErrHolidayAlreadyExists
		}
		return schedule.Holiday{}, fmt.Errorf("failed to create holiday: %w", err)
	}
	return created, nil
}

// CreateMany implements schedule.HolidayRepository.
func (r *holidayRepositoryImpl) CreateMany(ctx context.Context, holidays []schedule.Holiday) (int, error) {
	if len(holidays) == 0 {
		return 0, nil
	}
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO holidays (organization_id, holiday_date, name, is_optional, source, created_at)
		VALUES ($1, $2::date, $3, $4, $5, NOW())
		ON CONFLICT (organization_id, holiday_date) DO NOTHING
	`

	batch := &pgx.Batch{}
	for _, h := range holidays {
		batch.Queue(query, h.OrganizationID, h.Date, h.Name, h.IsOptional, h.Source)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	inserted := 0
	for range holidays {
		tag, err := results.Exec()
		if err != nil {
			return inserted, fmt.Errorf("failed to import holiday: %w", err)
		}
		inserted += int(tag.RowsAffected())
	}

	return inserted, nil
}

// Delete implements schedule.HolidayRepository.
func (r *holidayRepositoryImpl) Delete(ctx context.Context, id string, organizationID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM holidays WHERE id = $1 AND organization_id = $2`, id, organizationID)
	if err != nil {
		return fmt.Errorf("failed to delete holiday: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return schedule.ErrHolidayNotFound
	}
	return nil
}

// AcceptOptional implements schedule.HolidayRepository.
func (r *holidayRepositoryImpl) AcceptOptional(ctx context.Context, holidayID string, employeeID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO optional_holiday_acceptances (holiday_id, employee_id, accepted_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (holiday_id, employee_id) DO NOTHING
	`

	if _, err := q.Exec(ctx, query, holidayID, employeeID); err != nil {
		return fmt.Errorf("failed to accept optional holiday: %w", err)
	}
	return nil
}

// ListAcceptedOptional implements schedule.HolidayRepository.
func (r *holidayRepositoryImpl) ListAcceptedOptional(ctx context.Context, employeeID string, from, to time.Time) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT h.id
		FROM optional_holiday_acceptances a
		INNER JOIN holidays h ON h.id = a.holiday_id
		WHERE a.employee_id = $1 AND h.is_optional AND h.holiday_date BETWEEN $2::date AND $3::date
	`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list accepted optional holidays: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan holiday id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
