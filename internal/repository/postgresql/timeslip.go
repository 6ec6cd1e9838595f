package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type timeslipRepository struct {
	db *database.DB
}

func NewTimeslipRepository(db *database.DB) attendance.TimeslipRepository {
	return &timeslipRepository{db: db}
}

const timeslipColumns = `id, organization_id, employee_id, slip_date, missing_type, corrected_in, corrected_out,
	reason, status, workflow_request_id, created_at, updated_at`

func scanTimeslip(row pgx.Row) (attendance.Timeslip, error) {
	var (
		t           attendance.Timeslip
		missingType string
		status      string
	)
	err := row.Scan(
		&t.ID, &t.OrganizationID, &t.EmployeeID, &t.Date, &missingType, &t.CorrectedIn, &t.CorrectedOut,
		&t.Reason, &status, &t.WorkflowRequestID, &t.CreatedAt, &t.UpdatedAt,
	)
	t.MissingType = attendance.MissingType(missingType)
	t.Status = attendance.TimeslipStatus(status)
	return t, err
}

// Create implements attendance.TimeslipRepository.
func (r *timeslipRepository) Create(ctx context.Context, t attendance.Timeslip) (attendance.Timeslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO timeslips (id, organization_id, employee_id, slip_date, missing_type, corrected_in, corrected_out,
			reason, status, created_at, updated_at)
		VALUES (COALESCE(NULLIF($1::text, '')::uuid, gen_random_uuid()), $2, $3, $4::date, $5, $6, $7, $8, 'PENDING', NOW(), NOW())
		RETURNING ` + timeslipColumns

	created, err := scanTimeslip(q.QueryRow(ctx, query,
		t.ID, t.OrganizationID, t.EmployeeID, t.Date, string(t.MissingType), t.CorrectedIn, t.CorrectedOut, t.Reason,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.Timeslip{}, attendance.ErrTimeslipAlreadyExists
		}
		return attendance.Timeslip{}, fmt.Errorf("failed to create timeslip: %w", err)
	}
	return created, nil
}

// GetByID implements attendance.TimeslipRepository.
func (r *timeslipRepository) GetByID(ctx context.Context, id string, organizationID string) (attendance.Timeslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + timeslipColumns + ` FROM timeslips WHERE id = $1 AND organization_id = $2`

	t, err := scanTimeslip(q.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if isNoRows(err) {
			return attendance.Timeslip{}, attendance.ErrTimeslipNotFound
		}
		return attendance.Timeslip{}, fmt.Errorf("failed to get timeslip: %w", err)
	}
	return t, nil
}

// Update implements attendance.TimeslipRepository.
func (r *timeslipRepository) Update(ctx context.Context, t attendance.Timeslip) (attendance.Timeslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE timeslips
		SET slip_date = $3::date, missing_type = $4, corrected_in = $5, corrected_out = $6, reason = $7, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2 AND status = 'PENDING'
		RETURNING ` + timeslipColumns

	updated, err := scanTimeslip(q.QueryRow(ctx, query,
		t.ID, t.OrganizationID, t.Date, string(t.MissingType), t.CorrectedIn, t.CorrectedOut, t.Reason,
	))
	if err != nil {
		if isNoRows(err) {
			return attendance.Timeslip{}, attendance.ErrTimeslipNotPending
		}
		if isUniqueViolation(err) {
			return attendance.Timeslip{}, attendance.ErrTimeslipAlreadyExists
		}
		return attendance.Timeslip{}, fmt.Errorf("failed to update timeslip: %w", err)
	}
	return updated, nil
}

// Delete implements attendance.TimeslipRepository.
func (r *timeslipRepository) Delete(ctx context.Context, id string, organizationID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM timeslips WHERE id = $1 AND organization_id = $2`, id, organizationID)
	if err != nil {
		return fmt.Errorf("failed to delete timeslip: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrTimeslipNotFound
	}
	return nil
}

// SetWorkflowRequest implements attendance.TimeslipRepository.
func (r *timeslipRepository) SetWorkflowRequest(ctx context.Context, id string, requestID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE timeslips SET workflow_request_id = $2, updated_at = NOW() WHERE id = $1`, id, requestID)
	if err != nil {
		return fmt.Errorf("failed to link timeslip to workflow request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrTimeslipNotFound
	}
	return nil
}

// SetStatus implements attendance.TimeslipRepository.
func (r *timeslipRepository) SetStatus(ctx context.Context, id string, status attendance.TimeslipStatus) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE timeslips SET status = $2, updated_at = NOW() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update timeslip status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrTimeslipNotFound
	}
	return nil
}

// ListPendingByEmployee implements attendance.TimeslipRepository.
func (r *timeslipRepository) ListPendingByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Timeslip, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + timeslipColumns + `
		FROM timeslips
		WHERE employee_id = $1 AND status = 'PENDING' AND slip_date BETWEEN $2::date AND $3::date
		ORDER BY slip_date ASC
	`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending timeslips: %w", err)
	}
	defer rows.Close()

	var timeslips []attendance.Timeslip
	for rows.Next() {
		t, err := scanTimeslip(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timeslip: %w", err)
		}
		timeslips = append(timeslips, t)
	}

	return timeslips, rows.Err()
}
