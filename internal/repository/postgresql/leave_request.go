package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/leave"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

const leaveRequestColumns = `id, organization_id, employee_id, start_date, end_date, working_days, reason, status,
	workflow_request_id, decided_at, submitted_at, updated_at`

func scanLeaveRequest(row pgx.Row) (leave.LeaveRequest, error) {
	var (
		lr     leave.LeaveRequest
		status string
	)
	err := row.Scan(
		&lr.ID,
		&lr.OrganizationID,
		&lr.EmployeeID,
		&lr.StartDate,
		&lr.EndDate,
		&lr.WorkingDays,
		&lr.Reason,
		&status,
		&lr.WorkflowRequestID,
		&lr.DecidedAt,
		&lr.SubmittedAt,
		&lr.UpdatedAt,
	)
	lr.Status = leave.LeaveRequestStatus(status)
	return lr, err
}

// Create implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Create(ctx context.Context, req leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_requests (id, organization_id, employee_id, start_date, end_date, working_days, reason, status, submitted_at, updated_at)
		VALUES (COALESCE(NULLIF($1::text, '')::uuid, gen_random_uuid()), $2, $3, $4::date, $5::date, $6, $7, 'PENDING', NOW(), NOW())
		RETURNING ` + leaveRequestColumns

	created, err := scanLeaveRequest(q.QueryRow(ctx, query,
		req.ID, req.OrganizationID, req.EmployeeID, req.StartDate, req.EndDate, req.WorkingDays, req.Reason,
	))
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to create leave request: %w", err)
	}
	return created, nil
}

// GetByID implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, id string, organizationID string) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveRequestColumns + ` FROM leave_requests WHERE id = $1 AND organization_id = $2`

	lr, err := scanLeaveRequest(q.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if isNoRows(err) {
			return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
		}
		return leave.LeaveRequest{}, fmt.Errorf("failed to get leave request: %w", err)
	}
	return lr, nil
}

// Update implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Update(ctx context.Context, req leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_requests
		SET start_date = $3::date, end_date = $4::date, working_days = $5, reason = $6, updated_at = NOW()
		WHERE id = $1 AND organization_id = $2 AND status = 'PENDING'
		RETURNING ` + leaveRequestColumns

	updated, err := scanLeaveRequest(q.QueryRow(ctx, query,
		req.ID, req.OrganizationID, req.StartDate, req.EndDate, req.WorkingDays, req.Reason,
	))
	if err != nil {
		if isNoRows(err) {
			return leave.LeaveRequest{}, leave.ErrLeaveRequestNotPending
		}
		return leave.LeaveRequest{}, fmt.Errorf("failed to update leave request: %w", err)
	}
	return updated, nil
}

// Delete implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Delete(ctx context.Context, id string, organizationID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `DELETE FROM leave_requests WHERE id = $1 AND organization_id = $2`, id, organizationID)
	if err != nil {
		return fmt.Errorf("failed to delete leave request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrLeaveRequestNotFound
	}
	return nil
}

// SetWorkflowRequest implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) SetWorkflowRequest(ctx context.Context, id string, requestID string) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, `UPDATE leave_requests SET workflow_request_id = $2, updated_at = NOW() WHERE id = $1`, id, requestID)
	if err != nil {
		return fmt.Errorf("failed to link leave request to workflow request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrLeaveRequestNotFound
	}
	return nil
}

// SetStatus implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) SetStatus(ctx context.Context, id string, status leave.LeaveRequestStatus, decidedAt time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `UPDATE leave_requests SET status = $2, decided_at = $3, updated_at = NOW() WHERE id = $1`

	tag, err := q.Exec(ctx, query, id, string(status), decidedAt)
	if err != nil {
		return fmt.Errorf("failed to update leave request status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return leave.ErrLeaveRequestNotFound
	}
	return nil
}

// HasOverlap implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) HasOverlap(ctx context.Context, employeeID string, from, to time.Time, excludeID string) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM leave_requests
			WHERE employee_id = $1
			  AND status IN ('PENDING', 'APPROVED')
			  AND start_date <= $3::date AND end_date >= $2::date
			  AND ($4::text = '' OR id::text <> $4::text)
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, employeeID, from, to, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check leave overlap: %w", err)
	}
	return exists, nil
}

// ListApprovedByEmployee implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) ListApprovedByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + leaveRequestColumns + `
		FROM leave_requests
		WHERE employee_id = $1 AND status = 'APPROVED'
		  AND start_date <= $3::date AND end_date >= $2::date
		ORDER BY start_date ASC
	`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved leave: %w", err)
	}
	defer rows.Close()

	var requests []leave.LeaveRequest
	for rows.Next() {
		lr, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave request: %w", err)
		}
		requests = append(requests, lr)
	}

	return requests, rows.Err()
}
