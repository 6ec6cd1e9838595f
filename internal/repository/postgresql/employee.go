package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

const employeeSelect = `
	SELECT e.id, e.organization_id, e.branch_id, e.employee_code, e.full_name,
		e.department, e.designation, e.reporting_to, m.full_name, e.is_active
	FROM employees e
	LEFT JOIN employees m ON m.id = e.reporting_to
`

func scanEmployee(row pgx.Row) (employee.Employee, error) {
	var emp employee.Employee
	err := row.Scan(
		&emp.ID, &emp.OrganizationID, &emp.BranchID, &emp.EmployeeCode, &emp.FullName,
		&emp.Department, &emp.Designation, &emp.ReportingTo, &emp.ReportingToName, &emp.IsActive,
	)
	return emp, err
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string, organizationID string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := employeeSelect + ` WHERE e.id = $1 AND e.organization_id = $2`

	emp, err := scanEmployee(q.QueryRow(ctx, query, id, organizationID))
	if err != nil {
		if isNoRows(err) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee with id %s: %w", id, err)
	}
	return emp, nil
}

// ListActive implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListActive(ctx context.Context, organizationID string) ([]employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := employeeSelect + `
		WHERE e.organization_id = $1 AND e.is_active
		ORDER BY e.employee_code ASC
	`

	rows, err := q.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	var employees []employee.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan employee: %w", err)
		}
		employees = append(employees, emp)
	}

	return employees, rows.Err()
}

// ListActiveOrganizationIDs implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListActiveOrganizationIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, e.db)

	rows, err := q.Query(ctx, `SELECT DISTINCT organization_id FROM employees WHERE is_active ORDER BY organization_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan organization id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}
