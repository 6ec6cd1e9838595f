package employee

import "context"

// EmployeeRepository is read-only; employees are owned by the HR directory
type EmployeeRepository interface {
	GetByID(ctx context.Context, id string, organizationID string) (Employee, error)
	ListActive(ctx context.Context, organizationID string) ([]Employee, error)
	ListActiveOrganizationIDs(ctx context.Context) ([]string, error)
}
