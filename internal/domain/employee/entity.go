package employee

type Employee struct {
	ID             string
	OrganizationID string
	BranchID       *string
	EmployeeCode   string
	FullName       string
	Department     *string
	Designation    *string
	// ReportingTo is the manager's employee ID
	ReportingTo     *string
	ReportingToName *string
	IsActive        bool
}

func (e Employee) DepartmentName() string {
	if e.Department == nil {
		return ""
	}
	return *e.Department
}
