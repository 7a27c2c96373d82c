package employee

import "context"

type EmployeeService interface {
	// Register adds an employee, enforcing the configured user limit
	Register(ctx context.Context, req CreateEmployeeRequest) (Employee, error)
	Get(ctx context.Context, id string) (Employee, error)
	List(ctx context.Context, filter ListEmployeeFilter) (ListEmployeeResponse, error)
}
