package employee

import "context"

type EmployeeRepository interface {
	// GetByID returns ErrEmployeeNotFound when the id is unknown
	GetByID(ctx context.Context, id string) (Employee, error)

	// Exists reports whether an active employee with the id exists
	Exists(ctx context.Context, id string) (bool, error)

	// Create returns ErrEmailExists on a duplicate email
	Create(ctx context.Context, e Employee) (Employee, error)

	CountActive(ctx context.Context) (int64, error)
	List(ctx context.Context, filter ListEmployeeFilter) ([]Employee, int64, error)
}
