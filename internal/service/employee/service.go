package employee

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/employee"
	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
)

type EmployeeServiceImpl struct {
	employee.EmployeeRepository
	settings settings.Provider

	// serializes the count-then-insert of Register
	registerMu sync.Mutex
}

func NewEmployeeService(employeeRepo employee.EmployeeRepository, provider settings.Provider) employee.EmployeeService {
	return &EmployeeServiceImpl{
		EmployeeRepository: employeeRepo,
		settings:           provider,
	}
}

// Register implements employee.EmployeeService.
func (s *EmployeeServiceImpl) Register(ctx context.Context, req employee.CreateEmployeeRequest) (employee.Employee, error) {
	if err := req.Validate(); err != nil {
		return employee.Employee{}, err
	}

	s.registerMu.Lock()
	defer s.registerMu.Unlock()

	limit := s.settings.Current().MaxUsersAllowed
	if limit > 0 {
		active, err := s.EmployeeRepository.CountActive(ctx)
		if err != nil {
			return employee.Employee{}, fmt.Errorf("failed to count active employees: %w", err)
		}
		if active >= int64(limit) {
			slog.Warn("Employee registration refused, user limit reached", "limit", limit, "active", active)
			return employee.Employee{}, employee.ErrUserLimitReached
		}
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		newID, err := uuid.NewV7()
		if err != nil {
			return employee.Employee{}, fmt.Errorf("failed to generate employee id: %w", err)
		}
		id = newID.String()
	}

	created, err := s.EmployeeRepository.Create(ctx, employee.Employee{
		ID:        id,
		FullName:  req.FullName,
		Email:     req.Email,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return employee.Employee{}, err
	}

	slog.Info("Employee registered", "employee_id", created.ID)
	return created, nil
}

// Get implements employee.EmployeeService.
func (s *EmployeeServiceImpl) Get(ctx context.Context, id string) (employee.Employee, error) {
	return s.EmployeeRepository.GetByID(ctx, strings.TrimSpace(id))
}

// List implements employee.EmployeeService.
func (s *EmployeeServiceImpl) List(ctx context.Context, filter employee.ListEmployeeFilter) (employee.ListEmployeeResponse, error) {
	filter.Normalize()

	employees, total, err := s.EmployeeRepository.List(ctx, filter)
	if err != nil {
		return employee.ListEmployeeResponse{}, fmt.Errorf("failed to list employees: %w", err)
	}
	if employees == nil {
		employees = []employee.Employee{}
	}

	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return employee.ListEmployeeResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Employees:  employees,
	}, nil
}
