package employee

import (
	"strings"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

type CreateEmployeeRequest struct {
	ID       string `json:"id,omitempty"`
	FullName string `json:"fullName" validate:"required,max=200"`
	Email    string `json:"email" validate:"required,email"`
}

func (r *CreateEmployeeRequest) Validate() error {
	r.FullName = strings.TrimSpace(r.FullName)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))

	if errs := validator.Struct(r); len(errs) > 0 {
		return errs
	}
	return nil
}

type ListEmployeeFilter struct {
	ActiveOnly bool
	Page       int
	Limit      int
}

func (f *ListEmployeeFilter) Normalize() {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
}

type ListEmployeeResponse struct {
	TotalCount int64      `json:"totalCount"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	TotalPages int        `json:"totalPages"`
	Employees  []Employee `json:"employees"`
}
