package request

import (
	"strings"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/validator"
)

type SubmitRequest struct {
	EmployeeID      string  `json:"employeeId" validate:"required"`
	Reason          string  `json:"reason" validate:"max=500"`
	BreakName       *string `json:"breakName,omitempty" validate:"omitempty,max=100"`
	DurationMinutes *int    `json:"durationMinutes,omitempty" validate:"omitempty,min=1,max=240"`
}

func (r *SubmitRequest) Validate() error {
	r.EmployeeID = strings.TrimSpace(r.EmployeeID)
	r.Reason = strings.TrimSpace(r.Reason)

	if errs := validator.Struct(r); len(errs) > 0 {
		return errs
	}
	return nil
}

type ProcessRequest struct {
	RequestID   string  `json:"requestId" validate:"required"`
	Decision    string  `json:"decision" validate:"required,oneof=approved rejected"`
	AdminNotes  *string `json:"adminNotes,omitempty" validate:"omitempty,max=1000"`
	ProcessedBy string  `json:"-" validate:"required"`
}

func (r *ProcessRequest) Validate() error {
	if errs := validator.Struct(r); len(errs) > 0 {
		return errs
	}
	return nil
}

type Filter struct {
	Kind       Kind
	EmployeeID *string
	Status     *Status

	// Pagination
	Page  int
	Limit int
}

func (f *Filter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{Field: "page", Message: "page must be a positive number"})
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must be a positive number"})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "limit must not exceed 100"})
	}

	if f.Status != nil {
		valid := []string{string(StatusPending), string(StatusApproved), string(StatusRejected)}
		if !validator.IsInSlice(string(*f.Status), valid) {
			errs = append(errs, validator.ValidationError{Field: "status", Message: "status must be one of: pending, approved, rejected"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ListResponse struct {
	TotalCount int64     `json:"totalCount"`
	Page       int       `json:"page"`
	Limit      int       `json:"limit"`
	TotalPages int       `json:"totalPages"`
	Requests   []Request `json:"requests"`
}
