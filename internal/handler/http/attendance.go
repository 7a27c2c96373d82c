package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
)

type AttendanceHandler interface {
	Range(w http.ResponseWriter, r *http.Request)
	Window(w http.ResponseWriter, r *http.Request)
	GetRecord(w http.ResponseWriter, r *http.Request)
	Timeline(w http.ResponseWriter, r *http.Request)
}

type AttendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &AttendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// Range implements AttendanceHandler.
func (h *AttendanceHandlerImpl) Range(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := scopeEmployee(w, r, getOptionalQueryParam(r, "employeeId"))
	if !ok {
		return
	}

	query := attendance.RangeQuery{
		EmployeeID: employeeID,
		StartDate:  r.URL.Query().Get("startDate"),
		EndDate:    r.URL.Query().Get("endDate"),
		Page:       getIntQueryParam(r, "page", 1),
		Limit:      getIntQueryParam(r, "limit", attendance.DefaultPageLimit),
	}

	result, err := h.attendanceService.GetRange(r.Context(), query)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Window implements AttendanceHandler.
func (h *AttendanceHandlerImpl) Window(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := scopeEmployee(w, r, getOptionalQueryParam(r, "employeeId"))
	if !ok {
		return
	}

	window := attendance.Window(chi.URLParam(r, "window"))
	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", attendance.DefaultPageLimit)

	result, err := h.attendanceService.GetWindow(r.Context(), employeeID, window, page, limit)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetRecord implements AttendanceHandler.
func (h *AttendanceHandlerImpl) GetRecord(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	if _, ok := scopeEmployee(w, r, &employeeID); !ok {
		return
	}

	record, err := h.attendanceService.GetRecord(r.Context(), employeeID, chi.URLParam(r, "date"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, record)
}

// Timeline implements AttendanceHandler.
func (h *AttendanceHandlerImpl) Timeline(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	if _, ok := scopeEmployee(w, r, &employeeID); !ok {
		return
	}

	timeline, err := h.attendanceService.GetTimeline(r.Context(), employeeID, chi.URLParam(r, "date"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, timeline)
}
