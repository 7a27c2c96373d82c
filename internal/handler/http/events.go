package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
)

type EventHandler interface {
	Ingest(w http.ResponseWriter, r *http.Request)
	IngestBatch(w http.ResponseWriter, r *http.Request)
	RecordScreenshots(w http.ResponseWriter, r *http.Request)
}

type EventHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewEventHandler(attendanceService attendance.AttendanceService) EventHandler {
	return &EventHandlerImpl{
		attendanceService: attendanceService,
	}
}

// Ingest implements EventHandler.
func (h *EventHandlerImpl) Ingest(w http.ResponseWriter, r *http.Request) {
	var raw attendance.RawEvent
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		slog.Error("Ingest decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	employeeID, ok := scopeEmployee(w, r, &raw.EmployeeID)
	if !ok {
		return
	}
	raw.EmployeeID = *employeeID

	record, err := h.attendanceService.Ingest(r.Context(), raw)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, record)
}

// IngestBatch implements EventHandler.
func (h *EventHandlerImpl) IngestBatch(w http.ResponseWriter, r *http.Request) {
	var req attendance.IngestBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("IngestBatch decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	for i := range req.Events {
		employeeID, ok := scopeEmployee(w, r, &req.Events[i].EmployeeID)
		if !ok {
			return
		}
		req.Events[i].EmployeeID = *employeeID
	}

	result, err := h.attendanceService.IngestBatch(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// RecordScreenshots implements EventHandler.
func (h *EventHandlerImpl) RecordScreenshots(w http.ResponseWriter, r *http.Request) {
	var req attendance.ScreenshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("RecordScreenshots decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	employeeID, ok := scopeEmployee(w, r, &req.EmployeeID)
	if !ok {
		return
	}
	req.EmployeeID = *employeeID

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	record, err := h.attendanceService.RecordScreenshots(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, record)
}
