package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/request"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
)

type RequestHandler interface {
	SubmitBreak(w http.ResponseWriter, r *http.Request)
	SubmitClockOut(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Process(w http.ResponseWriter, r *http.Request)
}

type RequestHandlerImpl struct {
	workflows map[string]request.Workflow
}

// NewRequestHandler routes the {kind} URL segment ("breaks", "clock-outs") to its workflow.
func NewRequestHandler(breaks request.Workflow, clockOuts request.Workflow) RequestHandler {
	return &RequestHandlerImpl{
		workflows: map[string]request.Workflow{
			"breaks":     breaks,
			"clock-outs": clockOuts,
		},
	}
}

type processRequestBody struct {
	Decision   string  `json:"decision"`
	AdminNotes *string `json:"adminNotes,omitempty"`
}

func (h *RequestHandlerImpl) workflow(w http.ResponseWriter, r *http.Request) (request.Workflow, bool) {
	wf, ok := h.workflows[chi.URLParam(r, "kind")]
	if !ok {
		response.NotFound(w, "Unknown request kind")
		return nil, false
	}
	return wf, true
}

// SubmitBreak implements RequestHandler.
func (h *RequestHandlerImpl) SubmitBreak(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, h.workflows["breaks"])
}

// SubmitClockOut implements RequestHandler.
func (h *RequestHandlerImpl) SubmitClockOut(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, h.workflows["clock-outs"])
}

func (h *RequestHandlerImpl) submit(w http.ResponseWriter, r *http.Request, wf request.Workflow) {
	var req request.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Submit request decode error", "kind", wf.Kind(), "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	employeeID, ok := scopeEmployee(w, r, &req.EmployeeID)
	if !ok {
		return
	}
	req.EmployeeID = *employeeID

	created, err := wf.Submit(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Request submitted successfully", created)
}

// List implements RequestHandler.
func (h *RequestHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	wf, ok := h.workflow(w, r)
	if !ok {
		return
	}

	employeeID, ok := scopeEmployee(w, r, getOptionalQueryParam(r, "employeeId"))
	if !ok {
		return
	}

	filter := request.Filter{
		Kind:       wf.Kind(),
		EmployeeID: employeeID,
		Page:       getIntQueryParam(r, "page", 1),
		Limit:      getIntQueryParam(r, "limit", 20),
	}
	if status := getOptionalQueryParam(r, "status"); status != nil {
		s := request.Status(*status)
		filter.Status = &s
	}

	result, err := wf.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Get implements RequestHandler.
func (h *RequestHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	wf, ok := h.workflow(w, r)
	if !ok {
		return
	}

	found, err := wf.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if _, ok := scopeEmployee(w, r, &found.EmployeeID); !ok {
		return
	}

	response.Success(w, found)
}

// Process implements RequestHandler.
func (h *RequestHandlerImpl) Process(w http.ResponseWriter, r *http.Request) {
	wf, ok := h.workflow(w, r)
	if !ok {
		return
	}

	var body processRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		slog.Error("Process request decode error", "kind", wf.Kind(), "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	caller, ok := middleware.CallerFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	processed, err := wf.Process(r.Context(), request.ProcessRequest{
		RequestID:   chi.URLParam(r, "id"),
		Decision:    body.Decision,
		AdminNotes:  body.AdminNotes,
		ProcessedBy: caller.UserID,
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Request processed successfully", processed)
}
