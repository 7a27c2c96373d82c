package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
)

// getIntQueryParam gets an int query parameter with a default value
func getIntQueryParam(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}

// getBoolQueryParam gets a bool query parameter with a default value
func getBoolQueryParam(r *http.Request, key string, defaultVal bool) bool {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	return val == "true" || val == "1"
}

// getOptionalQueryParam returns nil for a missing or blank parameter
func getOptionalQueryParam(r *http.Request, key string) *string {
	val := strings.TrimSpace(r.URL.Query().Get(key))
	if val == "" {
		return nil
	}
	return &val
}

// scopeEmployee resolves which employee a request may act on. Admins may act on
// any employee, employees only on themselves; a blank employee means the caller.
// It writes the error response and returns false when the caller is not allowed.
func scopeEmployee(w http.ResponseWriter, r *http.Request, requested *string) (*string, bool) {
	caller, ok := middleware.CallerFromRequest(r)
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return nil, false
	}

	if caller.IsAdmin() {
		return requested, true
	}

	if caller.EmployeeID == "" {
		response.Forbidden(w, "Token is not bound to an employee")
		return nil, false
	}
	if requested != nil && *requested != "" && *requested != caller.EmployeeID {
		response.Forbidden(w, "Access to other employees is not allowed")
		return nil, false
	}

	own := caller.EmployeeID
	return &own, true
}
