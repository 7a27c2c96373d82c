package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/domain/settings"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
)

// Maintenance refuses mutating requests while maintenance mode is on. Reads pass.
func Maintenance(provider settings.Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			if provider.Current().MaintenanceMode {
				response.ServiceUnavailable(w, "System is in maintenance mode")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
