package middleware

import (
	"fmt"
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
)

// Caller is the authenticated principal of a request.
type Caller struct {
	UserID     string
	EmployeeID string
	Role       jwt.Role
}

func (c Caller) IsAdmin() bool {
	return c.Role == jwt.RoleAdmin
}

// CallerFromRequest reads the caller from the verified token claims.
func CallerFromRequest(r *http.Request) (Caller, bool) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil || claims == nil {
		return Caller{}, false
	}

	role, ok := claims["role"].(string)
	if !ok {
		return Caller{}, false
	}
	userID, _ := claims["user_id"].(string)
	employeeID, _ := claims["employee_id"].(string)

	return Caller{UserID: userID, EmployeeID: employeeID, Role: jwt.Role(role)}, true
}

// RequireRole allows only callers holding one of roles
func RequireRole(roles ...jwt.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, ok := CallerFromRequest(r)
			if !ok {
				response.Unauthorized(w, "Invalid token")
				return
			}

			for _, role := range roles {
				if caller.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			response.Forbidden(w, fmt.Sprintf("Insufficient permissions: role '%s' not allowed", caller.Role))
		})
	}
}
