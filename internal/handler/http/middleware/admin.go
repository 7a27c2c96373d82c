package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/pkg/jwt"
)

func AdminOnly(next http.Handler) http.Handler {
	return RequireRole(jwt.RoleAdmin)(next)
}
