package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
)

type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleOwner    Role = "owner"
)

// IsManager reports whether the role may administer schedules, workflows and other employees' records
func (r Role) IsManager() bool {
	return r == RoleManager || r == RoleOwner
}

// RequireManager requires manager or owner role
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := IdentityFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, ErrInvalidToken.Error())
			return
		}

		if !id.Role.IsManager() {
			response.Forbidden(w, "Manager access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}
