package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
)

// currentIdentity writes 401 and returns false when AuthRequired did not run
func currentIdentity(w http.ResponseWriter, r *http.Request) (middleware.Identity, bool) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Unauthorized")
		return middleware.Identity{}, false
	}
	return id, true
}

// targetEmployee resolves the employee a read applies to. Employees may only
// read themselves; managers may name anyone in their organization.
func targetEmployee(w http.ResponseWriter, id middleware.Identity, requested string) (string, bool) {
	if requested == "" || requested == id.EmployeeID {
		return id.EmployeeID, true
	}
	if !id.Role.IsManager() {
		response.Forbidden(w, "Cannot access another employee's records")
		return "", false
	}
	return requested, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}, op string) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		slog.Error(op+" decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return false
	}
	return true
}
