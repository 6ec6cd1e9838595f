package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/cmlabs-hris/attendance-engine/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the caller as described by the access token
type Identity struct {
	UserID         string
	EmployeeID     string
	OrganizationID string
	Role           Role
}

type identityKey struct{}

// AuthRequired rejects requests without a verified access token and stores the
// caller's Identity in the request context.
func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, claims, err := jwtauth.FromContext(r.Context())

			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}

			if token == nil {
				response.Unauthorized(w, ErrInvalidToken.Error())
				return
			}

			tokenType, ok := claims["type"].(string)
			if tokenType != "access" || !ok {
				response.Unauthorized(w, ErrInvalidToken.Error())
				return
			}

			id := Identity{
				UserID:         stringClaim(claims, "user_id"),
				EmployeeID:     stringClaim(claims, "employee_id"),
				OrganizationID: stringClaim(claims, "organization_id"),
				Role:           Role(stringClaim(claims, "role")),
			}
			if id.OrganizationID == "" || id.EmployeeID == "" {
				response.Forbidden(w, "Organization or employee not found in token")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, id)))
		}
		return http.HandlerFunc(hfn)
	}
}

// IdentityFromContext returns the Identity stored by AuthRequired
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// WithIdentity is used by tests and internal callers that bypass token verification
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func stringClaim(claims map[string]interface{}, key string) string {
	v, _ := claims[key].(string)
	return v
}
