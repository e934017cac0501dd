package middleware

import (
	"net/http"
	"strings"

	"github.com/go-lms-api/internal/domain"
)

// RequireRole returns middleware that allows access only to callers whose
// role matches one of allowedRoles, compared case-insensitively. It must run
// after Auth.
func RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := AuthFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", ReasonMissingToken)
				return
			}
			for _, role := range allowedRoles {
				if strings.EqualFold(strings.TrimSpace(ac.Role), role) {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeJSONError(w, http.StatusForbidden, "forbidden", ReasonForbidden)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireRole(domain.RoleAdmin)(next)
}

func RequireInstructor(next http.Handler) http.Handler {
	return RequireRole(domain.RoleInstructor)(next)
}
