package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-lms-api/internal/domain"
)

type contextKey string

const authContextKey contextKey = "auth"

// Authenticator turns a bearer token into the caller's AuthContext.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.AuthContext, error)
}

// Auth returns middleware that validates the Bearer token, loads the user it
// names and injects the resulting AuthContext into the request context.
// Every rejection is a 401 whose reason tells the client whether to refresh
// (token_expired) or sign in again.
func Auth(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header", ReasonMissingToken)
				return
			}
			ac, err := a.Authenticate(r.Context(), token)
			switch {
			case err == nil:
				next.ServeHTTP(w, r.WithContext(WithAuthContext(r.Context(), ac)))
			case errors.Is(err, domain.ErrUnauthenticated):
				writeJSONError(w, http.StatusUnauthorized, "missing or invalid authorization header", ReasonMissingToken)
			case errors.Is(err, domain.ErrExpiredToken):
				writeJSONError(w, http.StatusUnauthorized, "token expired", ReasonTokenExpired)
			case errors.Is(err, domain.ErrMalformedToken):
				writeJSONError(w, http.StatusUnauthorized, "invalid token", ReasonTokenMalformed)
			case errors.Is(err, domain.ErrUserNotFound):
				writeJSONError(w, http.StatusUnauthorized, "account no longer exists", ReasonUserNotFound)
			default:
				slog.ErrorContext(r.Context(), "authentication failed", "path", r.URL.Path, "err", err)
				writeJSONError(w, http.StatusInternalServerError, "internal server error", ReasonInternal)
			}
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(h) < len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(h[len(prefix):])
	return token, token != ""
}

// WithAuthContext returns a copy of ctx carrying ac.
func WithAuthContext(ctx context.Context, ac *domain.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, ac)
}

// AuthFromContext extracts the caller's AuthContext from the request context.
func AuthFromContext(ctx context.Context) (*domain.AuthContext, bool) {
	ac, ok := ctx.Value(authContextKey).(*domain.AuthContext)
	return ac, ok && ac != nil
}
