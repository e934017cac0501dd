package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-lms-api/internal/domain"
	"github.com/go-lms-api/internal/pkg/validate"
	"github.com/go-lms-api/internal/transport/http/middleware"
)

const (
	ReasonInvalidRequest     = "invalid_request"
	ReasonInvalidCredentials = "invalid_credentials"
	ReasonAlreadyRegistered  = "already_registered"
	ReasonNotFound           = "not_found"
	ReasonOTPNotFound        = "otp_not_found"
	ReasonOTPExpired         = "otp_expired"
	ReasonOTPMismatch        = "otp_mismatch"
)

var validateStruct = validate.Struct

type mappedError struct {
	status int
	msg    string
	reason string
}

// mapError translates a service error into its HTTP status, public message
// and reason code. ok is false for errors with no client-facing meaning.
func mapError(err error) (m mappedError, ok bool) {
	switch {
	case errors.Is(err, domain.ErrOTPNotFound):
		return mappedError{http.StatusNotFound, "no verification code issued for this email", ReasonOTPNotFound}, true
	case errors.Is(err, domain.ErrOTPExpired):
		return mappedError{http.StatusGone, "verification code expired", ReasonOTPExpired}, true
	case errors.Is(err, domain.ErrOTPMismatch):
		return mappedError{http.StatusBadRequest, "verification code does not match", ReasonOTPMismatch}, true
	case errors.Is(err, domain.ErrAlreadyRegistered), errors.Is(err, domain.ErrConflict):
		return mappedError{http.StatusConflict, "email already registered", ReasonAlreadyRegistered}, true
	case errors.Is(err, domain.ErrBadRequest):
		return mappedError{http.StatusUnprocessableEntity, err.Error(), ReasonInvalidRequest}, true
	case errors.Is(err, domain.ErrUnauthorized):
		return mappedError{http.StatusUnauthorized, "invalid email or password", ReasonInvalidCredentials}, true
	case errors.Is(err, domain.ErrExpiredToken):
		return mappedError{http.StatusUnauthorized, "token expired", middleware.ReasonTokenExpired}, true
	case errors.Is(err, domain.ErrMalformedToken):
		return mappedError{http.StatusUnauthorized, "invalid token", middleware.ReasonTokenMalformed}, true
	case errors.Is(err, domain.ErrUserNotFound):
		return mappedError{http.StatusUnauthorized, "account no longer exists", middleware.ReasonUserNotFound}, true
	case errors.Is(err, domain.ErrUnauthenticated):
		return mappedError{http.StatusUnauthorized, "authentication required", middleware.ReasonMissingToken}, true
	case errors.Is(err, domain.ErrForbidden):
		return mappedError{http.StatusForbidden, "forbidden", middleware.ReasonForbidden}, true
	case errors.Is(err, domain.ErrNotFound):
		return mappedError{http.StatusNotFound, "not found", ReasonNotFound}, true
	}
	return mappedError{http.StatusInternalServerError, "internal server error", middleware.ReasonInternal}, false
}

// Errors writes service errors as JSON. With Detail set, unexpected errors
// carry their text in the detail field; production leaves it off.
type Errors struct {
	Detail bool
}

func (e Errors) resolve(r *http.Request, err error) (mappedError, string) {
	m, ok := mapError(err)
	if ok {
		return m, ""
	}
	slog.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	if e.Detail {
		return m, err.Error()
	}
	return m, ""
}

func (e Errors) write(w http.ResponseWriter, r *http.Request, err error) {
	m, detail := e.resolve(r, err)
	writeJSON(w, m.status, ErrorEnvelope{Error: m.msg, Reason: m.reason, Detail: detail})
}
