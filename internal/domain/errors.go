package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// Authentication failures raised by the token verifier and the auth middleware.
var (
	ErrUnauthenticated = errors.New("missing bearer token")
	ErrMalformedToken  = errors.New("malformed token")
	ErrExpiredToken    = errors.New("token expired")
	ErrUserNotFound    = errors.New("user no longer exists")
)

// Registration and OTP failures.
var (
	ErrAlreadyRegistered = errors.New("email already registered")
	ErrOTPNotFound       = errors.New("no pending OTP for this email")
	ErrOTPExpired        = errors.New("OTP expired")
	ErrOTPMismatch       = errors.New("OTP does not match")
)
