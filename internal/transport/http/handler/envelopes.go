package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-lms-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
}

// ErrorEnvelope is the body of every error response.
type ErrorEnvelope struct {
	Error  string `json:"error"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// AuthEnvelope wraps login/register responses.
type AuthEnvelope struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// OTPRequestEnvelope wraps the OTP request response. The code itself is never
// part of it.
type OTPRequestEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// OTPVerifyEnvelope wraps the OTP verify response for both outcomes.
type OTPVerifyEnvelope struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, reason string) {
	writeJSON(w, status, ErrorEnvelope{Error: msg, Reason: reason})
}

// bind reads a JSON body into dst and runs struct validation on it.
func bind(r *http.Request, dst interface{}) *mappedError {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &mappedError{http.StatusBadRequest, "invalid request body", ReasonInvalidRequest}
	}
	if err := validateStruct(dst); err != nil {
		return &mappedError{http.StatusUnprocessableEntity, err.Error(), ReasonInvalidRequest}
	}
	return nil
}

// decode is bind for handlers that answer with a plain ErrorEnvelope. It
// reports whether the caller may proceed.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if m := bind(r, dst); m != nil {
		writeError(w, m.status, m.msg, m.reason)
		return false
	}
	return true
}
