package handler

import (
	"net/http"

	"github.com/go-lms-api/internal/application/otp"
	"github.com/go-lms-api/internal/domain"
)

// OTPHandler handles verification code requests and checks.
type OTPHandler struct {
	svc  otp.Service
	errs Errors
}

func NewOTPHandler(svc otp.Service, errs Errors) *OTPHandler {
	return &OTPHandler{svc: svc, errs: errs}
}

func (h *OTPHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req domain.OTPRequest
	if !decode(w, r, &req) {
		return
	}
	if _, err := h.svc.Issue(r.Context(), req.Email); err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, OTPRequestEnvelope{Success: true, Message: "verification code sent"})
}

func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.OTPVerifyRequest
	if m := bind(r, &req); m != nil {
		writeJSON(w, m.status, OTPVerifyEnvelope{Error: m.msg, Reason: m.reason})
		return
	}
	if err := h.svc.Verify(r.Context(), req.Email, req.Code); err != nil {
		m, detail := h.errs.resolve(r, err)
		writeJSON(w, m.status, OTPVerifyEnvelope{Error: m.msg, Reason: m.reason, Detail: detail})
		return
	}
	writeJSON(w, http.StatusOK, OTPVerifyEnvelope{Valid: true, Message: "verification code accepted"})
}
