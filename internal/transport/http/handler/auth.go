package handler

import (
	"net/http"

	"github.com/go-lms-api/internal/application/auth"
	"github.com/go-lms-api/internal/domain"
	"github.com/go-lms-api/internal/transport/http/middleware"
)

// AuthHandler handles login, registration and the current-user endpoint.
type AuthHandler struct {
	svc  auth.Service
	errs Errors
}

func NewAuthHandler(svc auth.Service, errs Errors) *AuthHandler {
	return &AuthHandler{svc: svc, errs: errs}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Login(r.Context(), req)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, AuthEnvelope{Token: res.Token, User: res.User})
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.Register(r.Context(), req)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthEnvelope{Token: res.Token, User: res.User})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ac, ok := middleware.AuthFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "authentication required", middleware.ReasonMissingToken)
		return
	}
	writeJSON(w, http.StatusOK, ac)
}
