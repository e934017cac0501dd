package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-lms-api/internal/application/user"
	"github.com/go-lms-api/internal/domain"
)

// UserHandler handles user administration endpoints.
type UserHandler struct {
	svc  user.Service
	errs Errors
}

func NewUserHandler(svc user.Service, errs Errors) *UserHandler {
	return &UserHandler{svc: svc, errs: errs}
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateRoleRequest
	if !decode(w, r, &req) {
		return
	}
	u, err := h.svc.UpdateRole(r.Context(), chi.URLParam(r, "id"), req.Role)
	if err != nil {
		h.errs.write(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
