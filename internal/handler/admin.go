package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/authd-dev/authd/internal/utils"
)

func userIdParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
}

// BanToken handles POST /v1/admin/tokens/ban
func (h *Handler) BanToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.auth.BanToken(req.Token); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Token banned"))
}

// BanUser handles POST /v1/admin/users/{userId}/ban
func (h *Handler) BanUser(w http.ResponseWriter, r *http.Request) {
	userId, err := userIdParam(r)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	if err := h.auth.BanUser(userId); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("User banned"))
}

// UnbanUser handles DELETE /v1/admin/users/{userId}/ban
func (h *Handler) UnbanUser(w http.ResponseWriter, r *http.Request) {
	userId, err := userIdParam(r)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	if err := h.auth.UnbanUser(userId); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("User unbanned"))
}

// ActivateUser handles POST /v1/admin/users/{userId}/activation
func (h *Handler) ActivateUser(w http.ResponseWriter, r *http.Request) {
	userId, err := userIdParam(r)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	if err := h.auth.ActivateUser(userId); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("User activated"))
}

// DeactivateUser handles DELETE /v1/admin/users/{userId}/activation
func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	userId, err := userIdParam(r)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	if err := h.auth.DeactivateUser(userId); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("User deactivated"))
}
