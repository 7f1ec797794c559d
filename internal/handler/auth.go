package handler

import (
	"net/http"

	"github.com/authd-dev/authd/internal/domain"
	"github.com/authd-dev/authd/internal/errors"
	"github.com/authd-dev/authd/internal/logger"
	"github.com/authd-dev/authd/internal/middleware"
	"github.com/authd-dev/authd/internal/service"
	"github.com/authd-dev/authd/internal/token"
	"github.com/authd-dev/authd/internal/utils"
)

type credentials struct {
	Email    string `validate:"required" json:"email"`
	Password string `validate:"required" json:"password"`
	Remember bool   `json:"remember"`
}

type tokenRequest struct {
	Token string `validate:"required" json:"token"`
}

type resetPasswordRequest struct {
	Token    string `validate:"required" json:"token"`
	Password string `validate:"required" json:"password"`
}

type requestPasswordResetRequest struct {
	Email string `validate:"required" json:"email"`
}

type loginResponse struct {
	Token        string            `json:"token"`
	RefreshToken string            `json:"refreshToken,omitempty"`
	User         domain.PublicUser `json:"user"`
}

func loginResponseFrom(payload service.LoginPayload) loginResponse {
	return loginResponse{
		Token:        payload.Token,
		RefreshToken: payload.RefreshToken,
		User:         payload.User,
	}
}

// Register handles POST /v1/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := utils.DecodeValidate(r.Body, &creds); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.auth.Register(creds.Email, creds.Password); err != nil {
		if errors.IsConflict(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Registered. Check your email for the activation link"))
}

// Login handles POST /v1/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := utils.DecodeValidate(r.Body, &creds); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	payload, err := h.auth.Login(creds.Email, creds.Password, creds.Remember)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, loginResponseFrom(payload))
}

// RefreshToken handles POST /v1/auth/refresh-token
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	payload, err := h.auth.RefreshToken(req.Token)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	writeJSON(w, loginResponseFrom(payload))
}

// Activate handles GET /v1/auth/activate?token=...
// The token arrives in the query string because the link is opened from an email.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Token required", http.StatusBadRequest)
		return
	}

	if err := h.auth.ActivateAccount(tokenStr); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Account activated. You can login now"))
}

// RequestPasswordReset handles POST /v1/auth/request-reset-password
// Always responds 200 so the endpoint can't be used to probe which emails
// are registered.
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req requestPasswordResetRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.auth.RequestPasswordReset(req.Email); err != nil {
		logger.Log.Error("password reset request failed", "error", err)
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("If this email is registered, a reset link has been sent"))
}

// ResetPassword handles POST /v1/auth/reset-password
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.auth.ResetPassword(req.Token, req.Password); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Password updated"))
}

// VerifyToken handles POST /v1/auth/verify-token. An optional "purpose"
// field narrows the check to a single token kind; without it any valid
// token of any kind passes.
func (h *Handler) VerifyToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token   string `validate:"required" json:"token"`
		Purpose string `json:"purpose"`
	}
	if err := utils.DecodeValidate(r.Body, &req); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	var err error
	if req.Purpose != "" {
		err = h.auth.VerifyToken(req.Token, token.Purpose(req.Purpose))
	} else {
		err = h.auth.VerifyToken(req.Token)
	}
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Token is valid"))
}

// Me handles GET /v1/me. RequireAuth puts the user in the context.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r)
	if !ok {
		http.Error(w, "Authorization required", http.StatusForbidden)
		return
	}
	writeJSON(w, user)
}
