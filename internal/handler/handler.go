package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/authd-dev/authd/internal/config"
	"github.com/authd-dev/authd/internal/logger"
	"github.com/authd-dev/authd/internal/service"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	auth   service.AuthService
	health Pinger
	cfg    *config.Config
}

func New(auth service.AuthService, health Pinger, cfg *config.Config) *Handler {
	return &Handler{auth: auth, health: health, cfg: cfg}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log.Error("failed to encode response", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}
