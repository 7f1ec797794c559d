package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/authd-dev/authd/internal/config"
)

// RequireServiceToken gates administrative routes behind the configured
// service token, and only in development. In any other environment the
// routes are closed outright; real deployments drive these operations
// through tooling, not HTTP.
func RequireServiceToken(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.IsDevelopment() || cfg.Private.ServiceToken == "" {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			provided := r.URL.Query().Get("service_token")
			if subtle.ConstantTimeCompare([]byte(provided), []byte(cfg.Private.ServiceToken)) != 1 {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
