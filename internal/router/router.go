package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/authd-dev/authd/internal/middleware"
	"github.com/authd-dev/authd/internal/middleware/metrics"
	"github.com/authd-dev/authd/internal/setup"
	"github.com/authd-dev/authd/internal/token"
)

// New wires all routes. Route-level gates:
//   - recaptcha in front of the email-sending endpoints
//   - the revocation denylist in front of password reset
//   - RequireAuth on identity routes
//   - the service token in front of admin routes
func New(deps *setup.Dependencies) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:8081"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "Recaptcha"},
		AllowCredentials: true,
	}))
	r.Use(metrics.Middleware)

	h := deps.Handler
	gate := deps.Gate

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Post("/refresh-token", h.RefreshToken)
			r.Get("/activate", h.Activate)
			r.Post("/verify-token", h.VerifyToken)

			// Endpoints that send email sit behind the bot gate
			r.Group(func(r chi.Router) {
				r.Use(deps.Recaptcha.Middleware)
				r.Post("/register", h.Register)
				r.Post("/request-reset-password", h.RequestPasswordReset)
			})

			r.Group(func(r chi.Router) {
				r.Use(gate.RequireNotBanned)
				r.Use(gate.RequireValidToken(token.PurposeReset))
				r.Post("/reset-password", h.ResetPassword)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(gate.RequireAuth)
			r.Get("/me", h.Me)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireServiceToken(deps.Config))
			r.Post("/tokens/ban", h.BanToken)
			r.Post("/users/{userId}/ban", h.BanUser)
			r.Delete("/users/{userId}/ban", h.UnbanUser)
			r.Post("/users/{userId}/activation", h.ActivateUser)
			r.Delete("/users/{userId}/activation", h.DeactivateUser)
		})
	})

	return r
}
