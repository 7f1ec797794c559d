package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/authd-dev/authd/internal/domain"
	"github.com/authd-dev/authd/internal/logger"
	"github.com/authd-dev/authd/internal/service"
	"github.com/authd-dev/authd/internal/token"
)

// Key to store the resolved user in the request context
type key int

const UserKey key = 0

// Gate guards HTTP routes using the auth service: identity resolution,
// generic token verification and the revocation denylist.
type Gate struct {
	auth service.AuthService
}

func NewGate(auth service.AuthService) *Gate {
	return &Gate{auth: auth}
}

// RequireAuth extracts a bearer token from the Authorization header,
// resolves the identity behind it and stores it in the request context.
// Any failure is a flat 403; the reason is logged, never echoed.
func (g *Gate) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !found || tokenStr == "" {
			http.Error(w, "Authorization required", http.StatusForbidden)
			return
		}

		user, err := g.auth.Auth(tokenStr)
		if err != nil {
			logger.Log.Debug("authentication failed", "error", err)
			http.Error(w, "Invalid token", http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), UserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireValidToken verifies the request token under the given purpose's
// key before letting the request through. The purpose is always explicit
// here; the try-every-key form of VerifyToken is not used on any route.
func (g *Gate) RequireValidToken(purpose token.Purpose) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := extractToken(r)
			if err != nil {
				http.Error(w, "Token missing", http.StatusForbidden)
				return
			}
			if err := g.auth.VerifyToken(tokenStr, purpose); err != nil {
				http.Error(w, "Invalid token", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireNotBanned rejects requests whose token is on the denylist. A
// failed denylist lookup is a 500, never treated as "not banned".
func (g *Gate) RequireNotBanned(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, err := extractToken(r)
		if err != nil {
			http.Error(w, "Token missing", http.StatusForbidden)
			return
		}

		banned, err := g.auth.IsTokenBanned(tokenStr)
		if err != nil {
			logger.Log.Error("denylist check failed", "error", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if banned {
			http.Error(w, "Token revoked", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// extractToken pulls the token from the query string on GET requests and
// from the JSON body otherwise. The body is restored so the handler can
// decode it again.
func extractToken(r *http.Request) (string, error) {
	if r.Method == http.MethodGet {
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			return "", errTokenMissing
		}
		return tokenStr, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(body))

	var probe struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &probe); err != nil || probe.Token == "" {
		return "", errTokenMissing
	}
	return probe.Token, nil
}

var errTokenMissing = errorString("token missing from request")

type errorString string

func (e errorString) Error() string { return string(e) }

// GetUserFromContext retrieves the authenticated user stored by RequireAuth.
func GetUserFromContext(r *http.Request) (domain.PublicUser, bool) {
	user, ok := r.Context().Value(UserKey).(domain.PublicUser)
	return user, ok
}
