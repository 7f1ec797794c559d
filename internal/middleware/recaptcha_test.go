package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authd-dev/authd/internal/config"
)

func recaptchaFor(t *testing.T, verifierResponse string) *Recaptcha {
	t.Helper()
	verifier := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "secret123", r.PostForm.Get("secret"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(verifierResponse))
	}))
	t.Cleanup(verifier.Close)

	cfg := &config.Config{}
	cfg.Public.Recaptcha.URL = verifier.URL
	cfg.Private.RecaptchaSecret = "secret123"
	return NewRecaptcha(cfg)
}

func TestRecaptchaMiddleware(t *testing.T) {
	t.Run("verified request passes", func(t *testing.T) {
		rc := recaptchaFor(t, `{"success": true}`)
		called := false

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Recaptcha", "client-response")
		rr := httptest.NewRecorder()

		rc.Middleware(okHandler(&called)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, called)
	})

	t.Run("missing header", func(t *testing.T) {
		rc := recaptchaFor(t, `{"success": true}`)
		called := false

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rr := httptest.NewRecorder()

		rc.Middleware(okHandler(&called)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.False(t, called)
	})

	t.Run("verification rejected", func(t *testing.T) {
		rc := recaptchaFor(t, `{"success": false, "error-codes": ["invalid-input-response"]}`)
		called := false

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Recaptcha", "client-response")
		rr := httptest.NewRecorder()

		rc.Middleware(okHandler(&called)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.False(t, called)
	})

	t.Run("verifier unreachable", func(t *testing.T) {
		rc := recaptchaFor(t, `{"success": true}`)
		rc.url = "http://127.0.0.1:1"
		called := false

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("Recaptcha", "client-response")
		rr := httptest.NewRecorder()

		rc.Middleware(okHandler(&called)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.False(t, called)
	})
}

func TestRequireServiceToken(t *testing.T) {
	devCfg := func(serviceToken string) *config.Config {
		cfg := &config.Config{}
		cfg.Public.Env = "development"
		cfg.Private.ServiceToken = serviceToken
		return cfg
	}

	t.Run("matching token in development", func(t *testing.T) {
		called := false

		req := httptest.NewRequest(http.MethodPost, "/?service_token=s3cret", nil)
		rr := httptest.NewRecorder()

		RequireServiceToken(devCfg("s3cret"))(okHandler(&called)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, called)
	})

	t.Run("wrong token", func(t *testing.T) {
		called := false

		req := httptest.NewRequest(http.MethodPost, "/?service_token=nope", nil)
		rr := httptest.NewRecorder()

		RequireServiceToken(devCfg("s3cret"))(okHandler(&called)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.False(t, called)
	})

	t.Run("closed outside development", func(t *testing.T) {
		cfg := devCfg("s3cret")
		cfg.Public.Env = "production"
		called := false

		req := httptest.NewRequest(http.MethodPost, "/?service_token=s3cret", nil)
		rr := httptest.NewRecorder()

		RequireServiceToken(cfg)(okHandler(&called)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.False(t, called)
	})

	t.Run("closed when no token configured", func(t *testing.T) {
		called := false

		req := httptest.NewRequest(http.MethodPost, "/?service_token=", nil)
		rr := httptest.NewRecorder()

		RequireServiceToken(devCfg(""))(okHandler(&called)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.False(t, called)
	})
}
