package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/authd-dev/authd/internal/domain"
	internal_errors "github.com/authd-dev/authd/internal/errors"
	"github.com/authd-dev/authd/internal/service"
	"github.com/authd-dev/authd/internal/token"
)

func createRequest(t *testing.T, method, url string, body []byte) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, url, bytes.NewBuffer(body))
}

// MockAuthService implements service.AuthService with overridable func fields.
type MockAuthService struct {
	MockLogin                func(email domain.Email, password domain.Password, remember bool) (service.LoginPayload, error)
	MockAuth                 func(tokenStr string) (domain.PublicUser, error)
	MockRefreshToken         func(tokenStr string) (service.LoginPayload, error)
	MockRegister             func(email domain.Email, password domain.Password) error
	MockActivateAccount      func(tokenStr string) error
	MockRequestPasswordReset func(email domain.Email) error
	MockResetPassword        func(tokenStr string, newPassword domain.Password) error
	MockVerifyToken          func(tokenStr string, purpose ...token.Purpose) error
	MockIsTokenBanned        func(tokenStr string) (bool, error)
	MockBanToken             func(tokenStr string) error
	MockBanUser              func(id domain.UserId) error
	MockUnbanUser            func(id domain.UserId) error
	MockActivateUser         func(id domain.UserId) error
	MockDeactivateUser       func(id domain.UserId) error
}

func (m *MockAuthService) Login(email domain.Email, password domain.Password, remember bool) (service.LoginPayload, error) {
	if m.MockLogin != nil {
		return m.MockLogin(email, password, remember)
	}
	return service.LoginPayload{}, nil
}

func (m *MockAuthService) Auth(tokenStr string) (domain.PublicUser, error) {
	if m.MockAuth != nil {
		return m.MockAuth(tokenStr)
	}
	return domain.PublicUser{}, nil
}

func (m *MockAuthService) RefreshToken(tokenStr string) (service.LoginPayload, error) {
	if m.MockRefreshToken != nil {
		return m.MockRefreshToken(tokenStr)
	}
	return service.LoginPayload{}, nil
}

func (m *MockAuthService) Register(email domain.Email, password domain.Password) error {
	if m.MockRegister != nil {
		return m.MockRegister(email, password)
	}
	return nil
}

func (m *MockAuthService) ActivateAccount(tokenStr string) error {
	if m.MockActivateAccount != nil {
		return m.MockActivateAccount(tokenStr)
	}
	return nil
}

func (m *MockAuthService) RequestPasswordReset(email domain.Email) error {
	if m.MockRequestPasswordReset != nil {
		return m.MockRequestPasswordReset(email)
	}
	return nil
}

func (m *MockAuthService) ResetPassword(tokenStr string, newPassword domain.Password) error {
	if m.MockResetPassword != nil {
		return m.MockResetPassword(tokenStr, newPassword)
	}
	return nil
}

func (m *MockAuthService) VerifyToken(tokenStr string, purpose ...token.Purpose) error {
	if m.MockVerifyToken != nil {
		return m.MockVerifyToken(tokenStr, purpose...)
	}
	return nil
}

func (m *MockAuthService) IsTokenBanned(tokenStr string) (bool, error) {
	if m.MockIsTokenBanned != nil {
		return m.MockIsTokenBanned(tokenStr)
	}
	return false, nil
}

func (m *MockAuthService) BanToken(tokenStr string) error {
	if m.MockBanToken != nil {
		return m.MockBanToken(tokenStr)
	}
	return nil
}

func (m *MockAuthService) BanUser(id domain.UserId) error {
	if m.MockBanUser != nil {
		return m.MockBanUser(id)
	}
	return nil
}

func (m *MockAuthService) UnbanUser(id domain.UserId) error {
	if m.MockUnbanUser != nil {
		return m.MockUnbanUser(id)
	}
	return nil
}

func (m *MockAuthService) ActivateUser(id domain.UserId) error {
	if m.MockActivateUser != nil {
		return m.MockActivateUser(id)
	}
	return nil
}

func (m *MockAuthService) DeactivateUser(id domain.UserId) error {
	if m.MockDeactivateUser != nil {
		return m.MockDeactivateUser(id)
	}
	return nil
}

func statusError(msg string, code int) error {
	return &internal_errors.ErrorWithStatusCode{Message: msg, StatusCode: code}
}

func TestWriteJSON(t *testing.T) {
	t.Run("valid json", func(t *testing.T) {
		rr := httptest.NewRecorder()

		writeJSON(rr, map[string]string{"message": "hello"})

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		assert.Equal(t, "{\"message\":\"hello\"}\n", rr.Body.String())
	})

	t.Run("unencodable value", func(t *testing.T) {
		rr := httptest.NewRecorder()

		writeJSON(rr, make(chan int))

		assert.Contains(t, rr.Body.String(), "Internal error")
	})
}
