package service

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/authd-dev/authd/internal/domain"
	"github.com/authd-dev/authd/internal/errors"
	"github.com/authd-dev/authd/internal/logger"
	"github.com/authd-dev/authd/internal/token"
)

type AuthService interface {
	Login(email domain.Email, password domain.Password, remember bool) (LoginPayload, error)
	Auth(tokenStr string) (domain.PublicUser, error)
	RefreshToken(tokenStr string) (LoginPayload, error)
	Register(email domain.Email, password domain.Password) error
	ActivateAccount(tokenStr string) error
	RequestPasswordReset(email domain.Email) error
	ResetPassword(tokenStr string, newPassword domain.Password) error
	VerifyToken(tokenStr string, purpose ...token.Purpose) error
	IsTokenBanned(tokenStr string) (bool, error)
	BanToken(tokenStr string) error

	// Administrative user moderation
	BanUser(id domain.UserId) error
	UnbanUser(id domain.UserId) error
	ActivateUser(id domain.UserId) error
	DeactivateUser(id domain.UserId) error
}

// LoginPayload is what a successful login or refresh yields. RefreshToken
// is empty unless the caller asked to be remembered (or is refreshing).
type LoginPayload struct {
	Token        string
	RefreshToken string
	User         domain.PublicUser
}

type UserDirectory interface {
	SaveUser(email domain.Email, passHash string) (domain.UserId, error)
	UserByEmail(email domain.Email, filter domain.LookupFilter) (domain.User, error)
	UserById(id domain.UserId, filter domain.LookupFilter) (domain.User, error)
	ActivateUser(id domain.UserId, at time.Time) error
	DeactivateUser(id domain.UserId) error
	BanUser(id domain.UserId, at time.Time) error
	UnbanUser(id domain.UserId) error
	UpdatePassword(id domain.UserId, passHash string) error
}

// RevocationStore is the denylist of administratively revoked tokens.
type RevocationStore interface {
	SaveBannedToken(tokenStr string) error
	IsTokenBanned(tokenStr string) (bool, error)
}

type Mailer interface {
	IsCorrect(email domain.Email) error
	SendActivation(recipientEmail domain.Email, tokenStr string) error
	SendPasswordReset(recipientEmail domain.Email, tokenStr string) error
}

// TokenEngine signs and verifies purpose-scoped tokens.
type TokenEngine interface {
	Sign(p token.Purpose, id domain.UserId) (string, error)
	Decode(tokenStr string, p token.Purpose) (token.Claims, error)
}

type Auth struct {
	users  UserDirectory
	banned RevocationStore
	mail   Mailer
	tokens TokenEngine
}

func NewAuth(users UserDirectory, banned RevocationStore, mail Mailer, tokens TokenEngine) *Auth {
	return &Auth{
		users:  users,
		banned: banned,
		mail:   mail,
		tokens: tokens,
	}
}

func invalidCredentials() error {
	return &errors.ErrorWithStatusCode{Message: "Invalid credentials", StatusCode: http.StatusForbidden}
}

// Login checks the credentials and issues an AUTH token, plus a REFRESH
// token when remember is set. An unknown email and a wrong password fail
// with the same error so callers can't probe which emails exist.
func (a *Auth) Login(email domain.Email, password domain.Password, remember bool) (LoginPayload, error) {
	email = strings.ToLower(email)

	if err := a.mail.IsCorrect(email); err != nil {
		return LoginPayload{}, err
	}

	user, err := a.users.UserByEmail(email, domain.ActiveUnbanned())
	if err != nil {
		if errors.IsNotFound(err) {
			return LoginPayload{}, invalidCredentials()
		}
		logger.Log.Error("login: user lookup failed", "error", err)
		return LoginPayload{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PassHash), []byte(password)); err != nil {
		logger.Log.Info("login: password verification failed", "user_id", user.Id)
		return LoginPayload{}, invalidCredentials()
	}

	return a.issueTokens(user, remember)
}

// Auth resolves the identity behind an AUTH token. Used by every
// authenticated request.
func (a *Auth) Auth(tokenStr string) (domain.PublicUser, error) {
	user, err := a.identify(tokenStr, token.PurposeAuth)
	if err != nil {
		return domain.PublicUser{}, err
	}
	return user.Public(), nil
}

// RefreshToken validates a REFRESH token the same way Auth validates an
// AUTH token (under the refresh key) and reissues a fresh pair.
func (a *Auth) RefreshToken(tokenStr string) (LoginPayload, error) {
	user, err := a.identify(tokenStr, token.PurposeRefresh)
	if err != nil {
		return LoginPayload{}, err
	}
	return a.issueTokens(user, true)
}

// identify decodes tokenStr under the given purpose's key and resolves the
// subject to an active, unbanned user.
func (a *Auth) identify(tokenStr string, p token.Purpose) (domain.User, error) {
	claims, err := a.tokens.Decode(tokenStr, p)
	if err != nil {
		return domain.User{}, err
	}

	user, err := a.users.UserById(claims.UserId, domain.ActiveUnbanned())
	if err != nil {
		if errors.IsNotFound(err) {
			// The token is genuine but its subject is gone, inactive or
			// banned. Indistinguishable from a bad token on the outside.
			logger.Log.Info("token subject not usable", "purpose", p, "user_id", claims.UserId)
			return domain.User{}, &errors.ErrorWithStatusCode{Message: "Invalid token", StatusCode: http.StatusForbidden}
		}
		logger.Log.Error("identify: user lookup failed", "purpose", p, "error", err)
		return domain.User{}, err
	}
	return user, nil
}

func (a *Auth) issueTokens(user domain.User, withRefresh bool) (LoginPayload, error) {
	authToken, err := a.tokens.Sign(token.PurposeAuth, user.Id)
	if err != nil {
		logger.Log.Error("failed to sign auth token", "user_id", user.Id, "error", err)
		return LoginPayload{}, err
	}

	payload := LoginPayload{Token: authToken, User: user.Public()}
	if withRefresh {
		refreshToken, err := a.tokens.Sign(token.PurposeRefresh, user.Id)
		if err != nil {
			logger.Log.Error("failed to sign refresh token", "user_id", user.Id, "error", err)
			return LoginPayload{}, err
		}
		payload.RefreshToken = refreshToken
	}
	return payload, nil
}

// Register creates an inactive account and emails an activation token.
// It does not log the user in; activation is a separate step.
func (a *Auth) Register(email domain.Email, password domain.Password) error {
	email = strings.ToLower(email)

	if err := a.mail.IsCorrect(email); err != nil {
		return err
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Error("register: failed to hash password", "error", err)
		return err
	}

	id, err := a.users.SaveUser(email, string(passHash))
	if err != nil {
		logger.Log.Info("register: failed to create user", "error", err)
		return err
	}

	activationToken, err := a.tokens.Sign(token.PurposeActivation, id)
	if err != nil {
		logger.Log.Error("register: failed to sign activation token", "user_id", id, "error", err)
		return err
	}

	if err := a.mail.SendActivation(email, activationToken); err != nil {
		logger.Log.Error("register: failed to send activation email", "user_id", id, "error", err)
		return err
	}
	return nil
}

// ActivateAccount redeems an ACTIVATION token and sets the activation
// timestamp. Re-activating an already active account is a no-op success.
func (a *Auth) ActivateAccount(tokenStr string) error {
	claims, err := a.tokens.Decode(tokenStr, token.PurposeActivation)
	if err != nil {
		return err
	}

	notBanned := false
	user, err := a.users.UserById(claims.UserId, domain.LookupFilter{Banned: &notBanned})
	if err != nil {
		if errors.IsNotFound(err) {
			return &errors.ErrorWithStatusCode{Message: "Invalid token", StatusCode: http.StatusForbidden}
		}
		logger.Log.Error("activate: user lookup failed", "user_id", claims.UserId, "error", err)
		return err
	}
	if user.Active() {
		return nil
	}

	if err := a.users.ActivateUser(user.Id, time.Now().UTC()); err != nil {
		logger.Log.Error("activate: failed to set activation timestamp", "user_id", user.Id, "error", err)
		return err
	}
	return nil
}

// RequestPasswordReset emails a RESET token. An unknown email is masked as
// success; the HTTP layer additionally answers 200 no matter what, so the
// endpoint never confirms whether an address is registered.
func (a *Auth) RequestPasswordReset(email domain.Email) error {
	email = strings.ToLower(email)

	if err := a.mail.IsCorrect(email); err != nil {
		return err
	}

	// Activation state is irrelevant here: an inactive user may still
	// need to recover the password they registered with.
	user, err := a.users.UserByEmail(email, domain.AnyState())
	if err != nil {
		if errors.IsNotFound(err) {
			logger.Log.Info("password reset requested for unknown email")
			return nil
		}
		logger.Log.Error("reset request: user lookup failed", "error", err)
		return err
	}

	resetToken, err := a.tokens.Sign(token.PurposeReset, user.Id)
	if err != nil {
		logger.Log.Error("reset request: failed to sign reset token", "user_id", user.Id, "error", err)
		return err
	}

	if err := a.mail.SendPasswordReset(email, resetToken); err != nil {
		logger.Log.Error("reset request: failed to send email", "user_id", user.Id, "error", err)
		return err
	}
	return nil
}

// ResetPassword redeems a RESET token and replaces the stored hash. The
// old password is not required.
func (a *Auth) ResetPassword(tokenStr string, newPassword domain.Password) error {
	claims, err := a.tokens.Decode(tokenStr, token.PurposeReset)
	if err != nil {
		return err
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Error("reset: failed to hash password", "error", err)
		return err
	}

	if err := a.users.UpdatePassword(claims.UserId, string(passHash)); err != nil {
		logger.Log.Error("reset: failed to update password", "user_id", claims.UserId, "error", err)
		return err
	}
	return nil
}

// VerifyToken checks signature and expiry. With a purpose it verifies under
// that single key; without one it tries every purpose and succeeds if any
// key accepts the token. Internal callers always pass an explicit purpose;
// the permissive form exists for the generic verification endpoint only.
func (a *Auth) VerifyToken(tokenStr string, purpose ...token.Purpose) error {
	if len(purpose) > 0 {
		_, err := a.tokens.Decode(tokenStr, purpose[0])
		return err
	}
	for _, p := range token.Purposes {
		if _, err := a.tokens.Decode(tokenStr, p); err == nil {
			return nil
		}
	}
	return &errors.ErrorWithStatusCode{Message: "Invalid token", StatusCode: http.StatusUnauthorized}
}

// IsTokenBanned is a pass-through to the revocation store.
func (a *Auth) IsTokenBanned(tokenStr string) (bool, error) {
	banned, err := a.banned.IsTokenBanned(tokenStr)
	if err != nil {
		logger.Log.Error("failed to check token ban status", "error", err)
		return false, err
	}
	return banned, nil
}

// BanToken records a token in the denylist. The token is rejected from now
// on regardless of its signature or expiry.
func (a *Auth) BanToken(tokenStr string) error {
	if err := a.banned.SaveBannedToken(tokenStr); err != nil {
		logger.Log.Error("failed to ban token", "error", err)
		return err
	}
	return nil
}

// BanUser marks an account as banned. Banned users fail every lookup made
// under a Banned=false filter, so their existing tokens stop resolving.
func (a *Auth) BanUser(id domain.UserId) error {
	return a.users.BanUser(id, time.Now().UTC())
}

func (a *Auth) UnbanUser(id domain.UserId) error {
	return a.users.UnbanUser(id)
}

// ActivateUser activates an account directly, skipping the email flow.
func (a *Auth) ActivateUser(id domain.UserId) error {
	return a.users.ActivateUser(id, time.Now().UTC())
}

// DeactivateUser clears the activation timestamp, forcing the account
// through the activation flow again before it can log in.
func (a *Auth) DeactivateUser(id domain.UserId) error {
	return a.users.DeactivateUser(id)
}
