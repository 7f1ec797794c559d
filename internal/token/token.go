package token

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/authd-dev/authd/internal/domain"
	internal_errors "github.com/authd-dev/authd/internal/errors"
	"github.com/authd-dev/authd/internal/logger"
)

// Purpose is the functional class a token serves. Every purpose signs with
// its own key and its own TTL, so a token of one class can never verify as
// another: the signature check fails before any claim is even looked at.
type Purpose string

const (
	PurposeAuth       Purpose = "auth"
	PurposeRefresh    Purpose = "refresh"
	PurposeActivation Purpose = "activation"
	PurposeReset      Purpose = "reset"
)

// Purposes lists every token class, in the order they are tried when a
// caller asks for verification without naming a purpose.
var Purposes = []Purpose{PurposeAuth, PurposeRefresh, PurposeActivation, PurposeReset}

// subjectClaim returns the purpose-specific claim name carrying the user id.
// Distinct claim names are a second line of defense behind key separation:
// even under an identical key a claim of one shape can't decode as another.
func (p Purpose) subjectClaim() string {
	return string(p) + "_user_id"
}

func (p Purpose) valid() bool {
	switch p {
	case PurposeAuth, PurposeRefresh, PurposeActivation, PurposeReset:
		return true
	}
	return false
}

const purposeClaim = "purpose"

// Claims is the verified content of a token. Decode either fills all fields
// or fails; there are no partial results.
type Claims struct {
	UserId    domain.UserId
	Purpose   Purpose
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Engine signs and verifies purpose-scoped HS256 tokens.
type Engine struct {
	keys map[Purpose][]byte
	ttls map[Purpose]time.Duration
}

// Keys maps each purpose to its signing key.
type Keys struct {
	Auth       string
	Refresh    string
	Activation string
	Reset      string
}

// TTLs maps each purpose to its expiry duration.
type TTLs struct {
	Auth       time.Duration
	Refresh    time.Duration
	Activation time.Duration
	Reset      time.Duration
}

func NewEngine(keys Keys, ttls TTLs) *Engine {
	return &Engine{
		keys: map[Purpose][]byte{
			PurposeAuth:       []byte(keys.Auth),
			PurposeRefresh:    []byte(keys.Refresh),
			PurposeActivation: []byte(keys.Activation),
			PurposeReset:      []byte(keys.Reset),
		},
		ttls: map[Purpose]time.Duration{
			PurposeAuth:       ttls.Auth,
			PurposeRefresh:    ttls.Refresh,
			PurposeActivation: ttls.Activation,
			PurposeReset:      ttls.Reset,
		},
	}
}

// Sign issues a token of the given purpose for userId. The payload is the
// purpose tag plus a single purpose-named subject claim.
func (e *Engine) Sign(p Purpose, userId domain.UserId) (string, error) {
	if !p.valid() {
		return "", &internal_errors.ErrorWithStatusCode{Message: fmt.Sprintf("unknown token purpose %q", p), StatusCode: http.StatusInternalServerError}
	}

	now := time.Now()
	claims := jwt.MapClaims{
		purposeClaim:     string(p),
		p.subjectClaim(): userId,
		"iat":            now.Unix(),
		"exp":            now.Add(e.ttls[p]).Unix(),
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(e.keys[p])
	if err != nil || tokenString == "" {
		logger.Log.Error("failed to sign token", "purpose", p, "error", err)
		return "", &internal_errors.ErrorWithStatusCode{Message: "Can't create token", StatusCode: http.StatusInternalServerError}
	}
	return tokenString, nil
}

// Decode verifies tokenStr under the given purpose's key and returns its
// claims. Verification is all-or-nothing: a bad signature, the wrong
// signing method, an expired token, a mismatched purpose tag or a missing
// subject claim all yield the same 401-class error.
func (e *Engine) Decode(tokenStr string, p Purpose) (Claims, error) {
	if !p.valid() {
		return Claims{}, &internal_errors.ErrorWithStatusCode{Message: fmt.Sprintf("unknown token purpose %q", p), StatusCode: http.StatusInternalServerError}
	}

	parsed, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return e.keys[p], nil
	})
	if err != nil {
		logger.Log.Debug("token verification failed", "purpose", p, "error", err)
		return Claims{}, invalidToken()
	}
	if !parsed.Valid {
		return Claims{}, invalidToken()
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, invalidToken()
	}

	// The purpose tag and the purpose-named subject claim must both match.
	// Key separation already rejects cross-purpose tokens; this catches the
	// pathological case of two purposes configured with the same key.
	if tag, _ := mapClaims[purposeClaim].(string); tag != string(p) {
		logger.Log.Debug("token purpose mismatch", "want", p, "got", tag)
		return Claims{}, invalidToken()
	}
	subject, ok := mapClaims[p.subjectClaim()].(float64)
	if !ok {
		return Claims{}, invalidToken()
	}

	issuedAt, err := mapClaims.GetIssuedAt()
	if err != nil || issuedAt == nil {
		return Claims{}, invalidToken()
	}
	expiresAt, err := mapClaims.GetExpirationTime()
	if err != nil || expiresAt == nil {
		return Claims{}, invalidToken()
	}

	return Claims{
		UserId:    domain.UserId(subject),
		Purpose:   p,
		IssuedAt:  issuedAt.Time,
		ExpiresAt: expiresAt.Time,
	}, nil
}

func invalidToken() error {
	return &internal_errors.ErrorWithStatusCode{Message: "Invalid token", StatusCode: http.StatusUnauthorized}
}
