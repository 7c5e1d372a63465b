package gateway

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/eleven-am/live-gateway/internal/apikey"
	"github.com/eleven-am/live-gateway/internal/shared"
	"github.com/labstack/echo/v4"
)

var (
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidAPIKey = errors.New("invalid api key")
)

type APIKeyValidator interface {
	Validate(ctx context.Context, secret string) (*apikey.APIKey, error)
}

// SessionVerifier checks the browser cookie session. Satisfied by
// user.SessionManager.
type SessionVerifier interface {
	Get(c echo.Context) (userID, csrfToken string, err error)
}

// Authenticator resolves who is calling: headless devices present an API
// key, browsers ride on the cookie session. Either store may be nil when
// that path is disabled.
type Authenticator struct {
	keys     APIKeyValidator
	sessions SessionVerifier
}

func NewAuthenticator(keys APIKeyValidator, sessions SessionVerifier) *Authenticator {
	return &Authenticator{keys: keys, sessions: sessions}
}

// Authenticate returns the owner of the request. An API key wins when one
// is presented, even if a cookie is also there; the returned key is nil
// for cookie callers.
func (a *Authenticator) Authenticate(c echo.Context) (string, *apikey.APIKey, error) {
	if secret := extractAPIKey(c.Request()); secret != "" {
		if a.keys == nil {
			return "", nil, ErrInvalidAPIKey
		}
		key, err := a.keys.Validate(c.Request().Context(), secret)
		if err != nil {
			return "", nil, ErrInvalidAPIKey
		}
		if !key.HasScope(shared.ScopeLive) {
			return "", nil, ErrInvalidAPIKey
		}
		return key.OwnerID, key, nil
	}

	if a.sessions != nil {
		if userID, _, err := a.sessions.Get(c); err == nil {
			return userID, nil, nil
		}
	}

	return "", nil, ErrUnauthorized
}

// extractAPIKey pulls the key from the Authorization header, the
// X-API-Key header, or the api_key query parameter, in that order. The
// query form exists for websocket dialers that cannot set headers.
func extractAPIKey(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
		return apiKey
	}

	return r.URL.Query().Get("api_key")
}
