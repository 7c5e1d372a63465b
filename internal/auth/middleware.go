package auth

import (
	"context"

	"github.com/eleven-am/live-gateway/internal/shared"
	"github.com/labstack/echo/v4"
)

type contextKey string

const claimsKey contextKey = "session_claims"

// SessionVerifier decodes the signed browser session cookie.
// *user.SessionManager satisfies this.
type SessionVerifier interface {
	Get(c echo.Context) (userID, csrf string, err error)
}

type Middleware struct {
	sessions SessionVerifier
}

func NewMiddleware(sessions SessionVerifier) *Middleware {
	return &Middleware{sessions: sessions}
}

func (m *Middleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, _, err := m.sessions.Get(c)
		if err != nil || userID == "" {
			return shared.Unauthorized("auth_required", "authentication required")
		}

		ctx := context.WithValue(c.Request().Context(), claimsKey, &Claims{UserID: userID})
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}

func (m *Middleware) OptionalAuthenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, _, err := m.sessions.Get(c)
		if err != nil || userID == "" {
			return next(c)
		}

		ctx := context.WithValue(c.Request().Context(), claimsKey, &Claims{UserID: userID})
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}

func GetClaims(c echo.Context) *Claims {
	claims, ok := c.Request().Context().Value(claimsKey).(*Claims)
	if !ok {
		return nil
	}
	return claims
}

func RequireAuth(c echo.Context) (string, error) {
	claims := GetClaims(c)
	if claims == nil {
		return "", shared.Unauthorized("auth_required", "authentication required")
	}
	return claims.UserID, nil
}

func MiddlewareFunc(sessions SessionVerifier) echo.MiddlewareFunc {
	m := NewMiddleware(sessions)
	return m.Authenticate
}

func OptionalMiddlewareFunc(sessions SessionVerifier) echo.MiddlewareFunc {
	m := NewMiddleware(sessions)
	return m.OptionalAuthenticate
}

func SetClaimsForTest(c echo.Context, claims *Claims) {
	ctx := context.WithValue(c.Request().Context(), claimsKey, claims)
	c.SetRequest(c.Request().WithContext(ctx))
}
