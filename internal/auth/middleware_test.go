package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type stubVerifier struct {
	userID string
	err    error
}

func (s *stubVerifier) Get(echo.Context) (string, string, error) {
	return s.userID, "csrf", s.err
}

func newContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthenticate_SetsClaims(t *testing.T) {
	m := NewMiddleware(&stubVerifier{userID: "user_123"})
	c, _ := newContext()

	var got *Claims
	err := m.Authenticate(func(c echo.Context) error {
		got = GetClaims(c)
		return nil
	})(c)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected claims to be set")
	}
	if got.UserID != "user_123" {
		t.Errorf("UserID = %q, want %q", got.UserID, "user_123")
	}
}

func TestAuthenticate_RejectsInvalidSession(t *testing.T) {
	m := NewMiddleware(&stubVerifier{err: errors.New("no cookie")})
	c, _ := newContext()

	err := m.Authenticate(func(c echo.Context) error {
		t.Fatal("handler should not run")
		return nil
	})(c)

	if err == nil {
		t.Fatal("expected error when session is invalid")
	}
	httpErr := err.(*echo.HTTPError)
	if httpErr.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", httpErr.Code, http.StatusUnauthorized)
	}
}

func TestAuthenticate_RejectsEmptyUserID(t *testing.T) {
	m := NewMiddleware(&stubVerifier{userID: ""})
	c, _ := newContext()

	err := m.Authenticate(func(c echo.Context) error {
		return nil
	})(c)

	if err == nil {
		t.Fatal("expected error when user id is empty")
	}
}

func TestOptionalAuthenticate_ContinuesWithoutSession(t *testing.T) {
	m := NewMiddleware(&stubVerifier{err: errors.New("no cookie")})
	c, _ := newContext()

	called := false
	err := m.OptionalAuthenticate(func(c echo.Context) error {
		called = true
		if GetClaims(c) != nil {
			t.Error("expected no claims without a session")
		}
		return nil
	})(c)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected handler to run")
	}
}

func TestOptionalAuthenticate_SetsClaimsWhenPresent(t *testing.T) {
	m := NewMiddleware(&stubVerifier{userID: "user_456"})
	c, _ := newContext()

	err := m.OptionalAuthenticate(func(c echo.Context) error {
		claims := GetClaims(c)
		if claims == nil || claims.UserID != "user_456" {
			t.Errorf("claims = %+v, want UserID user_456", claims)
		}
		return nil
	})(c)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequireAuth(t *testing.T) {
	c, _ := newContext()

	if _, err := RequireAuth(c); err == nil {
		t.Error("expected error without claims")
	}

	SetClaimsForTest(c, &Claims{UserID: "user_789"})
	userID, err := RequireAuth(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != "user_789" {
		t.Errorf("userID = %q, want %q", userID, "user_789")
	}
}

func TestGetClaims_NoClaims(t *testing.T) {
	c, _ := newContext()
	if GetClaims(c) != nil {
		t.Error("expected nil claims on fresh context")
	}
}
