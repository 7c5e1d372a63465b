package user

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/eleven-am/live-gateway/internal/dto"
	"github.com/eleven-am/live-gateway/internal/shared"
	"github.com/labstack/echo/v4"
)

const oauthStateCookieName = "oauth_state"

type Handler struct {
	store    *Store
	google   Provider
	github   Provider
	sessions *SessionManager
	schemes  map[string]struct{}
	logger   *slog.Logger
}

// NewHandler builds the auth handler. schemes lists custom URL schemes
// (e.g. app deep links) accepted as post-login redirect targets.
func NewHandler(store *Store, google, github Provider, sessions *SessionManager, schemes []string, logger *slog.Logger) *Handler {
	allowed := make(map[string]struct{}, len(schemes))
	for _, scheme := range schemes {
		scheme = strings.ToLower(strings.TrimSpace(scheme))
		if scheme != "" {
			allowed[scheme] = struct{}{}
		}
	}

	return &Handler{
		store:    store,
		google:   google,
		github:   github,
		sessions: sessions,
		schemes:  allowed,
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/google", h.GoogleLogin)
	g.GET("/google/callback", h.GoogleCallback)
	g.GET("/github", h.GitHubLogin)
	g.GET("/github/callback", h.GitHubCallback)
	g.GET("/me", h.Me)
	g.POST("/me/developer", h.BecomeDeveloper)
	g.POST("/logout", h.Logout)
}

// @Summary      Start Google login
// @Description  Redirects to Google's consent screen. Accepts an optional redirect_uri query parameter honored after the callback.
// @Tags         auth
// @Param        redirect_uri  query  string  false  "Post-login redirect target"
// @Success      307  "Redirect to provider"
// @Failure      500  {object}  shared.APIError
// @Router       /auth/google [get]
func (h *Handler) GoogleLogin(c echo.Context) error {
	return h.handleLogin(c, h.google)
}

// @Summary      Google login callback
// @Description  Exchanges the authorization code, creates the user session and redirects to the requested target.
// @Tags         auth
// @Param        state  query  string  true   "Signed OAuth state"
// @Param        code   query  string  false  "Authorization code"
// @Success      307  "Redirect to application"
// @Failure      400  {object}  shared.APIError
// @Failure      500  {object}  shared.APIError
// @Router       /auth/google/callback [get]
func (h *Handler) GoogleCallback(c echo.Context) error {
	return h.handleCallback(c, h.google)
}

// @Summary      Start GitHub login
// @Description  Redirects to GitHub's consent screen. Accepts an optional redirect_uri query parameter honored after the callback.
// @Tags         auth
// @Param        redirect_uri  query  string  false  "Post-login redirect target"
// @Success      307  "Redirect to provider"
// @Failure      500  {object}  shared.APIError
// @Router       /auth/github [get]
func (h *Handler) GitHubLogin(c echo.Context) error {
	return h.handleLogin(c, h.github)
}

// @Summary      GitHub login callback
// @Description  Exchanges the authorization code, creates the user session and redirects to the requested target.
// @Tags         auth
// @Param        state  query  string  true   "Signed OAuth state"
// @Param        code   query  string  false  "Authorization code"
// @Success      307  "Redirect to application"
// @Failure      400  {object}  shared.APIError
// @Failure      500  {object}  shared.APIError
// @Router       /auth/github/callback [get]
func (h *Handler) GitHubCallback(c echo.Context) error {
	return h.handleCallback(c, h.github)
}

func (h *Handler) handleLogin(c echo.Context, provider Provider) error {
	if provider == nil {
		return shared.InternalError("provider_not_configured", "oauth provider not configured")
	}

	redirect := h.sanitizeRedirectURI(c.QueryParam("redirect_uri"))
	state := h.sessions.GenerateOAuthState(redirect)

	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookieName,
		Value:    state,
		Path:     "/",
		Domain:   h.sessions.domain,
		MaxAge:   600,
		HttpOnly: true,
		Secure:   h.sessions.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return c.Redirect(http.StatusTemporaryRedirect, provider.AuthURL(state))
}

func (h *Handler) handleCallback(c echo.Context, provider Provider) error {
	if provider == nil {
		return shared.InternalError("provider_not_configured", "oauth provider not configured")
	}

	stateCookie, err := c.Cookie(oauthStateCookieName)
	if err != nil || stateCookie.Value == "" {
		return shared.BadRequest("missing_state", "oauth state cookie missing")
	}

	state := c.QueryParam("state")
	if state == "" || state != stateCookie.Value {
		return shared.BadRequest("state_mismatch", "oauth state does not match")
	}

	if _, err := h.sessions.VerifyValue(state); err != nil {
		return shared.BadRequest("invalid_state", "oauth state signature invalid")
	}

	if oauthErr := c.QueryParam("error"); oauthErr != "" {
		return shared.BadRequest("oauth_denied", "provider returned error: "+oauthErr)
	}

	code := c.QueryParam("code")
	if code == "" {
		return shared.BadRequest("missing_code", "authorization code missing")
	}

	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.sessions.domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.sessions.secure,
		SameSite: http.SameSiteLaxMode,
	})

	pu, err := provider.Exchange(c.Request().Context(), code)
	if err != nil {
		h.logger.Error("oauth exchange failed", "error", err, "provider", provider.Name())
		return shared.InternalError("exchange_failed", "failed to exchange authorization code")
	}

	u, err := h.store.FindOrCreate(c.Request().Context(), provider.Name(), pu.Sub, pu.Email, pu.Name, pu.AvatarURL)
	if err != nil {
		h.logger.Error("failed to upsert user", "error", err, "provider", provider.Name())
		return shared.InternalError("user_upsert_failed", "failed to create user")
	}

	h.sessions.Create(c, u.ID)

	target := h.sanitizeRedirectURI(h.sessions.ExtractRedirectURI(state))
	if target == "" {
		target = "/"
	}

	return c.Redirect(http.StatusTemporaryRedirect, target)
}

// sanitizeRedirectURI accepts relative paths, https URLs, http URLs on
// localhost and custom schemes from the configured allow list. Anything
// else collapses to the empty string.
func (h *Handler) sanitizeRedirectURI(uri string) string {
	if uri == "" {
		return ""
	}

	if strings.HasPrefix(uri, "/") && !strings.HasPrefix(uri, "//") {
		return uri
	}

	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}

	switch u.Scheme {
	case "https":
		return uri
	case "http":
		if u.Hostname() == "localhost" || u.Hostname() == "127.0.0.1" {
			return uri
		}
		return ""
	default:
		if _, ok := h.schemes[u.Scheme]; ok {
			return uri
		}
		return ""
	}
}

// @Summary      Get current user
// @Description  Returns the authenticated user's profile
// @Tags         auth
// @Produce      json
// @Success      200  {object}  dto.MeResponse
// @Failure      401  {object}  shared.APIError
// @Failure      403  {object}  shared.APIError
// @Failure      404  {object}  shared.APIError
// @Router       /auth/me [get]
func (h *Handler) Me(c echo.Context) error {
	userID, csrf, err := h.sessions.Get(c)
	if err != nil {
		return shared.Unauthorized("auth_required", "authentication required")
	}

	if err := h.sessions.RequireCSRF(c, csrf); err != nil {
		return err
	}

	u, err := h.store.GetByID(c.Request().Context(), userID)
	if err != nil {
		return shared.NotFound("user_not_found", "user not found")
	}

	return c.JSON(http.StatusOK, dto.MeResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		AvatarURL:   u.AvatarURL,
		IsDeveloper: u.IsDeveloper,
	})
}

// @Summary      Become a developer
// @Description  Upgrades the current user to developer status, unlocking API key management
// @Tags         auth
// @Success      204  "No Content"
// @Failure      401  {object}  shared.APIError
// @Failure      403  {object}  shared.APIError
// @Failure      404  {object}  shared.APIError
// @Failure      500  {object}  shared.APIError
// @Router       /auth/me/developer [post]
func (h *Handler) BecomeDeveloper(c echo.Context) error {
	userID, csrf, err := h.sessions.Get(c)
	if err != nil {
		return shared.Unauthorized("auth_required", "authentication required")
	}

	if err := h.sessions.RequireCSRF(c, csrf); err != nil {
		return err
	}

	if err := h.store.SetDeveloper(c.Request().Context(), userID, true); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("user_not_found", "user not found")
		}
		h.logger.Error("failed to set developer status", "error", err, "user_id", userID)
		return shared.InternalError("update_failed", "failed to update user")
	}

	return c.NoContent(http.StatusNoContent)
}

// @Summary      Log out
// @Description  Clears the session and CSRF cookies
// @Tags         auth
// @Success      204  "No Content"
// @Failure      401  {object}  shared.APIError
// @Failure      403  {object}  shared.APIError
// @Router       /auth/logout [post]
func (h *Handler) Logout(c echo.Context) error {
	_, csrf, err := h.sessions.Get(c)
	if err != nil {
		return shared.Unauthorized("auth_required", "authentication required")
	}

	if err := h.sessions.RequireCSRF(c, csrf); err != nil {
		return err
	}

	h.sessions.Clear(c)
	return c.NoContent(http.StatusNoContent)
}
