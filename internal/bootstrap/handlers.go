package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/eleven-am/live-gateway/docs"
	"github.com/eleven-am/live-gateway/internal/apikey"
	"github.com/eleven-am/live-gateway/internal/auth"
	"github.com/eleven-am/live-gateway/internal/session"
	"github.com/eleven-am/live-gateway/internal/transcript"
	"github.com/eleven-am/live-gateway/internal/user"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/fx"
)

type noopEmbeddingService struct{}

func (n *noopEmbeddingService) Generate(ctx context.Context, text string) ([]float32, error) {
	return make([]float32, 384), nil
}

func ProvideEmbeddingService() transcript.EmbeddingService {
	return &noopEmbeddingService{}
}

type HandlerParams struct {
	fx.In

	UserHandler       *user.Handler
	APIKeyHandler     *apikey.Handler
	SessionHandler    *session.Handler
	TranscriptHandler *transcript.Handler
	AuthMiddleware    *auth.Middleware
}

func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	api := e.Group("/v1")

	params.UserHandler.RegisterRoutes(api.Group("/auth"))

	params.APIKeyHandler.RegisterRoutes(api.Group("/apikeys"))

	metricsGroup := api.Group("/metrics")
	metricsGroup.Use(params.AuthMiddleware.Authenticate)
	params.SessionHandler.RegisterRoutes(metricsGroup)

	transcriptsGroup := api.Group("/transcripts")
	transcriptsGroup.Use(params.AuthMiddleware.Authenticate)
	params.TranscriptHandler.RegisterRoutes(transcriptsGroup)

	e.GET("/swagger/*", echoSwagger.EchoWrapHandler())
	e.GET("/asyncapi.yaml", func(c echo.Context) error {
		return c.Blob(http.StatusOK, "application/yaml", docs.AsyncAPISpec)
	})
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ProvideLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
}

func ProvideSessionManager(cfg *Config) *user.SessionManager {
	return user.NewSessionManager(cfg.HMACKey, cfg.CookieSecure, cfg.CookieDomain)
}

func ProvideAuthMiddleware(sessions *user.SessionManager) *auth.Middleware {
	return auth.NewMiddleware(sessions)
}

func ProvideUserHandler(store *user.Store, cfg *Config, sessions *user.SessionManager, logger *slog.Logger) *user.Handler {
	google := user.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)
	github := user.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubRedirectURL)
	return user.NewHandler(store, google, github, sessions, cfg.AllowedSchemes, logger.With("handler", "user"))
}

func ProvideAPIKeyHandler(store *apikey.Store, userStore *user.Store, sessions *user.SessionManager, logger *slog.Logger) *apikey.Handler {
	return apikey.NewHandler(store, userStore, sessions, logger.With("handler", "apikey"))
}

func ProvideSessionHandler(store *session.Store, userStore *user.Store, logger *slog.Logger) *session.Handler {
	return session.NewHandler(store, userStore, logger.With("handler", "session"))
}

func ProvideTranscriptHandler(store *transcript.Store, embeddings transcript.EmbeddingService, logger *slog.Logger) *transcript.Handler {
	return transcript.NewHandler(store, embeddings, logger.With("handler", "transcript"))
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideLogger,
		ProvideSessionManager,
		ProvideAuthMiddleware,
		ProvideEmbeddingService,
		ProvideUserHandler,
		ProvideAPIKeyHandler,
		ProvideSessionHandler,
		ProvideTranscriptHandler,
	),
	fx.Invoke(RegisterRoutes),
)
