package bootstrap

import (
	"context"
	"log/slog"

	"github.com/eleven-am/live-gateway/internal/apikey"
	"github.com/eleven-am/live-gateway/internal/audio"
	"github.com/eleven-am/live-gateway/internal/gateway"
	"github.com/eleven-am/live-gateway/internal/live"
	"github.com/eleven-am/live-gateway/internal/session"
	"github.com/eleven-am/live-gateway/internal/shared"
	"github.com/eleven-am/live-gateway/internal/transcript"
	"github.com/eleven-am/live-gateway/internal/user"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// ProvideLiveConfig maps service configuration onto the upstream channel
// knobs. Zero values fall through to the live package defaults.
func ProvideLiveConfig(cfg *Config) live.Config {
	return live.Config{
		Endpoint: cfg.LiveEndpoint,
		APIKey:   cfg.LiveAPIKey,
		Model:    cfg.LiveModel,
		Backoff: shared.BackoffConfig{
			Initial:     cfg.LiveBackoffInitial,
			MaxAttempts: cfg.LiveMaxAttempts,
			MaxDelay:    cfg.LiveBackoffMaxDelay,
		},
		HealthInterval: cfg.LiveHealthInterval,
		SilenceFactor:  cfg.LiveSilenceFactor,
		LogCapacity:    cfg.LiveLogCapacity,
	}
}

func ProvideHub(lc fx.Lifecycle, redisClient *redis.Client, logger *slog.Logger) *gateway.Hub {
	hub := gateway.NewHub(redisClient, logger)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return hub.Close()
		},
	})
	return hub
}

func ProvideGatewayAuthenticator(keys *apikey.Store, sessions *user.SessionManager) *gateway.Authenticator {
	return gateway.NewAuthenticator(keys, sessions)
}

func ProvideGatewayHandler(
	hub *gateway.Hub,
	store *session.Store,
	transcripts *transcript.Store,
	embeddings transcript.EmbeddingService,
	upstream live.Config,
	logger *slog.Logger,
) *gateway.Handler {
	return gateway.NewHandler(hub, store, transcripts, embeddings, upstream, logger)
}

func ProvideAudioHandler(apikeyStore *apikey.Store, logger *slog.Logger) *audio.Handler {
	return audio.NewHandler(apikeyStore, logger)
}

type LiveRouteParams struct {
	fx.In

	GatewayHandler *gateway.Handler
	AudioHandler   *audio.Handler
	Authenticator  *gateway.Authenticator
}

func RegisterLiveRoutes(e *echo.Echo, params LiveRouteParams) {
	liveGroup := e.Group("/v1/live")
	liveGroup.Use(gateway.Authenticate(params.Authenticator))
	liveGroup.Use(gateway.RateLimiter(gateway.DefaultRateLimiterConfig()))
	params.GatewayHandler.RegisterRoutes(liveGroup)

	params.AudioHandler.RegisterRoutes(e.Group("/v1/audio"))
}

var LiveModule = fx.Options(
	fx.Provide(
		ProvideLiveConfig,
		ProvideHub,
		ProvideGatewayAuthenticator,
		ProvideGatewayHandler,
		ProvideAudioHandler,
	),
	fx.Invoke(RegisterLiveRoutes),
)
