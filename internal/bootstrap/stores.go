package bootstrap

import (
	"github.com/eleven-am/live-gateway/internal/apikey"
	"github.com/eleven-am/live-gateway/internal/session"
	"github.com/eleven-am/live-gateway/internal/transcript"
	"github.com/eleven-am/live-gateway/internal/user"
	"github.com/qdrant/go-client/qdrant"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

func ProvideUserStore(db *gorm.DB) *user.Store {
	return user.NewStore(db)
}

func ProvideAPIKeyStore(db *gorm.DB) *apikey.Store {
	return apikey.NewStore(db)
}

func ProvideTranscriptStore(db *gorm.DB, qdrantClient *qdrant.Client) *transcript.Store {
	return transcript.NewStore(db, qdrantClient)
}

func ProvideSessionStore(redisClient *redis.Client) *session.Store {
	return session.NewStore(redisClient)
}

func RunMigrations(userStore *user.Store, apiKeyStore *apikey.Store, transcriptStore *transcript.Store) error {
	if err := userStore.Migrate(); err != nil {
		return err
	}
	if err := apiKeyStore.Migrate(); err != nil {
		return err
	}
	return transcriptStore.Migrate()
}

var StoresModule = fx.Options(
	fx.Provide(
		ProvideUserStore,
		ProvideAPIKeyStore,
		ProvideTranscriptStore,
		ProvideSessionStore,
	),
	fx.Invoke(RunMigrations),
)
