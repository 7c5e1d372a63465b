package bootstrap

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ServerAddr string
	LogLevel   string

	HMACKey        []byte
	CookieSecure   bool
	CookieDomain   string
	AllowedSchemes []string

	LiveEndpoint        string
	LiveAPIKey          string
	LiveModel           string
	LiveBackoffInitial  time.Duration
	LiveBackoffMaxDelay time.Duration
	LiveMaxAttempts     int
	LiveHealthInterval  time.Duration
	LiveSilenceFactor   int
	LiveLogCapacity     int

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	GitHubClientID     string
	GitHubClientSecret string
	GitHubRedirectURL  string

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	QdrantHost   string
	QdrantPort   int
	QdrantAPIKey string
}

func LoadConfig() *Config {
	return &Config{
		ServerAddr: getEnv("SERVER_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		HMACKey:        []byte(getEnv("HMAC_KEY", "change-me-in-production")),
		CookieSecure:   getEnv("COOKIE_SECURE", "false") == "true",
		CookieDomain:   getEnv("COOKIE_DOMAIN", ""),
		AllowedSchemes: splitList(getEnv("ALLOWED_SCHEMES", "")),

		LiveEndpoint:        getEnv("LIVE_ENDPOINT", ""),
		LiveAPIKey:          getEnv("LIVE_API_KEY", ""),
		LiveModel:           getEnv("LIVE_MODEL", ""),
		LiveBackoffInitial:  getEnvDuration("LIVE_BACKOFF_INITIAL", time.Second),
		LiveBackoffMaxDelay: getEnvDuration("LIVE_BACKOFF_MAX_DELAY", 30*time.Second),
		LiveMaxAttempts:     getEnvInt("LIVE_MAX_ATTEMPTS", 3),
		LiveHealthInterval:  getEnvDuration("LIVE_HEALTH_INTERVAL", 10*time.Second),
		LiveSilenceFactor:   getEnvInt("LIVE_SILENCE_FACTOR", 3),
		LiveLogCapacity:     getEnvInt("LIVE_LOG_CAPACITY", 256),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),

		GitHubClientID:     getEnv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
		GitHubRedirectURL:  getEnv("GITHUB_REDIRECT_URL", ""),

		DatabaseDSN: getEnv("DATABASE_DSN", ""),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       0,

		QdrantHost:   getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:   6334,
		QdrantAPIKey: getEnv("QDRANT_API_KEY", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}
