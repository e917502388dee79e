package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Remote API
	APIBaseURL string
	APITimeout time.Duration

	// Midtrans Snap (client key is public by design)
	MidtransClientKey string

	// Session
	TokenRefreshInterval time.Duration
	TokenExpiryWarning   time.Duration

	// Checkout
	PollInterval    time.Duration
	HistoryCacheTTL time.Duration

	// Redis (optional response cache)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub (optional push payment notifications)
	PubNubSubscribeKey string
	PubNubChannel      string
	PubNubUserID       string

	// Logging
	LogLevel    string
	LogEncoding string

	// Monitoring
	EnableMetrics bool
}

func LoadConfig() *Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	return &Config{
		// Remote API
		APIBaseURL: getEnv("API_BASE_URL", "https://api.zatix.id"),
		APITimeout: getEnvAsDuration("API_TIMEOUT", "10s"),

		// Midtrans
		MidtransClientKey: getEnv("MIDTRANS_CLIENT_KEY", ""),

		// Session
		TokenRefreshInterval: getEnvAsDuration("TOKEN_REFRESH_INTERVAL", "10m"),
		TokenExpiryWarning:   getEnvAsDuration("TOKEN_EXPIRY_WARNING", "2m"),

		// Checkout
		PollInterval:    getEnvAsDuration("PAYMENT_POLL_INTERVAL", "10s"),
		HistoryCacheTTL: getEnvAsDuration("HISTORY_CACHE_TTL", "30s"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubChannel:      getEnv("PUBNUB_CHANNEL", "payment-notifications"),
		PubNubUserID:       getEnv("PUBNUB_USER_ID", "zatix-checkout"),

		// Logging
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogEncoding: getEnv("LOG_ENCODING", "console"),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
