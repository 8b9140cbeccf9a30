package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

// Config holds runtime configuration values for the Pressroom server.
type Config struct {
	DBPath           string
	ServerPort       int
	LogLevel         string
	SentryDSN        string
	Environment      string
	WebhookSecret    string
	RevalidateURL    string
	NotifyWebhookURL string
	ShutdownGrace    time.Duration
	RateLimit        RateLimitConfig
}

// RateLimitConfig controls the per-client token bucket limiter.
type RateLimitConfig struct {
	Burst             int
	RequestsPerSecond float64
	ClientTTL         time.Duration
}

const (
	defaultDBPath             = "./data/pressroom.db"
	defaultServerPort         = 8080
	defaultLogLevel           = "info"
	defaultEnvironment        = "development"
	defaultShutdownGrace      = 10 * time.Second
	defaultRateLimitBurst     = 20
	defaultRateLimitPerSec    = 10.0
	defaultRateLimitClientTTL = 5 * time.Minute
)

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:           getEnv("DB_PATH", defaultDBPath),
		LogLevel:         getEnv("LOG_LEVEL", defaultLogLevel),
		SentryDSN:        os.Getenv("SENTRY_DSN"),
		Environment:      getEnv("ENV", defaultEnvironment),
		WebhookSecret:    os.Getenv("WEBHOOK_SECRET"),
		RevalidateURL:    os.Getenv("REVALIDATE_URL"),
		NotifyWebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),
		ShutdownGrace:    defaultShutdownGrace,
	}

	portValue := getEnv("SERVER_PORT", strconv.Itoa(defaultServerPort))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid SERVER_PORT value: %s", portValue)
	}
	cfg.ServerPort = port

	rateLimit, err := loadRateLimit()
	if err != nil {
		return nil, err
	}
	cfg.RateLimit = rateLimit

	return cfg, nil
}

func loadRateLimit() (RateLimitConfig, error) {
	limit := RateLimitConfig{
		Burst:             defaultRateLimitBurst,
		RequestsPerSecond: defaultRateLimitPerSec,
		ClientTTL:         defaultRateLimitClientTTL,
	}

	if raw := os.Getenv("RATE_LIMIT_BURST"); raw != "" {
		burst, err := strconv.Atoi(raw)
		if err != nil {
			return RateLimitConfig{}, eris.Wrapf(err, "invalid RATE_LIMIT_BURST value: %s", raw)
		}
		limit.Burst = burst
	}

	if raw := os.Getenv("RATE_LIMIT_PER_SECOND"); raw != "" {
		perSecond, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return RateLimitConfig{}, eris.Wrapf(err, "invalid RATE_LIMIT_PER_SECOND value: %s", raw)
		}
		limit.RequestsPerSecond = perSecond
	}

	if raw := os.Getenv("RATE_LIMIT_CLIENT_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return RateLimitConfig{}, eris.Wrapf(err, "invalid RATE_LIMIT_CLIENT_TTL value: %s", raw)
		}
		limit.ClientTTL = ttl
	}

	return limit, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
