package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_PATH", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("SENTRY_DSN", "")
	t.Setenv("ENV", "")
	t.Setenv("WEBHOOK_SECRET", "")
	t.Setenv("REVALIDATE_URL", "")
	t.Setenv("NOTIFY_WEBHOOK_URL", "")
	t.Setenv("RATE_LIMIT_BURST", "")
	t.Setenv("RATE_LIMIT_PER_SECOND", "")
	t.Setenv("RATE_LIMIT_CLIENT_TTL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.DBPath != defaultDBPath {
		t.Errorf("expected default DB path %q, got %q", defaultDBPath, cfg.DBPath)
	}

	if cfg.ServerPort != defaultServerPort {
		t.Errorf("expected default server port %d, got %d", defaultServerPort, cfg.ServerPort)
	}

	if cfg.LogLevel != defaultLogLevel {
		t.Errorf("expected default log level %q, got %q", defaultLogLevel, cfg.LogLevel)
	}

	if cfg.Environment != defaultEnvironment {
		t.Errorf("expected default environment %q, got %q", defaultEnvironment, cfg.Environment)
	}

	if cfg.ShutdownGrace != defaultShutdownGrace {
		t.Errorf("expected shutdown grace %s, got %s", defaultShutdownGrace, cfg.ShutdownGrace)
	}

	if cfg.WebhookSecret != "" {
		t.Errorf("expected empty webhook secret, got %q", cfg.WebhookSecret)
	}

	if cfg.RevalidateURL != "" {
		t.Errorf("expected empty revalidate URL, got %q", cfg.RevalidateURL)
	}

	if cfg.RateLimit.Burst != defaultRateLimitBurst {
		t.Errorf("expected default burst %d, got %d", defaultRateLimitBurst, cfg.RateLimit.Burst)
	}

	if cfg.RateLimit.RequestsPerSecond != defaultRateLimitPerSec {
		t.Errorf("expected default rate %v, got %v", defaultRateLimitPerSec, cfg.RateLimit.RequestsPerSecond)
	}

	if cfg.RateLimit.ClientTTL != defaultRateLimitClientTTL {
		t.Errorf("expected default client TTL %s, got %s", defaultRateLimitClientTTL, cfg.RateLimit.ClientTTL)
	}
}

func TestLoadWithExplicitValues(t *testing.T) {
	t.Setenv("DB_PATH", "/tmp/pressroom.db")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SENTRY_DSN", "dsn")
	t.Setenv("ENV", "production")
	t.Setenv("WEBHOOK_SECRET", "hush")
	t.Setenv("REVALIDATE_URL", "https://frontend.example/api/revalidate")
	t.Setenv("NOTIFY_WEBHOOK_URL", "https://chat.example/hook")
	t.Setenv("RATE_LIMIT_BURST", "50")
	t.Setenv("RATE_LIMIT_PER_SECOND", "25.5")
	t.Setenv("RATE_LIMIT_CLIENT_TTL", "10m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.DBPath != "/tmp/pressroom.db" {
		t.Errorf("expected DB path %q, got %q", "/tmp/pressroom.db", cfg.DBPath)
	}

	if cfg.ServerPort != 9090 {
		t.Errorf("expected server port 9090, got %d", cfg.ServerPort)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %q", cfg.LogLevel)
	}

	if cfg.SentryDSN != "dsn" {
		t.Errorf("expected Sentry DSN dsn, got %q", cfg.SentryDSN)
	}

	if cfg.Environment != "production" {
		t.Errorf("expected environment production, got %q", cfg.Environment)
	}

	if cfg.WebhookSecret != "hush" {
		t.Errorf("expected webhook secret hush, got %q", cfg.WebhookSecret)
	}

	if cfg.RevalidateURL != "https://frontend.example/api/revalidate" {
		t.Errorf("unexpected revalidate URL %q", cfg.RevalidateURL)
	}

	if cfg.NotifyWebhookURL != "https://chat.example/hook" {
		t.Errorf("unexpected notify webhook URL %q", cfg.NotifyWebhookURL)
	}

	if cfg.RateLimit.Burst != 50 {
		t.Errorf("expected burst 50, got %d", cfg.RateLimit.Burst)
	}

	if cfg.RateLimit.RequestsPerSecond != 25.5 {
		t.Errorf("expected rate 25.5, got %v", cfg.RateLimit.RequestsPerSecond)
	}

	if cfg.RateLimit.ClientTTL != 10*time.Minute {
		t.Errorf("expected client TTL 10m, got %s", cfg.RateLimit.ClientTTL)
	}
}

func TestLoadInvalidPort(t *testing.T) {
	t.Setenv("SERVER_PORT", "invalid")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error for invalid port, got nil")
	}

	if !strings.Contains(err.Error(), "invalid SERVER_PORT value") {
		t.Fatalf("expected error to mention invalid SERVER_PORT value, got %v", err)
	}
}

func TestLoadInvalidRateLimitValues(t *testing.T) {
	t.Setenv("RATE_LIMIT_BURST", "lots")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid burst, got nil")
	}

	t.Setenv("RATE_LIMIT_BURST", "")
	t.Setenv("RATE_LIMIT_PER_SECOND", "fast")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid rate, got nil")
	}

	t.Setenv("RATE_LIMIT_PER_SECOND", "")
	t.Setenv("RATE_LIMIT_CLIENT_TTL", "sometime")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for invalid TTL, got nil")
	}
}
