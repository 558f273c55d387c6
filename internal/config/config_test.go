package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

var configKeys = []string{
	"DB_DRIVER",
	"DB_PATH",
	"DB_DSN",
	"LOG_LEVEL",
	"SENTRY_DSN",
	"ENV",
	"REDIS_URL",
	"CACHE_PREFIX",
	"CACHE_TTL",
	"CACHE_MAX_ENTRIES",
	"CACHE_CLEANUP_INTERVAL",
}

// unsetAll clears every key for the duration of the test.
func unsetAll(t *testing.T) {
	t.Helper()

	for _, key := range configKeys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unsetting %s: %v", key, err)
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	unsetAll(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.DBDriver != "sqlite" {
		t.Errorf("expected default driver %q, got %q", "sqlite", cfg.DBDriver)
	}

	if cfg.DBPath != "./data/storepages.db" {
		t.Errorf("expected default DB path %q, got %q", "./data/storepages.db", cfg.DBPath)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level %q, got %q", "info", cfg.LogLevel)
	}

	if cfg.Environment != "development" {
		t.Errorf("expected default environment %q, got %q", "development", cfg.Environment)
	}

	if cfg.CachePrefix != "storepages:" {
		t.Errorf("expected default cache prefix %q, got %q", "storepages:", cfg.CachePrefix)
	}

	if cfg.CacheTTL != 10*time.Minute {
		t.Errorf("expected cache TTL 10m, got %s", cfg.CacheTTL)
	}

	if cfg.CacheMaxEntries != 10000 {
		t.Errorf("expected cache max entries 10000, got %d", cfg.CacheMaxEntries)
	}

	if cfg.CacheCleanup != time.Minute {
		t.Errorf("expected cache cleanup interval 1m, got %s", cfg.CacheCleanup)
	}

	if cfg.UseRedisCache() {
		t.Errorf("expected redis cache to be disabled without REDIS_URL")
	}

	if cfg.SentryDSN != "" {
		t.Errorf("expected empty Sentry DSN, got %q", cfg.SentryDSN)
	}
}

func TestLoadWithExplicitValues(t *testing.T) {
	unsetAll(t)
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("DB_DSN", "user:pass@tcp(127.0.0.1:3306)/cms?parseTime=true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SENTRY_DSN", "dsn")
	t.Setenv("ENV", "production")
	t.Setenv("REDIS_URL", "redis://localhost:6379/1")
	t.Setenv("CACHE_PREFIX", "cms:")
	t.Setenv("CACHE_TTL", "90s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.DBDriver != DriverMySQL {
		t.Errorf("expected driver %q, got %q", DriverMySQL, cfg.DBDriver)
	}

	if cfg.DBDSN != "user:pass@tcp(127.0.0.1:3306)/cms?parseTime=true" {
		t.Errorf("unexpected DSN %q", cfg.DBDSN)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level debug, got %q", cfg.LogLevel)
	}

	if cfg.Environment != "production" {
		t.Errorf("expected environment production, got %q", cfg.Environment)
	}

	if !cfg.UseRedisCache() {
		t.Errorf("expected redis cache to be enabled")
	}

	if cfg.CachePrefix != "cms:" {
		t.Errorf("expected cache prefix cms:, got %q", cfg.CachePrefix)
	}

	if cfg.CacheTTL != 90*time.Second {
		t.Errorf("expected cache TTL 90s, got %s", cfg.CacheTTL)
	}
}

func TestLoadMySQLRequiresDSN(t *testing.T) {
	unsetAll(t)
	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error when DB_DSN is missing, got nil")
	}

	if !strings.Contains(err.Error(), "DB_DSN is required") {
		t.Fatalf("expected error to mention DB_DSN, got %v", err)
	}
}

func TestLoadInvalidDriver(t *testing.T) {
	unsetAll(t)
	t.Setenv("DB_DRIVER", "oracle")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error for invalid driver, got nil")
	}

	if !strings.Contains(err.Error(), "invalid DB_DRIVER value") {
		t.Fatalf("expected error to mention invalid DB_DRIVER value, got %v", err)
	}
}

func TestLoadInvalidCacheTTL(t *testing.T) {
	unsetAll(t)
	t.Setenv("CACHE_TTL", "soon")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for unparsable CACHE_TTL, got nil")
	}
}

func TestLoadNegativeCacheMaxEntries(t *testing.T) {
	unsetAll(t)
	t.Setenv("CACHE_MAX_ENTRIES", "-1")

	if _, err := Load(); err == nil {
		t.Fatalf("expected error for negative CACHE_MAX_ENTRIES, got nil")
	}
}
