package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rotisserie/eris"
)

// Config holds runtime configuration values for the page store.
type Config struct {
	DBDriver    string        `env:"DB_DRIVER" envDefault:"sqlite"`
	DBPath      string        `env:"DB_PATH" envDefault:"./data/storepages.db"`
	DBDSN       string        `env:"DB_DSN"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	SentryDSN   string        `env:"SENTRY_DSN"`
	Environment string        `env:"ENV" envDefault:"development"`
	RedisURL    string        `env:"REDIS_URL"`
	CachePrefix string        `env:"CACHE_PREFIX" envDefault:"storepages:"`
	CacheTTL    time.Duration `env:"CACHE_TTL" envDefault:"10m"`
	// CacheMaxEntries bounds the in-process cache; 0 disables the bound.
	CacheMaxEntries int           `env:"CACHE_MAX_ENTRIES" envDefault:"10000"`
	CacheCleanup    time.Duration `env:"CACHE_CLEANUP_INTERVAL" envDefault:"1m"`
}

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// UseRedisCache reports whether identifier lookups should be cached in Redis.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, eris.Wrap(err, "parsing environment")
	}

	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	switch cfg.DBDriver {
	case DriverSQLite:
		if cfg.DBPath == "" {
			return nil, eris.New("DB_PATH is required for the sqlite driver")
		}
	case DriverMySQL:
		if cfg.DBDSN == "" {
			return nil, eris.New("DB_DSN is required for the mysql driver")
		}
	default:
		return nil, eris.Errorf("invalid DB_DRIVER value: %s", cfg.DBDriver)
	}

	if cfg.CacheTTL < 0 {
		return nil, eris.Errorf("invalid CACHE_TTL value: %s", cfg.CacheTTL)
	}

	if cfg.CacheMaxEntries < 0 {
		return nil, eris.Errorf("invalid CACHE_MAX_ENTRIES value: %d", cfg.CacheMaxEntries)
	}

	if cfg.CacheCleanup < 0 {
		return nil, eris.Errorf("invalid CACHE_CLEANUP_INTERVAL value: %s", cfg.CacheCleanup)
	}

	return cfg, nil
}
