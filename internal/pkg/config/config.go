// Package config loads process configuration from environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the shop API configuration.
type Config struct {
	Env      string `env:"APP_ENV" envDefault:"local"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	DBPath         string `env:"SHOP_DB_PATH" envDefault:"./data/shop.db"`
	BatchFetchSize int    `env:"SHOP_BATCH_FETCH_SIZE" envDefault:"100"`
	SeedData       bool   `env:"SHOP_SEED_DATA" envDefault:"false"`

	// RedisAddr selects the Redis idempotency cache; empty means in-memory.
	RedisAddr      string        `env:"REDIS_ADDR"`
	IdempotencyTTL time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

	ServiceName  string `env:"OTEL_SERVICE_NAME" envDefault:"shop-api"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`

	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// ParseEnv populates target from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses Config and checks the values env tags cannot express.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.BatchFetchSize <= 0 {
		return Config{}, fmt.Errorf("SHOP_BATCH_FETCH_SIZE must be positive, got %d", cfg.BatchFetchSize)
	}
	if cfg.ShutdownTimeout <= 0 {
		return Config{}, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", cfg.ShutdownTimeout)
	}
	return cfg, nil
}
