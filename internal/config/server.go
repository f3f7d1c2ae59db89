package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type ServerConfig struct {
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	DatabaseDSN string `env:"DATABASE_DSN"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	AdminAPIKey string `env:"ADMIN_API_KEY"`

	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	JanitorInterval    time.Duration `env:"SESSION_JANITOR_INTERVAL" envDefault:"1m"`
	CatalogPath        string        `env:"CATALOG_PATH"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	switch cfg.StoreDriver {
	case DriverPostgres, DriverSQLite:
		if cfg.DatabaseDSN == "" {
			return cfg, fmt.Errorf("config: DATABASE_DSN is required for STORE_DRIVER=%s", cfg.StoreDriver)
		}
	case DriverMemory:
	default:
		return cfg, fmt.Errorf("config: unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.SessionIdleTimeout <= 0 {
		return cfg, fmt.Errorf("config: SESSION_IDLE_TIMEOUT must be positive")
	}
	return cfg, nil
}
