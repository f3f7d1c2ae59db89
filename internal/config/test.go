package config

import "github.com/caarlos0/env/v11"

// TestConfig points store tests at a live Postgres; they fall back to sqlite when unset.
type TestConfig struct {
	TestDatabaseDSN string `env:"TEST_DATABASE_DSN,required,notEmpty"`
}

func LoadTest() (TestConfig, error) {
	var cfg TestConfig
	err := env.Parse(&cfg)
	return cfg, err
}
