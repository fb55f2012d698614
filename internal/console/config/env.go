package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

const envPrefix = "CONSOLE_"

type envConfig struct {
	BackendURL     string        `env:"BACKEND_URL"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
	DatabasePath   string        `env:"DB_PATH"`
	HTTPAddr       string        `env:"HTTP_ADDR"`
	StoreKey       string        `env:"STORE_KEY"`
	AdminOnlyLogin bool          `env:"ADMIN_ONLY"`
	LogLevel       string        `env:"LOG_LEVEL"`
}

// parseEnv overlays cfg with CONSOLE_* variables. Unset variables keep the
// current value. Panics on malformed values, like the other loaders.
func parseEnv(cfg *Config) {
	ec := envConfig{
		BackendURL:     cfg.BackendURL,
		RequestTimeout: cfg.RequestTimeout,
		DatabasePath:   cfg.DatabasePath,
		HTTPAddr:       cfg.HTTPAddr,
		StoreKey:       cfg.StoreKey,
		AdminOnlyLogin: cfg.AdminOnlyLogin,
		LogLevel:       cfg.LogLevel,
	}

	if err := env.ParseWithOptions(&ec, env.Options{Prefix: envPrefix}); err != nil {
		panic(err)
	}

	cfg.BackendURL = ec.BackendURL
	cfg.RequestTimeout = ec.RequestTimeout
	cfg.DatabasePath = ec.DatabasePath
	cfg.HTTPAddr = ec.HTTPAddr
	cfg.StoreKey = ec.StoreKey
	cfg.AdminOnlyLogin = ec.AdminOnlyLogin
	cfg.LogLevel = ec.LogLevel
}
