package config

import "time"

// Config holds runtime settings for the console.
type Config struct {
	BackendURL     string
	RequestTimeout time.Duration
	DatabasePath   string
	HTTPAddr       string
	StoreKey       string
	AdminOnlyLogin bool
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.BackendURL = "http://localhost:5000/api"
	c.RequestTimeout = 15 * time.Second
	c.DatabasePath = "console.db"
	c.HTTPAddr = ""
	c.StoreKey = ""
	c.AdminOnlyLogin = false
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}
