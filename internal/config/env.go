package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

const (
	// EnvConfigPath overrides the config file location.
	EnvConfigPath = "CONFIG_PATH"
	// EnvLogLevel overrides app.log_level.
	EnvLogLevel = "LOG_LEVEL"
	// EnvFeedURL overrides feed.url.
	EnvFeedURL = "FEED_URL"
	// EnvMetricsAddr overrides app.metrics_addr.
	EnvMetricsAddr = "METRICS_ADDR"
)

// LoadEnv loads a dotenv file into the process environment. A missing file is not an error.
func LoadEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Getenv returns the environment value for k or def when unset.
func Getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// ApplyEnv overlays environment overrides onto cfg.
func (c *Config) ApplyEnv() {
	c.App.LogLevel = Getenv(EnvLogLevel, c.App.LogLevel)
	c.App.MetricsAddr = Getenv(EnvMetricsAddr, c.App.MetricsAddr)
	c.Feed.URL = Getenv(EnvFeedURL, c.Feed.URL)
}
