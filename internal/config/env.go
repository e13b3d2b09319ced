package config

import (
	"fmt"
	"os"
	"strconv"
)

// loadEnv overrides config from TADA_* environment variables.
func loadEnv(cfg *Config) error {
	if v := os.Getenv(EnvPrefix + "STORE"); v != "" {
		cfg.Store = v
	}
	if v := os.Getenv(EnvPrefix + "DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv(EnvPrefix + "DSN"); v != "" {
		cfg.DSN = v
	}
	if v := os.Getenv(EnvPrefix + "LATENCY_MS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sLATENCY_MS: not a number: %q", EnvPrefix, v)
		}
		cfg.LatencyMS = n
	}
	if v := os.Getenv(EnvPrefix + "THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	return nil
}
