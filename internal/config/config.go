// Package config loads tada settings from defaults, TOML files, the
// environment and flags, in that order of increasing priority.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Default values.
const (
	DefaultStore     = "file"
	DefaultLatencyMS = 300
	DefaultTheme     = "classic"
	DefaultLogLevel  = "warn"
	DefaultLogFormat = "text"

	ProjectFileName = ".tada.toml"
	EnvPrefix       = "TADA_"
)

// Config holds the full configuration.
type Config struct {
	// Store is the kv driver: file, sqlite, postgres or memory.
	Store   string `toml:"store"`
	DataDir string `toml:"data_dir"`
	// DSN is the connection string of the postgres store.
	DSN string `toml:"dsn"`
	// LatencyMS is the artificial delay before every store operation.
	LatencyMS int    `toml:"latency_ms"`
	Theme     string `toml:"theme"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
	// LogFile, when set, sends logs to a rotated file instead of stderr.
	LogFile string `toml:"log_file"`
}

// Latency returns LatencyMS as a duration.
func (c *Config) Latency() time.Duration {
	return time.Duration(c.LatencyMS) * time.Millisecond
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Store:     DefaultStore,
		DataDir:   ".",
		LatencyMS: DefaultLatencyMS,
		Theme:     DefaultTheme,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
	}
}

// Load builds the configuration:
// 1. Defaults
// 2. User config file (tada/config.toml under the XDG config home)
// 3. Project config file (.tada.toml in the working directory)
// 4. Environment variables (TADA_*)
// 5. Flags registered on fs and parsed from args
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := Default()

	if p := userConfigFile(); p != "" {
		if err := loadFile(cfg, p); err != nil {
			return nil, fmt.Errorf("loading user config file %s: %w", p, err)
		}
	}
	if p := projectConfigFile(); p != "" {
		if err := loadFile(cfg, p); err != nil {
			return nil, fmt.Errorf("loading project config file %s: %w", p, err)
		}
	}
	if err := loadEnv(cfg); err != nil {
		return nil, err
	}
	if fs != nil {
		Bind(fs, cfg)
		if err := fs.Parse(args); err != nil {
			return nil, fmt.Errorf("parsing flags: %w", err)
		}
	}
	if err := finalize(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Bind registers flags that write into cfg.
func Bind(fs *flag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.Store, "store", cfg.Store, "storage driver: file, sqlite, postgres or memory")
	fs.StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "directory holding the todo data")
	fs.StringVar(&cfg.DSN, "dsn", cfg.DSN, "postgres connection string")
	fs.IntVar(&cfg.LatencyMS, "latency", cfg.LatencyMS, "artificial store latency in milliseconds")
	fs.StringVar(&cfg.Theme, "theme", cfg.Theme, "output theme: classic, neon or mono")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text, json or logfmt")
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "write logs to this file")
}

func loadFile(cfg *Config, path string) error {
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func finalize(cfg *Config) error {
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	switch cfg.Store {
	case "file", "sqlite", "memory":
	case "postgres":
		if cfg.DSN == "" {
			return errors.New("store postgres needs a dsn")
		}
	default:
		return fmt.Errorf("invalid store %q", cfg.Store)
	}
	if cfg.LatencyMS < 0 {
		return fmt.Errorf("latency must not be negative, got %d", cfg.LatencyMS)
	}
	cfg.DataDir = expandPath(cfg.DataDir)
	cfg.LogFile = expandPath(cfg.LogFile)
	if cfg.DataDir != "" && !filepath.IsAbs(cfg.DataDir) {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		cfg.DataDir = filepath.Join(wd, cfg.DataDir)
	}
	return nil
}
