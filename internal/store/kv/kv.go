// Package kv is the local key-value substrate todo blobs are stored in.
package kv

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Store holds opaque values under string keys.
// Implementations must be safe for concurrent use.
type Store interface {
	// Read returns nil, nil when the key is absent.
	Read(ctx context.Context, key string) ([]byte, error)
	// Write replaces the value under key.
	Write(ctx context.Context, key string, value []byte) error
	// Update atomically replaces the value under key with fn(current).
	// If fn fails nothing is written and its error is returned as is.
	Update(ctx context.Context, key string, fn UpdateFunc) error
	Close() error
}

// UpdateFunc receives the current value (nil when absent) and returns the
// value to store.
type UpdateFunc func(current []byte) ([]byte, error)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrInvalidKey is returned for empty keys or keys that cannot be mapped
// onto a file name.
var ErrInvalidKey = errors.New("invalid key")

// Config selects and configures a driver.
type Config struct {
	Driver string
	// Dir is where the file driver keeps <key>.json files and the sqlite
	// driver keeps its database.
	Dir string
	// DBName is the sqlite file name inside Dir.
	DBName string
	// DSN is the postgres connection string.
	DSN string
}

// connectTimeout bounds the initial postgres ping.
const connectTimeout = 10 * time.Second

// DefaultDBName is used when Config.DBName is empty.
const DefaultDBName = "tada.db"

// Open returns the store selected by cfg.Driver.
func Open(cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverMemory:
		return NewMemory(), nil
	case DriverFile, "":
		return NewFile(cfg.Dir)
	case DriverSQLite:
		name := cfg.DBName
		if name == "" {
			name = DefaultDBName
		}
		return OpenSQLite(filepath.Join(cfg.Dir, name))
	case DriverPostgres:
		if cfg.DSN == "" {
			return nil, errors.New("postgres driver needs a dsn")
		}
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		return OpenPostgres(ctx, cfg.DSN)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

func checkKey(key string) error {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}
