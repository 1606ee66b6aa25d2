// Package backend selects and opens the key-value store the ledger persists to.
package backend

import (
	"context"
	"fmt"

	"wealthwise/internal/config"
	"wealthwise/internal/log"
	"wealthwise/internal/storage"
	"wealthwise/internal/storage/memory"
	"wealthwise/internal/storage/redis"
)

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
	RedisBackend  BackendType = "redis"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, RedisBackend:
		return true
	default:
		return false
	}
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the opened store and its cleanup function
type BackendResult struct {
	KV      storage.KV
	Store   *storage.Adapter
	Cleanup CleanupFunc
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string

	RedisURL    string
	RedisPrefix string

	// Memory backend seed directory
	DataDirectory string
}

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	cfg := Config{
		Type:          BackendType(appConfig.DataBackend),
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		RedisURL:      appConfig.RedisURL,
		RedisPrefix:   appConfig.RedisKeyPrefix,
		DataDirectory: appConfig.DataDirectory,
	}
	return cfg, cfg.Validate()
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case RedisBackend:
		if c.RedisURL == "" {
			return fmt.Errorf("Redis URL is required for redis backend")
		}
	}
	return nil
}

// Factory opens backends based on configuration
type Factory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Open creates the configured KV backend wrapped in a storage adapter.
func (f *Factory) Open(ctx context.Context, cfg Config) (*BackendResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		kv  storage.KV
		err error
	)
	switch cfg.Type {
	case SQLiteBackend:
		kv, err = storage.NewSQLiteKV(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite backend: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	case RedisBackend:
		prefix := cfg.RedisPrefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		kv, err = redis.Open(ctx, cfg.RedisURL, prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Redis backend: %w", err)
		}
		f.logger.Info("Initialized Redis backend", "key_prefix", prefix)
	default:
		dir := cfg.DataDirectory
		if dir == "" {
			dir = "data"
		}
		kv = memory.NewFromFiles(dir)
		f.logger.Info("Initialized memory backend", "data_directory", dir)
	}

	return &BackendResult{
		KV:      kv,
		Store:   storage.NewAdapter(kv, f.logger),
		Cleanup: kv.Close,
	}, nil
}
