package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the metagraph configuration
type Config struct {
	Store      StoreConfig      `mapstructure:"store"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Indexing   IndexingConfig   `mapstructure:"indexing"`
	Primitives PrimitivesConfig `mapstructure:"primitives"`
	Preload    PreloadConfig    `mapstructure:"preload"`
	Log        LogConfig        `mapstructure:"log"`
}

// StoreConfig selects the SQL store
type StoreConfig struct {
	Driver  string        `mapstructure:"driver"`
	DSN     string        `mapstructure:"dsn"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RedisConfig configures the back-reference cache
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
	// Elements also caches element records
	Elements bool `mapstructure:"elements"`
}

// IndexingConfig tunes when to-many property values build lookup indexes
type IndexingConfig struct {
	MaxNonIndexingSize int `mapstructure:"max_non_indexing_size"`
	MinIndexingSize    int `mapstructure:"min_indexing_size"`
}

// PrimitivesConfig selects how primitive literals are materialized
type PrimitivesConfig struct {
	Mode string `mapstructure:"mode"`
}

// PreloadConfig bounds concurrent preloading
type PreloadConfig struct {
	Workers int `mapstructure:"workers"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load loads the configuration from metagraph.yml or metagraph.yaml in the
// working directory, or from file when it is not empty. Environment
// variables prefixed METAGRAPH_ override file values, with '.' in keys
// replaced by '_' (METAGRAPH_STORE_DSN).
func Load(file string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("store.driver", "sqlite3")
	v.SetDefault("store.dsn", "metagraph.db")
	v.SetDefault("store.timeout", 30*time.Second)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "metagraph:")
	v.SetDefault("redis.ttl", time.Hour)
	v.SetDefault("redis.elements", false)
	v.SetDefault("indexing.max_non_indexing_size", 10)
	v.SetDefault("indexing.min_indexing_size", 6)
	v.SetDefault("primitives.mode", "repository")
	v.SetDefault("preload.workers", 0)
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.development", false)

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("metagraph")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Enable environment variable support
	v.SetEnvPrefix("METAGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// FindConfigFile walks up from the working directory looking for
// metagraph.yml or metagraph.yaml.
func FindConfigFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, name := range []string{"metagraph.yml", "metagraph.yaml"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("no metagraph.yml found")
		}
		dir = parent
	}
}

var validDrivers = map[string]bool{"sqlite3": true, "postgres": true, "pgx": true}

var validLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if !validDrivers[cfg.Store.Driver] {
		return fmt.Errorf("store.driver must be one of sqlite3, postgres, pgx, got: %s", cfg.Store.Driver)
	}
	if cfg.Store.DSN == "" {
		return fmt.Errorf("store.dsn must be set")
	}
	if cfg.Store.Timeout < 0 {
		return fmt.Errorf("store.timeout must not be negative, got: %s", cfg.Store.Timeout)
	}

	if cfg.Redis.Enabled && cfg.Redis.Addr == "" {
		return fmt.Errorf("redis.addr must be set when redis is enabled")
	}

	if cfg.Indexing.MaxNonIndexingSize < 0 || cfg.Indexing.MinIndexingSize < 0 {
		return fmt.Errorf("indexing thresholds must not be negative")
	}
	if cfg.Indexing.MinIndexingSize > cfg.Indexing.MaxNonIndexingSize {
		return fmt.Errorf("indexing.min_indexing_size (%d) must not exceed indexing.max_non_indexing_size (%d)",
			cfg.Indexing.MinIndexingSize, cfg.Indexing.MaxNonIndexingSize)
	}

	switch cfg.Primitives.Mode {
	case "direct", "repository":
	default:
		return fmt.Errorf("primitives.mode must be 'direct' or 'repository', got: %s", cfg.Primitives.Mode)
	}

	if cfg.Preload.Workers < 0 {
		return fmt.Errorf("preload.workers must not be negative, got: %d", cfg.Preload.Workers)
	}

	if !validLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got: %s", cfg.Log.Level)
	}
	return nil
}
