// Package config provides configuration management for the application.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Cache backend identifiers.
const (
	CacheBackendLocal = "local"
	CacheBackendRedis = "redis"
)

// Config holds the application configuration.
type Config struct {
	Server ServerConfig
	Cache  CacheConfig
	Usage  UsageConfig
	Log    LogConfig

	// ProvidersFile is an optional YAML file declaring additional providers.
	ProvidersFile string
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	MasterKey      string
	MetricsEnabled bool
	BodySizeLimit  int64
}

// CacheConfig selects and configures the model-catalog snapshot cache.
type CacheConfig struct {
	Backend  string // "local" or "redis"
	FilePath string // local backend: snapshot file path
	RedisURL string // redis backend: connection URL
}

// UsageConfig configures token usage accounting.
type UsageConfig struct {
	Enabled       bool
	DBPath        string
	RetentionDays int
}

// LogConfig configures structured logging output.
type LogConfig struct {
	Format string // "text" or "json"
	Level  string // "debug", "info", "warn", "error"
}

// Load reads configuration from the environment, with an optional .env file.
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // .env is optional

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("METRICS_ENABLED", false)
	viper.SetDefault("BODY_SIZE_LIMIT", 0)
	viper.SetDefault("CACHE_BACKEND", CacheBackendLocal)
	viper.SetDefault("CACHE_FILE", "models_snapshot.json")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("USAGE_ENABLED", false)
	viper.SetDefault("USAGE_DB_PATH", "usage.db")
	viper.SetDefault("USAGE_RETENTION_DAYS", 30)
	viper.SetDefault("PROVIDERS_FILE", "")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("LOG_LEVEL", "info")

	viper.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:           viper.GetString("PORT"),
			MasterKey:      viper.GetString("MASTER_KEY"),
			MetricsEnabled: viper.GetBool("METRICS_ENABLED"),
			BodySizeLimit:  viper.GetInt64("BODY_SIZE_LIMIT"),
		},
		Cache: CacheConfig{
			Backend:  viper.GetString("CACHE_BACKEND"),
			FilePath: viper.GetString("CACHE_FILE"),
			RedisURL: viper.GetString("REDIS_URL"),
		},
		Usage: UsageConfig{
			Enabled:       viper.GetBool("USAGE_ENABLED"),
			DBPath:        viper.GetString("USAGE_DB_PATH"),
			RetentionDays: viper.GetInt("USAGE_RETENTION_DAYS"),
		},
		Log: LogConfig{
			Format: viper.GetString("LOG_FORMAT"),
			Level:  viper.GetString("LOG_LEVEL"),
		},
		ProvidersFile: viper.GetString("PROVIDERS_FILE"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Cache.Backend {
	case CacheBackendLocal, CacheBackendRedis:
	default:
		return fmt.Errorf("invalid CACHE_BACKEND %q: must be %q or %q",
			c.Cache.Backend, CacheBackendLocal, CacheBackendRedis)
	}
	if c.Cache.Backend == CacheBackendRedis && c.Cache.RedisURL == "" {
		return fmt.Errorf("CACHE_BACKEND=redis requires REDIS_URL")
	}
	if c.Usage.Enabled && c.Usage.DBPath == "" {
		return fmt.Errorf("USAGE_ENABLED requires USAGE_DB_PATH")
	}
	return nil
}
