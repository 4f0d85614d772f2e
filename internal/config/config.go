// Package config loads and validates the triage engine configuration using
// Viper, layering file values under ICSR_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/icsr-triage-engine/internal/database"
	"github.com/icsr-triage-engine/internal/refdata"
)

// Config is the full engine configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Reference ReferenceConfig `mapstructure:"reference"`
	MedDRA    MedDRAConfig    `mapstructure:"meddra"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Annotator AnnotatorConfig `mapstructure:"annotator"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig configures the HTTP triage API.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	RateLimit    float64       `mapstructure:"rate_limit"`
	RateBurst    int           `mapstructure:"rate_burst"`
}

// ReferenceConfig selects and tunes the reference data backend.
type ReferenceConfig struct {
	// Backend is one of "file", "sqlite" or "postgres".
	Backend    string                `mapstructure:"backend"`
	FilePath   string                `mapstructure:"file_path"`
	SQLitePath string                `mapstructure:"sqlite_path"`
	Database   database.Config       `mapstructure:"database"`
	Migrations string                `mapstructure:"migrations"`
	CacheSize  int                   `mapstructure:"cache_size"`
	Redis      RedisConfig           `mapstructure:"redis"`
	Breaker    refdata.BreakerConfig `mapstructure:"breaker"`
}

// RedisConfig enables the shared Redis cache in front of a remote backend.
type RedisConfig struct {
	refdata.RedisConfig `mapstructure:",squash"`

	Enabled bool `mapstructure:"enabled"`
}

// MedDRAConfig locates the term dictionary.
type MedDRAConfig struct {
	MappingPath string `mapstructure:"mapping_path"`
}

// PipelineConfig tunes batch evaluation.
type PipelineConfig struct {
	Workers int `mapstructure:"workers"`
}

// AnnotatorConfig names the company whose products are "ours" for the
// comment annotation.
type AnnotatorConfig struct {
	Company string   `mapstructure:"company"`
	Aliases []string `mapstructure:"aliases"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Manager loads, holds and validates the configuration.
type Manager struct {
	config *Config
}

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/icsr-triage-engine/")

	viper.SetEnvPrefix("ICSR")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	// Config file is optional; defaults and environment variables suffice.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.rate_limit", 20)
	viper.SetDefault("server.rate_burst", 40)

	viper.SetDefault("reference.backend", "file")
	viper.SetDefault("reference.file_path", "reference.yaml")
	viper.SetDefault("reference.sqlite_path", "data/refdata.db")
	viper.SetDefault("reference.migrations", "migrations")
	viper.SetDefault("reference.cache_size", 1024)
	viper.SetDefault("reference.database.host", "localhost")
	viper.SetDefault("reference.database.port", 5432)
	viper.SetDefault("reference.database.database", "icsr_refdata")
	viper.SetDefault("reference.database.username", "postgres")
	viper.SetDefault("reference.database.password", "")
	viper.SetDefault("reference.database.ssl_mode", "disable")
	viper.SetDefault("reference.database.max_conns", 25)
	viper.SetDefault("reference.database.min_conns", 5)
	viper.SetDefault("reference.database.max_conn_life", "5m")
	viper.SetDefault("reference.database.max_conn_idle", "30m")
	viper.SetDefault("reference.redis.enabled", false)
	viper.SetDefault("reference.redis.url", "redis://localhost:6379")
	viper.SetDefault("reference.redis.ttl", "1h")
	viper.SetDefault("reference.redis.pool_size", 10)
	viper.SetDefault("reference.redis.max_retries", 3)

	viper.SetDefault("meddra.mapping_path", "")

	viper.SetDefault("pipeline.workers", 8)

	viper.SetDefault("annotator.company", "Celix")
	viper.SetDefault("annotator.aliases", []string{})

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	switch config.Reference.Backend {
	case "file":
		if config.Reference.FilePath == "" {
			return fmt.Errorf("reference file path is required for the file backend")
		}
	case "sqlite":
		if config.Reference.SQLitePath == "" {
			return fmt.Errorf("reference sqlite path is required for the sqlite backend")
		}
	case "postgres":
		if config.Reference.Database.Host == "" {
			return fmt.Errorf("database host is required for the postgres backend")
		}
		if config.Reference.Database.Database == "" {
			return fmt.Errorf("database name is required for the postgres backend")
		}
		if config.Reference.Database.Username == "" {
			return fmt.Errorf("database username is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown reference backend: %s", config.Reference.Backend)
	}

	if config.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline workers must be at least 1")
	}

	if config.Annotator.Company == "" {
		return fmt.Errorf("annotator company is required")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}
