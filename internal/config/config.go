// Package config provides configuration management backed by Viper.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/infem06/progress/internal/domain"
)

// Manager loads and validates the application configuration.
type Manager struct {
	config *domain.Config
}

// NewManager creates a new configuration manager.
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from file, environment and defaults.
func (m *Manager) loadConfig() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/progress/")

	viper.SetEnvPrefix("PROGRESS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	// Config file is optional; defaults and env vars suffice.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values.
func (m *Manager) setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "127.0.0.1")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// Store defaults
	viper.SetDefault("store.backend", "sqlite")
	viper.SetDefault("store.path", "./data/progress.db")
	viper.SetDefault("store.dsn", "")
	viper.SetDefault("store.debounce_window", "300ms")

	// Generation defaults
	viper.SetDefault("generation.base_url", "https://generativelanguage.googleapis.com/v1beta")
	viper.SetDefault("generation.model", "gemini-3-flash-preview")
	viper.SetDefault("generation.timeout", "30s")
	viper.SetDefault("generation.rate_limit", 10)
	viper.SetDefault("generation.temperature", 0.7)
	viper.SetDefault("generation.confirm_window", "15s")

	// Cache defaults (Redis off unless a URL is configured)
	viper.SetDefault("cache.redis_url", "")
	viper.SetDefault("cache.default_ttl", "24h")
	viper.SetDefault("cache.max_items", 128)
	viper.SetDefault("cache.pool_size", 10)
	viper.SetDefault("cache.max_retries", 3)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.output", "stdout")
}

// GetConfig returns the complete configuration.
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration.
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetStoreConfig returns blob store configuration.
func (m *Manager) GetStoreConfig() *domain.StoreConfig {
	return &m.config.Store
}

// GetGenerationConfig returns generation provider configuration.
func (m *Manager) GetGenerationConfig() *domain.GenerationConfig {
	return &m.config.Generation
}

// GetCacheConfig returns cache configuration.
func (m *Manager) GetCacheConfig() *domain.CacheConfig {
	return &m.config.Cache
}

// Validate validates the configuration.
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	switch config.Store.Backend {
	case "sqlite":
		if config.Store.Path == "" {
			return fmt.Errorf("store path is required for the sqlite backend")
		}
	case "postgres":
		if config.Store.DSN == "" {
			return fmt.Errorf("store dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown store backend: %s", config.Store.Backend)
	}

	if config.Generation.BaseURL == "" {
		return fmt.Errorf("generation base URL is required")
	}
	if config.Generation.Model == "" {
		return fmt.Errorf("generation model is required")
	}
	if config.Generation.RateLimit <= 0 {
		return fmt.Errorf("generation rate limit must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(m.config.Environment)
	return env == "development" || env == "dev" || env == ""
}
