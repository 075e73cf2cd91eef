package domain

import "time"

// Config is the complete application configuration.
type Config struct {
	Environment string           `mapstructure:"environment"`
	Server      ServerConfig     `mapstructure:"server"`
	Store       StoreConfig      `mapstructure:"store"`
	Generation  GenerationConfig `mapstructure:"generation"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Logging     LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// StoreConfig selects and tunes the blob store backend.
type StoreConfig struct {
	// Backend is "sqlite" or "postgres".
	Backend string `mapstructure:"backend"`
	// Path is the SQLite database file (sqlite backend).
	Path string `mapstructure:"path"`
	// DSN is the connection string (postgres backend).
	DSN string `mapstructure:"dsn"`
	// DebounceWindow coalesces rapid mutations into a single write.
	DebounceWindow time.Duration `mapstructure:"debounce_window"`
}

// GenerationConfig holds settings for the generative text provider.
type GenerationConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RateLimit   int           `mapstructure:"rate_limit"` // requests per minute
	Temperature float64       `mapstructure:"temperature"`
	// ConfirmWindow is how long an armed log deletion stays valid.
	ConfirmWindow time.Duration `mapstructure:"confirm_window"`
}

// CacheConfig holds settings for the optional generation result cache.
type CacheConfig struct {
	// RedisURL enables the Redis-backed cache when non-empty; otherwise an
	// in-memory LRU is used.
	RedisURL   string        `mapstructure:"redis_url"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
	MaxItems   int           `mapstructure:"max_items"`
	PoolSize   int           `mapstructure:"pool_size"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
	Output string `mapstructure:"output"`
}
