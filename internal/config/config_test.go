package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infem06/progress/internal/domain"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	viper.Reset()
	m, err := NewManager()
	require.NoError(t, err)
	return m
}

func TestManagerDefaults(t *testing.T) {
	m := newTestManager(t)
	cfg := m.GetConfig()

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "./data/progress.db", cfg.Store.Path)
	assert.Equal(t, "gemini-3-flash-preview", cfg.Generation.Model)
	assert.Equal(t, 10, cfg.Generation.RateLimit)
	assert.InDelta(t, 0.7, cfg.Generation.Temperature, 0.001)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.NoError(t, m.Validate())
	assert.True(t, m.IsDevelopment())
}

func TestManagerEnvironmentOverride(t *testing.T) {
	t.Setenv("PROGRESS_SERVER_PORT", "9090")
	t.Setenv("PROGRESS_STORE_BACKEND", "postgres")
	t.Setenv("PROGRESS_STORE_DSN", "postgres://localhost/progress")

	m := newTestManager(t)
	cfg := m.GetConfig()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Store.Backend)
	assert.NoError(t, m.Validate())
}

func TestManagerValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.Config)
	}{
		{"invalid port", func(c *domain.Config) { c.Server.Port = 0 }},
		{"unknown backend", func(c *domain.Config) { c.Store.Backend = "dynamo" }},
		{"sqlite without path", func(c *domain.Config) { c.Store.Path = "" }},
		{"postgres without dsn", func(c *domain.Config) {
			c.Store.Backend = "postgres"
			c.Store.DSN = ""
		}},
		{"missing model", func(c *domain.Config) { c.Generation.Model = "" }},
		{"zero rate limit", func(c *domain.Config) { c.Generation.RateLimit = 0 }},
		{"invalid log level", func(c *domain.Config) { c.Logging.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t)
			tt.mutate(m.GetConfig())
			assert.Error(t, m.Validate())
		})
	}
}
