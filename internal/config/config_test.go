package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplykpi/internal/config"
)

func TestGetConfigDefaults(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)

	cfg := config.GetConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, "supplykpi", cfg.AppName)
	assert.Equal(t, 600*time.Second, cfg.CacheTTL())
	assert.Equal(t, 10, cfg.DefaultLimit)

	from, to := cfg.DefaultWindow()
	assert.Equal(t, time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2016, 12, 31, 0, 0, 0, 0, time.UTC), to)
}

func TestGetConfigFromEnvironment(t *testing.T) {
	config.Reset()
	t.Cleanup(config.Reset)

	t.Setenv("SUPPLYKPI_ENV", config.Test)
	t.Setenv("SUPPLYKPI_CACHE_TTL_SECONDS", "30")
	t.Setenv("SUPPLYKPI_DEFAULT_LIMIT", "5")
	t.Setenv("SUPPLYKPI_STORAGE_PATH", "/tmp/kpi")

	cfg := config.GetConfig()

	assert.True(t, cfg.IsTest())
	assert.Equal(t, 30*time.Second, cfg.CacheTTL())
	assert.Equal(t, 5, cfg.DefaultLimit)
	assert.Equal(t, "/tmp/kpi/supplykpi-test.db", cfg.DatabaseDSN())
	assert.Equal(t, 1, cfg.GetMaxOpenConns())
	assert.Equal(t, 1, cfg.GetMaxIdleConns())
}

func TestPoolSizesOutsideTests(t *testing.T) {
	cfg := &config.Config{Environment: config.Production}
	assert.Equal(t, 10, cfg.GetMaxOpenConns())
	assert.Equal(t, 5, cfg.GetMaxIdleConns())

	cfg.DatabaseMaxOpenConns = 3
	assert.Equal(t, 3, cfg.GetMaxOpenConns())
}
