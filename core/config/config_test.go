package config_test

import (
	"testing"

	"stocksync/core/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig(".")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "", cfg.Server.ApiKey)

	assert.Equal(t, "localhost:9000", cfg.Storage.Endpoint)
	assert.Equal(t, "stock-reports", cfg.Storage.Bucket)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	assert.Equal(t, "stocksync", cfg.Database.Name)
	assert.Equal(t, 3306, cfg.Database.Port)

	assert.Equal(t, 3, cfg.Recovery.MaxRetries)
	assert.Equal(t, 30, cfg.Recovery.CallTimeoutSeconds)
	assert.Equal(t, 5, cfg.Recovery.FailureThreshold)
	assert.Equal(t, 60, cfg.Recovery.CooldownSeconds)

	assert.Equal(t, 8, cfg.Stock.Workers)
	assert.Equal(t, 500, cfg.Stock.API.PageSize)
	assert.Equal(t, "reports/", cfg.Stock.Report.Prefix)
	assert.Equal(t, "quarantine/", cfg.Stock.Report.QuarantinePrefix)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("RECOVERY_MAX_RETRIES", "5")
	t.Setenv("STOCK_API_BASE_URL", "https://api.example.com")
	t.Setenv("STOCK_WORKERS", "4")

	cfg, err := config.LoadConfig(".")
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 5, cfg.Recovery.MaxRetries)
	assert.Equal(t, "https://api.example.com", cfg.Stock.API.BaseURL)
	assert.Equal(t, 4, cfg.Stock.Workers)
}
