package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

// -----------------------------------------------------------------------------

func TestNewConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "name: dash\nport: 8080\n")

	cfg, err := NewConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, "sqlite", cfg.Storage.DBType)
	assert.Equal(t, "https://api.coingecko.com/api/v3", cfg.MarketData.BaseURL)
	assert.Equal(t, "usd", cfg.MarketData.VsCurrency)
	assert.Equal(t, 20, cfg.MarketData.SearchLimit)
	assert.Equal(t, "vanry", cfg.MarketData.FeaturedSymbol)
	assert.Equal(t, 7, cfg.MarketData.DefaultChartDays)
	assert.Equal(t, 300, cfg.MarketData.DebounceMs)
	assert.Equal(t, 256, cfg.MarketData.QueryRegistrySize)
	assert.Equal(t, "memory", cfg.Cache.Backend)
}

// -----------------------------------------------------------------------------

func TestNewConfigEnvOverridesSecrets(t *testing.T) {
	t.Setenv(EnvAPIKey, "demo-key")
	t.Setenv(EnvRedisPassword, "hunter2")
	path := writeConfig(t, "port: 8080\nmarket_data:\n  api_key: from-file\n")

	cfg, err := NewConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "demo-key", cfg.MarketData.APIKey)
	assert.Equal(t, "hunter2", cfg.Cache.RedisPassword)
}

// -----------------------------------------------------------------------------

func TestNewConfigErrors(t *testing.T) {
	_, err := NewConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = NewConfig(writeConfig(t, "port: [oops"))
	assert.Error(t, err)

	_, err = NewConfig(writeConfig(t, "port: 80\n"))
	assert.ErrorContains(t, err, "invalid server port")
}

// -----------------------------------------------------------------------------

func TestValidateRejects(t *testing.T) {
	cases := map[string]string{
		"postgres without dsn": "port: 8080\nstorage:\n  db_type: postgres\n",
		"unknown db":           "port: 8080\nstorage:\n  db_type: mysql\n",
		"redis without addr":   "port: 8080\ncache:\n  backend: redis\n",
		"bad chart days":       "port: 8080\nmarket_data:\n  default_chart_days: 3\n",
		"per page too large":   "port: 8080\nmarket_data:\n  per_page: 500\n",
		"ftp base url":         "port: 8080\nmarket_data:\n  base_url: ftp://example.com\n",
		"grpc on http port":    "port: 8080\ngrpc_port: 8080\n",
		"single chart point":   "port: 8080\nmarket_data:\n  chart_max_points: 1\n",
		"negative registry":    "port: 8080\nmarket_data:\n  query_registry_size: -1\n",
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewConfig(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

// -----------------------------------------------------------------------------

func TestSaveRoundTrip(t *testing.T) {
	cfg, err := NewConfig(writeConfig(t, "port: 8080\n"))
	require.NoError(t, err)
	cfg.MarketData.FeaturedSymbol = "btc"

	out := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, cfg.Save(out))

	reloaded, err := NewConfig(out)
	require.NoError(t, err)
	assert.Equal(t, "btc", reloaded.MarketData.FeaturedSymbol)
	assert.Equal(t, cfg.Port, reloaded.Port)
}

// -----------------------------------------------------------------------------

func TestValidChartDays(t *testing.T) {
	for _, d := range []int{1, 7, 30, 90, 365} {
		assert.True(t, ValidChartDays(d))
	}
	assert.False(t, ValidChartDays(0))
	assert.False(t, ValidChartDays(14))
}
