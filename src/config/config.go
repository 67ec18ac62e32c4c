package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"coin-dashboard/src/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// -----------------------------------------------------------------------------

// Environment variables that override sensitive YAML values
const (
	EnvAPIKey           = "COINGECKO_API_KEY"
	EnvRedisPassword    = "REDIS_PASSWORD"
	EnvDBConnection     = "DB_CONNECTION_STRING"
	defaultCoinGeckoURL = "https://api.coingecko.com/api/v3"
)

// ChartDays are the chart ranges the dashboard offers.
var ChartDays = []int{1, 7, 30, 90, 365}

// -----------------------------------------------------------------------------

// Config wraps models.MConfig and provides business logic methods
type Config struct {
	*models.MConfig
}

// -----------------------------------------------------------------------------

// NewConfig creates a new Config instance from a YAML file and the environment
func NewConfig(configPath string) (*Config, error) {
	// 1. Read the YAML file content
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", configPath, err)
	}

	// 2. Unmarshal data into the models struct
	var modelConfig models.MConfig
	if err := yaml.Unmarshal(data, &modelConfig); err != nil {
		return nil, fmt.Errorf("failed to parse config from YAML: %w", err)
	}

	config := &Config{MConfig: &modelConfig}
	config.ApplyDefaults()

	// 3. Secrets come from the environment (.env is optional)
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	config.ApplyEnv()

	// 4. Validate the loaded configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// -----------------------------------------------------------------------------

// ApplyDefaults fills zero values with working defaults
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "coin-dashboard"
	}
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.LogLevel == "" {
		c.LogLevel = "INFO"
	}
	if c.Storage.DBType == "" {
		c.Storage.DBType = "sqlite"
	}
	if c.Storage.DBType == "sqlite" && c.Storage.DBPath == "" {
		c.Storage.DBPath = "coin-dashboard.db"
	}

	n := &c.Network
	if n.RequestTimeout == 0 {
		n.RequestTimeout = 10
	}
	if n.ConcurrentRequests == 0 {
		n.ConcurrentRequests = 4
	}
	if n.RateLimitPerSecond == 0 {
		n.RateLimitPerSecond = 0.5 // public tier allows ~30 calls/minute
	}
	if n.RateLimitBurst == 0 {
		n.RateLimitBurst = 5
	}
	if n.BreakerFailureThreshold == 0 {
		n.BreakerFailureThreshold = 5
	}
	if n.BreakerTimeoutSeconds == 0 {
		n.BreakerTimeoutSeconds = 30
	}

	m := &c.MarketData
	if m.BaseURL == "" {
		m.BaseURL = defaultCoinGeckoURL
	}
	m.BaseURL = strings.TrimRight(m.BaseURL, "/")
	if m.VsCurrency == "" {
		m.VsCurrency = "usd"
	}
	if m.PerPage == 0 {
		m.PerPage = 100
	}
	if m.SearchLimit == 0 {
		m.SearchLimit = 20
	}
	if m.FeaturedSymbol == "" {
		m.FeaturedSymbol = "vanry"
	}
	if m.DefaultChartDays == 0 {
		m.DefaultChartDays = 7
	}
	if m.ChartMaxPoints == 0 {
		m.ChartMaxPoints = 200
	}
	if m.DebounceMs == 0 {
		m.DebounceMs = 300
	}
	if m.QueryRegistrySize == 0 {
		m.QueryRegistrySize = 256
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.KeyPrefix == "" {
		c.Cache.KeyPrefix = "coingecko:"
	}
}

// -----------------------------------------------------------------------------

// ApplyEnv overrides secrets from environment variables when they are set
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvAPIKey); ok && v != "" {
		c.MarketData.APIKey = v
	}
	if v, ok := os.LookupEnv(EnvRedisPassword); ok && v != "" {
		c.Cache.RedisPassword = v
	}
	if v, ok := os.LookupEnv(EnvDBConnection); ok && v != "" {
		c.Storage.DBConnectionString = v
	}
}

// -----------------------------------------------------------------------------

// Validate performs basic configuration validation
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("application name cannot be empty")
	}

	// Server
	if c.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Port <= 1024 || c.Port > 65535 {
		return fmt.Errorf("invalid server port number: %d (must be between 1025 and 65535)", c.Port)
	}
	if c.GrpcPort != 0 && (c.GrpcPort <= 1024 || c.GrpcPort > 65535 || c.GrpcPort == c.Port) {
		return fmt.Errorf("invalid grpc port number: %d", c.GrpcPort)
	}

	// Storage
	switch c.Storage.DBType {
	case "sqlite":
		if c.Storage.DBPath == "" {
			return fmt.Errorf("database path cannot be empty for sqlite")
		}
	case "postgres":
		if c.Storage.DBConnectionString == "" {
			return fmt.Errorf("database connection string cannot be empty for postgres")
		}
	default:
		return fmt.Errorf("unsupported database type: %q", c.Storage.DBType)
	}

	// Network
	if c.Network.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be greater than 0")
	}
	if c.Network.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.Network.ConcurrentRequests <= 0 {
		return fmt.Errorf("concurrent requests must be greater than 0")
	}
	if c.Network.RateLimitPerSecond <= 0 || c.Network.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}

	// Market data
	if !strings.HasPrefix(c.MarketData.BaseURL, "http://") && !strings.HasPrefix(c.MarketData.BaseURL, "https://") {
		return fmt.Errorf("market data base url must be http(s): %q", c.MarketData.BaseURL)
	}
	if c.MarketData.PerPage < 1 || c.MarketData.PerPage > 250 {
		return fmt.Errorf("per_page must be between 1 and 250")
	}
	if c.MarketData.SearchLimit < 1 {
		return fmt.Errorf("search_limit must be greater than 0")
	}
	if !ValidChartDays(c.MarketData.DefaultChartDays) {
		return fmt.Errorf("default_chart_days must be one of %v", ChartDays)
	}
	if c.MarketData.ChartMaxPoints < 2 {
		return fmt.Errorf("chart_max_points must be at least 2")
	}
	if c.MarketData.DebounceMs < 0 {
		return fmt.Errorf("debounce_ms cannot be negative")
	}
	if c.MarketData.QueryRegistrySize < 1 {
		return fmt.Errorf("query_registry_size must be greater than 0")
	}

	// Cache
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("redis address cannot be empty for redis cache")
		}
	default:
		return fmt.Errorf("unsupported cache backend: %q", c.Cache.Backend)
	}
	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache ttl cannot be negative")
	}

	return nil
}

// -----------------------------------------------------------------------------

// ValidChartDays reports whether days is an offered chart range
func ValidChartDays(days int) bool {
	for _, d := range ChartDays {
		if d == days {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------

// Save persists the current configuration to the specified YAML file path
func (c *Config) Save(configPath string) error {
	// 1. Marshal the struct to YAML
	data, err := yaml.Marshal(c.MConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	// 2. Write to file (0644 permissions)
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config to file '%s': %w", configPath, err)
	}

	return nil
}
