package models

// MConfig Structure
type MConfig struct {
	Name       string            `yaml:"name"`
	Host       string            `yaml:"host"`
	Port       int               `yaml:"port"`
	LogLevel   string            `yaml:"log_level"`
	GrpcHost   string            `yaml:"grpc_host"`
	GrpcPort   int               `yaml:"grpc_port"`
	Storage    MStorageConfig    `yaml:"storage"`
	Network    MNetworkConfig    `yaml:"network"`
	MarketData MMarketDataConfig `yaml:"market_data"`
	Cache      MCacheConfig      `yaml:"cache"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MNetworkConfig struct {
	Enabled                 bool     `yaml:"enabled"`
	Proxies                 []string `yaml:"proxies"`
	RequestTimeout          int      `yaml:"timeout"`
	MaxRetries              int      `yaml:"retries"`
	ConcurrentRequests      int      `yaml:"concurrent_requests"`
	UserAgent               string   `yaml:"user_agent"`
	RateLimitPerSecond      float64  `yaml:"rate_limit_per_second"`
	RateLimitBurst          int      `yaml:"rate_limit_burst"`
	BreakerFailureThreshold int      `yaml:"breaker_failure_threshold"`
	BreakerTimeoutSeconds   int      `yaml:"breaker_timeout_seconds"`
}

type MMarketDataConfig struct {
	BaseURL           string `yaml:"base_url"`
	APIKey            string `yaml:"api_key"` // Optional (demo key header)
	VsCurrency        string `yaml:"vs_currency"`
	PerPage           int    `yaml:"per_page"`
	SearchLimit       int    `yaml:"search_limit"`
	FeaturedSymbol    string `yaml:"featured_symbol"`
	DefaultChartDays  int    `yaml:"default_chart_days"`
	ChartMaxPoints    int    `yaml:"chart_max_points"`
	DebounceMs        int    `yaml:"debounce_ms"`
	QueryRegistrySize int    `yaml:"query_registry_size"` // Views kept per query kind
}

type MCacheConfig struct {
	Backend       string `yaml:"backend"` // "memory" or "redis"
	TTLSeconds    int    `yaml:"ttl_seconds"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	KeyPrefix     string `yaml:"key_prefix"`
}
