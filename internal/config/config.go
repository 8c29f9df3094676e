package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Pipeline     PipelineConfig     `mapstructure:"pipeline"`
	Venue        VenueConfig        `mapstructure:"venue"`
	RemoteAgents RemoteAgentsConfig `mapstructure:"remote_agents"`
	API          APIConfig          `mapstructure:"api"`
	Monitoring   MonitoringConfig   `mapstructure:"monitoring"`
}

// AppConfig contains application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"` // development, staging, production
	LogLevel    string `mapstructure:"log_level"`
}

// DatabaseConfig contains PostgreSQL/TimescaleDB settings
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"ssl_mode"`
	PoolSize int    `mapstructure:"pool_size"`
}

// RedisConfig contains Redis settings for the execution queue and lock.
type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// PipelineConfig drives the scheduler and orchestrator: which account/
// symbol/timeframe to run, how often, and whether agents run in-process or
// as remote microservices.
type PipelineConfig struct {
	Mode              string `mapstructure:"mode"` // "in-process" or "remote"
	DefaultAccountID  string `mapstructure:"default_account_id"`
	DefaultSymbol     string `mapstructure:"default_symbol"`
	DefaultTimeframe  string `mapstructure:"default_timeframe"`
	IntervalMS        int    `mapstructure:"interval_ms"`
	MarketDataBaseURL string `mapstructure:"market_data_base_url"`
}

// VenueConfig selects and configures the execution worker's venue adapter.
// Name selects among "venue_a" (Bybit-shaped linear perpetual), "venue_b"
// (Binance-shaped futures), or "mock" (paper trading, the default).
// LiveExecutionEnabled gates every venue HTTP call; when false, pending
// trade signals are rejected without ever reaching the venue.
type VenueConfig struct {
	Name                 string `mapstructure:"name"`
	LiveExecutionEnabled bool   `mapstructure:"live_execution_enabled"`
	APIKey               string `mapstructure:"api_key"`
	APISecret            string `mapstructure:"api_secret"`
	BaseURL              string `mapstructure:"base_url"`
	RecvWindow           string `mapstructure:"recv_window"` // venue_a only; defaults to "5000"
}

// RemoteAgentsConfig maps each of the nine fixed agent names to the host:port
// its microservice binary listens on. Used only when Pipeline.Mode is
// "remote".
type RemoteAgentsConfig struct {
	BaseURL string         `mapstructure:"base_url"`
	Ports   map[string]int `mapstructure:"ports"`
}

// FeeConfig contains a paper-trading venue's simulated fee/slippage model.
type FeeConfig struct {
	Maker        float64 `mapstructure:"maker"`         // Maker fee percentage (e.g., 0.001 = 0.1%)
	Taker        float64 `mapstructure:"taker"`         // Taker fee percentage (e.g., 0.001 = 0.1%)
	BaseSlippage float64 `mapstructure:"base_slippage"` // Base slippage percentage (e.g., 0.0005 = 0.05%)
	MarketImpact float64 `mapstructure:"market_impact"` // Market impact per unit (e.g., 0.0001 = 0.01%)
	MaxSlippage  float64 `mapstructure:"max_slippage"`  // Maximum slippage percentage (e.g., 0.003 = 0.3%)
	Withdrawal   float64 `mapstructure:"withdrawal"`    // Withdrawal fee percentage (optional)
}

// APIConfig contains the control-plane HTTP server settings.
type APIConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// MonitoringConfig contains monitoring settings
type MonitoringConfig struct {
	PrometheusPort int  `mapstructure:"prometheus_port"`
	EnableMetrics  bool `mapstructure:"enable_metrics"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Enable environment variable overrides
	v.AutomaticEnv()
	v.SetEnvPrefix("CRYPTOFUNK")

	// Set defaults
	setDefaults(v)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found; using defaults and environment variables
	}

	// Unmarshal into struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration using comprehensive validation
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "CryptoFunk")
	v.SetDefault("app.version", Version)
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.database", "cryptofunk")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.pool_size", 10)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Pipeline defaults
	v.SetDefault("pipeline.mode", "in-process")
	v.SetDefault("pipeline.default_account_id", "default")
	v.SetDefault("pipeline.default_symbol", "BTCUSDT")
	v.SetDefault("pipeline.default_timeframe", "1h")
	v.SetDefault("pipeline.interval_ms", 60000)
	v.SetDefault("pipeline.market_data_base_url", "https://api.binance.com")

	// Venue defaults: mock (paper trading) until live execution is explicitly configured
	v.SetDefault("venue.name", "mock")
	v.SetDefault("venue.live_execution_enabled", false)
	v.SetDefault("venue.recv_window", "5000")

	// Remote agent defaults - only consulted when pipeline.mode=remote
	v.SetDefault("remote_agents.base_url", "http://localhost")
	v.SetDefault("remote_agents.ports.market-structure", 9101)
	v.SetDefault("remote_agents.ports.order-flow", 9102)
	v.SetDefault("remote_agents.ports.momentum", 9103)
	v.SetDefault("remote_agents.ports.volatility-regime", 9104)
	v.SetDefault("remote_agents.ports.news-sentiment", 9105)
	v.SetDefault("remote_agents.ports.multi-timeframe", 9106)
	v.SetDefault("remote_agents.ports.pattern-recognition", 9107)
	v.SetDefault("remote_agents.ports.statistical-edge", 9108)
	v.SetDefault("remote_agents.ports.risk-manager", 9109)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8081)

	// Monitoring defaults
	v.SetDefault("monitoring.prometheus_port", 9100)
	v.SetDefault("monitoring.enable_metrics", true)
}

// Note: Comprehensive validation is now in validation.go
// The Config.Validate() method is called during Load()

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetAPIAddr returns the control-plane server address
func (c *APIConfig) GetAPIAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
