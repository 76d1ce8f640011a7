// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Session    SessionConfig    `mapstructure:"session"`
	Redis      RedisConfig      `mapstructure:"redis"`
	UI         UIConfig         `mapstructure:"ui"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	EnableCompression bool          `mapstructure:"enable_compression"`
}

// Catalog sources
const (
	SourceFiles  = "files"
	SourceSQLite = "sqlite"
)

// Malformed row policies
const (
	MalformedFail = "fail"
	MalformedSkip = "skip"
)

// CatalogConfig describes where the dish and spice tables come from
type CatalogConfig struct {
	Source        string `mapstructure:"source"`
	DishesPath    string `mapstructure:"dishes_path"`
	SpicesPath    string `mapstructure:"spices_path"`
	Sheet         string `mapstructure:"sheet"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	MalformedRows string `mapstructure:"malformed_rows"`
	Watch         bool   `mapstructure:"watch"`
}

// Session stores
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// SessionConfig contains browser session configuration
type SessionConfig struct {
	Store           string        `mapstructure:"store"`
	CookieName      string        `mapstructure:"cookie_name"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	SecureCookie    bool          `mapstructure:"secure_cookie"`
	// Secret keys the CSRF tokens. A random key is used when empty.
	Secret string `mapstructure:"secret"`
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host        string        `mapstructure:"host"`
	Port        int           `mapstructure:"port"`
	Password    string        `mapstructure:"password"`
	Database    int           `mapstructure:"database"`
	MaxRetries  int           `mapstructure:"max_retries"`
	PoolSize    int           `mapstructure:"pool_size"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// UIConfig controls page layout
type UIConfig struct {
	Title        string `mapstructure:"title"`
	ShelfColumns int    `mapstructure:"shelf_columns"`
	CardColumns  int    `mapstructure:"card_columns"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	RequestsPerMin  int           `mapstructure:"requests_per_min"`
	BurstSize       int           `mapstructure:"burst_size"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// MonitoringConfig contains monitoring configuration
type MonitoringConfig struct {
	EnableMetrics  bool          `mapstructure:"enable_metrics"`
	MetricsPath    string        `mapstructure:"metrics_path"`
	EnableTracing  bool          `mapstructure:"enable_tracing"`
	TracingURL     string        `mapstructure:"tracing_url"`
	ServiceName    string        `mapstructure:"service_name"`
	SamplingRate   float64       `mapstructure:"sampling_rate"`
	HealthCacheTTL time.Duration `mapstructure:"health_cache_ttl"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/spiceshelf")
	}

	// Enable environment variable override
	v.SetEnvPrefix("SPICESHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("server.port", "SPICESHELF_SERVER_PORT", "PORT")

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Spice Shelf")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.enable_compression", true)

	// Catalog defaults
	v.SetDefault("catalog.source", SourceFiles)
	v.SetDefault("catalog.dishes_path", "data/recipes.csv")
	v.SetDefault("catalog.spices_path", "data/spices.csv")
	v.SetDefault("catalog.sqlite_path", "data/catalog.db")
	v.SetDefault("catalog.malformed_rows", MalformedFail)
	v.SetDefault("catalog.watch", false)

	// Session defaults
	v.SetDefault("session.store", StoreMemory)
	v.SetDefault("session.cookie_name", "spiceshelf-session")
	v.SetDefault("session.ttl", "24h")
	v.SetDefault("session.cleanup_interval", "1h")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.key_prefix", "spiceshelf:basket:")

	// UI defaults
	v.SetDefault("ui.title", "Spice Shelf")
	v.SetDefault("ui.shelf_columns", 6)
	v.SetDefault("ui.card_columns", 3)

	// Rate limit defaults
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_min", 120)
	v.SetDefault("rate_limit.burst_size", 20)
	v.SetDefault("rate_limit.cleanup_interval", "5m")

	// Monitoring defaults
	v.SetDefault("monitoring.enable_metrics", true)
	v.SetDefault("monitoring.metrics_path", "/metrics")
	v.SetDefault("monitoring.enable_tracing", false)
	v.SetDefault("monitoring.tracing_url", "localhost:4318")
	v.SetDefault("monitoring.service_name", "spiceshelf")
	v.SetDefault("monitoring.sampling_rate", 0.1)
	v.SetDefault("monitoring.health_cache_ttl", "5s")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	switch c.Catalog.Source {
	case SourceFiles:
		if c.Catalog.DishesPath == "" || c.Catalog.SpicesPath == "" {
			return fmt.Errorf("catalog.dishes_path and catalog.spices_path are required")
		}
	case SourceSQLite:
		if c.Catalog.SQLitePath == "" {
			return fmt.Errorf("catalog.sqlite_path is required")
		}
	default:
		return fmt.Errorf("catalog.source must be %q or %q", SourceFiles, SourceSQLite)
	}

	if c.Catalog.MalformedRows != MalformedFail && c.Catalog.MalformedRows != MalformedSkip {
		return fmt.Errorf("catalog.malformed_rows must be %q or %q", MalformedFail, MalformedSkip)
	}

	if c.Session.Store != StoreMemory && c.Session.Store != StoreRedis {
		return fmt.Errorf("session.store must be %q or %q", StoreMemory, StoreRedis)
	}

	if c.UI.ShelfColumns < 1 || c.UI.CardColumns < 1 {
		return fmt.Errorf("ui.shelf_columns and ui.card_columns must be positive")
	}

	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// Address returns the HTTP listen address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
