// Package config loads service settings from defaults, an optional YAML
// file and HARVEST_* environment variables, in rising precedence.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	AI         AIConfig         `mapstructure:"ai"`
	FoodData   FoodDataConfig   `mapstructure:"food_data"`
	Nutrition  NutritionConfig  `mapstructure:"nutrition"`
	Recipes    RecipesConfig    `mapstructure:"recipes"`
	Session    SessionConfig    `mapstructure:"session"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`

	// File is the config file that was read, empty when running on defaults.
	File string `mapstructure:"-"`
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
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	MaxHeaderBytes    int           `mapstructure:"max_header_bytes"`
	MaxBodyBytes      int64         `mapstructure:"max_body_bytes"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	EnableCORS        bool          `mapstructure:"enable_cors"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
	EnableCompression bool          `mapstructure:"enable_compression"`
	EnableH2C         bool          `mapstructure:"enable_h2c"`
	RateLimitRequests int           `mapstructure:"rate_limit_requests"` // 0 disables
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	ReadReplicas    []string      `mapstructure:"read_replicas"`
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	MaxRetries   int           `mapstructure:"max_retries"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// AIConfig contains generative model configuration
type AIConfig struct {
	// Backend is "gemini" for the Gemini API or "vertex" for Vertex AI.
	Backend     string        `mapstructure:"backend"`
	APIKey      string        `mapstructure:"api_key"`
	Project     string        `mapstructure:"project"`
	Location    string        `mapstructure:"location"`
	TextModel   string        `mapstructure:"text_model"`
	ImageModel  string        `mapstructure:"image_model"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// FoodDataConfig contains the food catalog client configuration
type FoodDataConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	UserAgent         string        `mapstructure:"user_agent"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

// NutritionConfig contains reconciler tuning
type NutritionConfig struct {
	PortionFactor float64 `mapstructure:"portion_factor"`
}

// RecipesConfig contains recipe generation settings
type RecipesConfig struct {
	Count            int `mapstructure:"count"`
	CatalogMatches   int `mapstructure:"catalog_matches"`
	MaxEnhanced      int `mapstructure:"max_enhanced"`
	ImageConcurrency int `mapstructure:"image_concurrency"`
}

// SessionConfig contains visitor session settings
type SessionConfig struct {
	CookieName   string        `mapstructure:"cookie_name"`
	Lifetime     time.Duration `mapstructure:"lifetime"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
	WorkspaceTTL time.Duration `mapstructure:"workspace_ttl"`
}

// StorageConfig contains generated image storage configuration
type StorageConfig struct {
	// Provider is "inline" (data URIs) or "s3".
	Provider        string `mapstructure:"provider"`
	S3Bucket        string `mapstructure:"s3_bucket"`
	S3Region        string `mapstructure:"s3_region"`
	S3Endpoint      string `mapstructure:"s3_endpoint"`
	S3Prefix        string `mapstructure:"s3_prefix"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
}

// MonitoringConfig contains monitoring configuration
type MonitoringConfig struct {
	EnableMetrics   bool    `mapstructure:"enable_metrics"`
	EnableTracing   bool    `mapstructure:"enable_tracing"`
	OTLPEndpoint    string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure    bool    `mapstructure:"otlp_insecure"`
	SamplingRate    float64 `mapstructure:"sampling_rate"`
	HealthCheckPath string  `mapstructure:"health_check_path"`
	ReadinessPath   string  `mapstructure:"readiness_path"`
	MetricsPath     string  `mapstructure:"metrics_path"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v, err := newViper(configPath)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

// Watch loads the configuration and, when it came from a file, reloads it on
// every write. fn receives each valid reload; invalid edits go to onError and
// the previous configuration stays in effect.
func Watch(configPath string, fn func(*Config), onError func(error)) (*Config, error) {
	v, err := newViper(configPath)
	if err != nil {
		return nil, err
	}

	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}

	if cfg.File == "" {
		return cfg, nil
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		next, err := decode(v)
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("reload %s: %w", e.Name, err))
			}
			return
		}
		fn(next)
	})
	v.WatchConfig()

	return cfg, nil
}

func newViper(configPath string) (*viper.Viper, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/harvest")
	}

	v.SetEnvPrefix("HARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var notFound viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.File = v.ConfigFileUsed()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Harvest Chef")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.request_timeout", "110s")
	v.SetDefault("server.max_header_bytes", 1<<20) // 1MB
	v.SetDefault("server.max_body_bytes", 10<<20)  // photos arrive as data URIs
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.enable_cors", true)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.enable_compression", true)
	v.SetDefault("server.enable_h2c", false)
	v.SetDefault("server.rate_limit_requests", 30)
	v.SetDefault("server.rate_limit_window", "1m")

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "harvest.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "harvest")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.username", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.read_replicas", []string{})

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("redis.key_prefix", "harvest:")

	// AI defaults
	v.SetDefault("ai.backend", "gemini")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.project", "")
	v.SetDefault("ai.location", "us-central1")
	v.SetDefault("ai.text_model", "gemini-2.0-flash")
	v.SetDefault("ai.image_model", "gemini-2.0-flash-preview-image-generation")
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("ai.timeout", "90s")

	// Food data defaults
	v.SetDefault("food_data.base_url", "https://world.openfoodfacts.org")
	v.SetDefault("food_data.user_agent", "HarvestChef/1.0 (contact@harvest-chef.app)")
	v.SetDefault("food_data.timeout", "10s")
	v.SetDefault("food_data.requests_per_second", 0)
	v.SetDefault("food_data.burst", 5)
	v.SetDefault("food_data.cache_ttl", "6h")

	v.SetDefault("nutrition.portion_factor", 0.5)

	v.SetDefault("recipes.count", 3)
	v.SetDefault("recipes.catalog_matches", 2)
	v.SetDefault("recipes.max_enhanced", 5)
	v.SetDefault("recipes.image_concurrency", 4)

	// Session defaults
	v.SetDefault("session.cookie_name", "harvest_session")
	v.SetDefault("session.lifetime", "168h")
	v.SetDefault("session.idle_timeout", "24h")
	v.SetDefault("session.cookie_secure", false)
	v.SetDefault("session.workspace_ttl", "24h")

	v.SetDefault("storage.provider", "inline")
	v.SetDefault("storage.s3_region", "us-east-1")
	v.SetDefault("storage.s3_prefix", "recipe-images/")
	v.SetDefault("storage.s3_bucket", "")
	v.SetDefault("storage.s3_endpoint", "")
	v.SetDefault("storage.access_key_id", "")
	v.SetDefault("storage.secret_access_key", "")
	v.SetDefault("storage.public_base_url", "")

	// Monitoring defaults
	v.SetDefault("monitoring.enable_metrics", true)
	v.SetDefault("monitoring.enable_tracing", false)
	v.SetDefault("monitoring.otlp_endpoint", "localhost:4318")
	v.SetDefault("monitoring.otlp_insecure", true)
	v.SetDefault("monitoring.sampling_rate", 0.1)
	v.SetDefault("monitoring.health_check_path", "/health")
	v.SetDefault("monitoring.readiness_path", "/ready")
	v.SetDefault("monitoring.metrics_path", "/metrics")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.Server.RateLimitRequests < 0 {
		return fmt.Errorf("server.rate_limit_requests must not be negative")
	}
	if c.Server.RateLimitRequests > 0 && c.Server.RateLimitWindow <= 0 {
		return fmt.Errorf("server.rate_limit_window must be positive when rate limiting is enabled")
	}

	switch c.Database.Driver {
	case "sqlite":
	case "postgres":
		if c.Database.Database == "" {
			return fmt.Errorf("database.database is required for postgres")
		}
	default:
		return fmt.Errorf("database.driver must be sqlite or postgres, got %q", c.Database.Driver)
	}

	switch c.AI.Backend {
	case "gemini":
		if c.AI.APIKey == "" && c.IsProduction() {
			return fmt.Errorf("ai.api_key is required in production")
		}
	case "vertex":
		if c.AI.Project == "" {
			return fmt.Errorf("ai.project is required for the vertex backend")
		}
	default:
		return fmt.Errorf("ai.backend must be gemini or vertex, got %q", c.AI.Backend)
	}

	if c.Nutrition.PortionFactor <= 0 || c.Nutrition.PortionFactor > 1 {
		return fmt.Errorf("nutrition.portion_factor must be in (0, 1]")
	}

	if c.Recipes.Count < 1 {
		return fmt.Errorf("recipes.count must be at least 1")
	}

	switch c.Storage.Provider {
	case "inline":
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("storage.s3_bucket is required for the s3 provider")
		}
	default:
		return fmt.Errorf("storage.provider must be inline or s3, got %q", c.Storage.Provider)
	}

	return nil
}

func (c *Config) IsProduction() bool  { return c.App.Environment == "production" }
func (c *Config) IsDevelopment() bool { return c.App.Environment == "development" }

// GetDSN renders the postgres URL. Credentials are escaped.
func (c *Config) GetDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.Username, c.Database.Password),
		Host:     net.JoinHostPort(c.Database.Host, strconv.Itoa(c.Database.Port)),
		Path:     "/" + c.Database.Database,
		RawQuery: url.Values{"sslmode": {c.Database.SSLMode}}.Encode(),
	}
	return u.String()
}

// RedisAddr returns host:port for the Redis client.
func (c *Config) RedisAddr() string {
	return net.JoinHostPort(c.Redis.Host, strconv.Itoa(c.Redis.Port))
}

// ListenAddr returns host:port for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
