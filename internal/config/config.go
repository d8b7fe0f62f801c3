package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	App        AppConfig
	RandomUser RandomUserConfig
	List       ListConfig
	Redis      RedisConfig
	RateLimit  RateLimitConfig
	Logger     LoggerConfig
}

// AppConfig holds configuration for the application server
type AppConfig struct {
	HTTPPort               string `mapstructure:"HTTP_PORT" validate:"required,numeric"`
	ShutdownTimeoutSeconds int    `mapstructure:"SHUTDOWN_TIMEOUT_SECONDS" validate:"min=1"`
}

// RandomUserConfig holds configuration for the remote user source
type RandomUserConfig struct {
	BaseURL             string `mapstructure:"RANDOMUSER_BASE_URL" validate:"required,url"`
	PageSize            int    `mapstructure:"RANDOMUSER_PAGE_SIZE" validate:"min=1,max=5000"`
	Seed                string `mapstructure:"RANDOMUSER_SEED"`
	FetchTimeoutSeconds int    `mapstructure:"RANDOMUSER_FETCH_TIMEOUT_SECONDS" validate:"min=0"`
}

// ListConfig holds the list controller timing and paging policy
type ListConfig struct {
	WarmUpDelayMS         int  `mapstructure:"WARMUP_DELAY_MS" validate:"min=0"`
	LoadMoreDelayMS       int  `mapstructure:"LOAD_MORE_DELAY_MS" validate:"min=0"`
	RollbackPageOnFailure bool `mapstructure:"ROLLBACK_PAGE_ON_FAILURE"`
	AutoStart             bool `mapstructure:"LIST_AUTO_START"`
}

// RedisConfig holds configuration for the page cache and rate limiter backend
type RedisConfig struct {
	Enabled         bool   `mapstructure:"REDIS_ENABLED"`
	Host            string `mapstructure:"REDIS_HOST" validate:"required_if=Enabled true"`
	Port            string `mapstructure:"REDIS_PORT" validate:"required_if=Enabled true"`
	Password        string `mapstructure:"REDIS_PASSWORD"`
	DB              int    `mapstructure:"REDIS_DB" validate:"min=0"`
	MaxRetries      int    `mapstructure:"REDIS_MAX_RETRIES" validate:"min=0"`
	PoolSize        int    `mapstructure:"REDIS_POOL_SIZE" validate:"min=0"`
	MinIdleConn     int    `mapstructure:"REDIS_MIN_IDLE_CONN" validate:"min=0"`
	CacheTTLSeconds int    `mapstructure:"CACHE_TTL_SECONDS" validate:"min=1"`
}

// RateLimitConfig holds configuration for gesture throttling
type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"RATE_LIMIT_ENABLED"`
	RequestsPerSecond float64 `mapstructure:"RATE_LIMIT_RPS" validate:"gt=0"`
	BurstCapacity     int     `mapstructure:"RATE_LIMIT_BURST" validate:"min=1"`
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level          string `mapstructure:"LOG_LEVEL" validate:"oneof=debug info warn warning error dpanic panic fatal"`
	Format         string `mapstructure:"LOG_FORMAT" validate:"oneof=json console"`
	OutputPath     string `mapstructure:"LOG_OUTPUT_PATH"`
	EnableSampling bool   `mapstructure:"LOG_ENABLE_SAMPLING"`
	ServiceName    string `mapstructure:"SERVICE_NAME"`
	ServiceVersion string `mapstructure:"SERVICE_VERSION"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set defaults first
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("app") // Look for app.env
	v.SetConfigType("env")

	v.AutomaticEnv() // Read from environment variables

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if we have env vars
	}

	var config Config

	// Manually populate config from viper
	config.App.HTTPPort = v.GetString("HTTP_PORT")
	config.App.ShutdownTimeoutSeconds = v.GetInt("SHUTDOWN_TIMEOUT_SECONDS")

	config.RandomUser.BaseURL = v.GetString("RANDOMUSER_BASE_URL")
	config.RandomUser.PageSize = v.GetInt("RANDOMUSER_PAGE_SIZE")
	config.RandomUser.Seed = v.GetString("RANDOMUSER_SEED")
	config.RandomUser.FetchTimeoutSeconds = v.GetInt("RANDOMUSER_FETCH_TIMEOUT_SECONDS")

	config.List.WarmUpDelayMS = v.GetInt("WARMUP_DELAY_MS")
	config.List.LoadMoreDelayMS = v.GetInt("LOAD_MORE_DELAY_MS")
	config.List.RollbackPageOnFailure = v.GetBool("ROLLBACK_PAGE_ON_FAILURE")
	config.List.AutoStart = v.GetBool("LIST_AUTO_START")

	config.Redis.Enabled = v.GetBool("REDIS_ENABLED")
	config.Redis.Host = v.GetString("REDIS_HOST")
	config.Redis.Port = v.GetString("REDIS_PORT")
	config.Redis.Password = v.GetString("REDIS_PASSWORD")
	config.Redis.DB = v.GetInt("REDIS_DB")
	config.Redis.MaxRetries = v.GetInt("REDIS_MAX_RETRIES")
	config.Redis.PoolSize = v.GetInt("REDIS_POOL_SIZE")
	config.Redis.MinIdleConn = v.GetInt("REDIS_MIN_IDLE_CONN")
	config.Redis.CacheTTLSeconds = v.GetInt("CACHE_TTL_SECONDS")

	config.RateLimit.Enabled = v.GetBool("RATE_LIMIT_ENABLED")
	config.RateLimit.RequestsPerSecond = v.GetFloat64("RATE_LIMIT_RPS")
	config.RateLimit.BurstCapacity = v.GetInt("RATE_LIMIT_BURST")

	config.Logger.Level = v.GetString("LOG_LEVEL")
	config.Logger.Format = v.GetString("LOG_FORMAT")
	config.Logger.OutputPath = v.GetString("LOG_OUTPUT_PATH")
	config.Logger.EnableSampling = v.GetBool("LOG_ENABLE_SAMPLING")
	config.Logger.ServiceName = v.GetString("SERVICE_NAME")
	config.Logger.ServiceVersion = v.GetString("SERVICE_VERSION")

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("SHUTDOWN_TIMEOUT_SECONDS", 10)

	v.SetDefault("RANDOMUSER_BASE_URL", "https://randomuser.me")
	v.SetDefault("RANDOMUSER_PAGE_SIZE", 100)
	v.SetDefault("RANDOMUSER_SEED", "")
	v.SetDefault("RANDOMUSER_FETCH_TIMEOUT_SECONDS", 0)

	v.SetDefault("WARMUP_DELAY_MS", 3000)
	v.SetDefault("LOAD_MORE_DELAY_MS", 2000)
	v.SetDefault("ROLLBACK_PAGE_ON_FAILURE", false)
	v.SetDefault("LIST_AUTO_START", true)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_MAX_RETRIES", 3)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONN", 2)
	v.SetDefault("CACHE_TTL_SECONDS", 300)

	v.SetDefault("RATE_LIMIT_ENABLED", true)
	v.SetDefault("RATE_LIMIT_RPS", 0.5)
	v.SetDefault("RATE_LIMIT_BURST", 2)

	// Logger defaults
	env := v.GetString("APP_ENV")
	if env == "production" {
		v.SetDefault("LOG_LEVEL", "info")
		v.SetDefault("LOG_FORMAT", "json")
		v.SetDefault("LOG_ENABLE_SAMPLING", true)
	} else {
		v.SetDefault("LOG_LEVEL", "debug")
		v.SetDefault("LOG_FORMAT", "console")
		v.SetDefault("LOG_ENABLE_SAMPLING", false)
	}
	v.SetDefault("LOG_OUTPUT_PATH", "stdout")
	v.SetDefault("SERVICE_NAME", "user-browser-service")
	v.SetDefault("SERVICE_VERSION", "1.0.0")
}

// Validate checks every section of the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Addr returns the Redis address
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// CacheTTL returns the page cache TTL
func (c *RedisConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// WarmUpDelay returns the delay before the initial fetch
func (c *ListConfig) WarmUpDelay() time.Duration {
	return time.Duration(c.WarmUpDelayMS) * time.Millisecond
}

// LoadMoreDelay returns the delay before each load-more fetch
func (c *ListConfig) LoadMoreDelay() time.Duration {
	return time.Duration(c.LoadMoreDelayMS) * time.Millisecond
}

// FetchTimeout returns the per-fetch timeout, zero meaning none
func (c *RandomUserConfig) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}
