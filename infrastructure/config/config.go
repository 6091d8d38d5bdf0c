// Package config loads and validates service configuration from the
// environment and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"datapoint-service/pkg/trace"

	"github.com/spf13/viper"
)

// Store backends
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreDynamoDB = "dynamodb"
)

// Metrics backends
const (
	MetricsPrometheus = "prometheus"
	MetricsCloudWatch = "cloudwatch"
	MetricsNone       = "none"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `mapstructure:"SERVER_ADDRESS"`
	Environment   string `mapstructure:"ENVIRONMENT"`

	// Logging
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Request tracing
	TraceIDHeader          string `mapstructure:"TRACE_ID_HEADER"`
	TraceAdditionalHeaders string `mapstructure:"TRACE_ADDITIONAL_HEADERS"`
	TraceSensitiveHeaders  string `mapstructure:"TRACE_SENSITIVE_HEADERS"`

	// Persistence
	StoreBackend  string `mapstructure:"STORE_BACKEND"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	DynamoDBTable string `mapstructure:"DYNAMODB_TABLE"`

	// AWS configuration
	AWSRegion    string `mapstructure:"AWS_REGION"`
	EventBusName string `mapstructure:"EVENT_BUS_NAME"`

	// Upstream data point service
	ExternalServiceBaseURL  string        `mapstructure:"EXTERNAL_SERVICE_BASE_URL"`
	ExternalServiceTimeout  time.Duration `mapstructure:"EXTERNAL_SERVICE_TIMEOUT"`
	ExternalServiceRetryMax int           `mapstructure:"EXTERNAL_SERVICE_RETRY_MAX"`

	// Feature flags
	MetricsBackend     string `mapstructure:"METRICS_BACKEND"`
	EnableTracing      bool   `mapstructure:"ENABLE_TRACING"`
	CORSAllowedOrigins string `mapstructure:"CORS_ALLOWED_ORIGINS"`
}

// Load reads .env (if present), then builds and validates Config from the
// environment. Env vars override .env.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("SERVER_ADDRESS", ":8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TRACE_ID_HEADER", trace.DefaultHeaderName)
	v.SetDefault("TRACE_ADDITIONAL_HEADERS", "")
	v.SetDefault("TRACE_SENSITIVE_HEADERS", "authorization")
	v.SetDefault("STORE_BACKEND", StoreMemory)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DYNAMODB_TABLE", "data-points")
	v.SetDefault("AWS_REGION", "eu-north-1")
	v.SetDefault("EVENT_BUS_NAME", "")
	v.SetDefault("EXTERNAL_SERVICE_BASE_URL", "http://localhost:8081")
	v.SetDefault("EXTERNAL_SERVICE_TIMEOUT", "10s")
	v.SetDefault("EXTERNAL_SERVICE_RETRY_MAX", 0)
	v.SetDefault("METRICS_BACKEND", MetricsPrometheus)
	v.SetDefault("ENABLE_TRACING", false)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.ServerAddress == "" {
		return errors.New("config: SERVER_ADDRESS must be set")
	}

	switch c.StoreBackend {
	case StoreMemory, StoreDynamoDB:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL must be set when STORE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.MetricsBackend {
	case MetricsPrometheus, MetricsCloudWatch, MetricsNone:
	default:
		return fmt.Errorf("config: unknown METRICS_BACKEND %q", c.MetricsBackend)
	}

	u, err := url.Parse(c.ExternalServiceBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: invalid EXTERNAL_SERVICE_BASE_URL %q", c.ExternalServiceBaseURL)
	}

	if c.ExternalServiceTimeout <= 0 {
		return errors.New("config: EXTERNAL_SERVICE_TIMEOUT must be positive")
	}
	if c.ExternalServiceRetryMax < 0 {
		return errors.New("config: EXTERNAL_SERVICE_RETRY_MAX must not be negative")
	}

	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// TraceSettings builds the trace middleware settings
func (c *Config) TraceSettings() trace.Settings {
	settings := trace.DefaultSettings()
	if c.TraceIDHeader != "" {
		settings.HeaderName = c.TraceIDHeader
	}
	settings.AdditionalHeaders = trace.ParseAdditionalHeaders(c.TraceAdditionalHeaders)
	for _, h := range splitList(c.TraceSensitiveHeaders) {
		if !settings.IsSensitive(h) {
			settings.SensitiveHeaders = append(settings.SensitiveHeaders, strings.ToLower(h))
		}
	}
	return settings
}

// CORSOrigins returns the allowed origins as a list
func (c *Config) CORSOrigins() []string {
	return splitList(c.CORSAllowedOrigins)
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
