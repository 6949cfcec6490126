// Package config provides application configuration management.
// Configuration is loaded from environment variables following 12-factor principles.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all application configuration.
// All fields are populated from environment variables.
type Config struct {
	// Application settings
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	AppPort int    `env:"APP_PORT" envDefault:"8080"`

	// Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`

	// Cache and audit rate limiting (Redis)
	RedisURL string `env:"REDIS_URL,required,notEmpty"`

	// Base URL the dashboard uses to reach the websites API.
	// Empty means this process serves the API itself on AppPort.
	APIBaseURL string `env:"API_BASE_URL" envDefault:""`

	// PageSpeed Insights
	PageSpeedAPIKey   string `env:"PAGESPEED_API_KEY" envDefault:""`
	PageSpeedEndpoint string `env:"PAGESPEED_ENDPOINT" envDefault:"https://www.googleapis.com/pagespeedonline/v5/runPagespeed"`

	// Audits allowed per website per hour (0 disables the limit)
	AuditRatePerHour int `env:"AUDIT_RATE_PER_HOUR" envDefault:"6"`

	// Metrics
	MetricsCacheTTL    time.Duration `env:"METRICS_CACHE_TTL" envDefault:"5m"`
	DefaultMetricsDays int           `env:"DEFAULT_METRICS_DAYS" envDefault:"30"`

	// Dashboard notifications
	NotificationTTL time.Duration `env:"NOTIFICATION_TTL" envDefault:"5s"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// Server timeouts
	ReadTimeout     time.Duration `env:"READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT" envDefault:"90s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// CORS configuration
	// Comma-separated list of allowed origins (e.g., "https://example.com,https://app.example.com")
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:""`

	// Request body size limit in bytes (default 1MB)
	MaxRequestBodySize int64 `env:"MAX_REQUEST_BODY_SIZE" envDefault:"1048576"`
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GetCORSAllowedOrigins parses the comma-separated origins string into a slice.
func (c *Config) GetCORSAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}

	origins := strings.Split(c.CORSAllowedOrigins, ",")
	result := make([]string, 0, len(origins))

	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}

// GetAPIBaseURL returns the URL the dashboard controller calls.
// Without an explicit API_BASE_URL it points back at this process.
func (c *Config) GetAPIBaseURL() string {
	if c.APIBaseURL != "" {
		return strings.TrimSuffix(c.APIBaseURL, "/")
	}
	return fmt.Sprintf("http://localhost:%d", c.AppPort)
}

// Load parses environment variables and returns a Config.
// Returns an error if required variables are missing or values are out of range.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.DefaultMetricsDays <= 0 {
		return nil, fmt.Errorf("DEFAULT_METRICS_DAYS must be positive, got %d", cfg.DefaultMetricsDays)
	}
	if cfg.AuditRatePerHour < 0 {
		return nil, fmt.Errorf("AUDIT_RATE_PER_HOUR must not be negative, got %d", cfg.AuditRatePerHour)
	}
	return cfg, nil
}
