package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`
	BaseURL     string `env:"BASE_URL" validate:"omitempty,url"`

	AdminJWTSecret string `env:"ADMIN_JWT_SECRET,required" validate:"required,min=32"`

	CartAPIURL  string        `env:"CART_API_URL" validate:"omitempty,url"`
	CartTimeout time.Duration `env:"CART_TIMEOUT" envDefault:"10s" validate:"gt=0"`

	CacheProvider         string        `env:"CACHE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	SessionStoreProvider  string        `env:"SESSION_STORE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	RedisConnectionString string        `env:"REDIS_CONNECTION_STRING" envDefault:"redis://localhost:6379/0" validate:"required_if=CacheProvider redis,required_if=SessionStoreProvider redis"`
	ProductCacheTTL       time.Duration `env:"PRODUCT_CACHE_TTL" envDefault:"5m" validate:"gt=0"`
	SelectionTTL          time.Duration `env:"SELECTION_TTL" envDefault:"24h" validate:"gt=0"`

	ResendAPIKey   string `env:"RESEND_API_KEY"`
	AlertEmailFrom string `env:"ALERT_EMAIL_FROM" validate:"omitempty,email"`
	AlertEmailTo   string `env:"ALERT_EMAIL_TO" validate:"omitempty,email"`

	LargeSizeSurcharge  float64 `env:"LARGE_SIZE_SURCHARGE" envDefault:"250" validate:"gte=0"`
	LegacyPlayerPricing bool    `env:"LEGACY_PLAYER_PRICING" envDefault:"false"`

	SentryDSN              string  `env:"SENTRY_DSN"`
	SentryEnvironment      string  `env:"SENTRY_ENVIRONMENT" envDefault:"development"`
	SentryTracesSampleRate float64 `env:"SENTRY_TRACES_SAMPLE_RATE" envDefault:"0.2" validate:"gte=0,lte=1"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text" validate:"omitempty,oneof=text json"`
	Port      string     `env:"PORT" envDefault:"8080"`
}

var configValidator = validator.New()

func Load() (*Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// AlertsEnabled reports whether low-stock alert emails can be sent.
func (c *Config) AlertsEnabled() bool {
	return strings.TrimSpace(c.ResendAPIKey) != "" && strings.TrimSpace(c.AlertEmailTo) != ""
}

// SecureCookies reports whether session cookies should carry the Secure flag.
func (c *Config) SecureCookies() bool {
	parsed, err := url.Parse(strings.TrimSpace(c.BaseURL))
	if err != nil {
		return false
	}
	return strings.EqualFold(parsed.Scheme, "https")
}

func (c *Config) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}

	hasAPIKey := strings.TrimSpace(c.ResendAPIKey) != ""
	hasRecipient := strings.TrimSpace(c.AlertEmailTo) != ""
	if hasAPIKey != hasRecipient {
		return fmt.Errorf("RESEND_API_KEY and ALERT_EMAIL_TO must be set together")
	}
	if hasAPIKey && strings.TrimSpace(c.AlertEmailFrom) == "" {
		return fmt.Errorf("ALERT_EMAIL_FROM is required when low stock alerts are enabled")
	}

	baseURL := strings.TrimSpace(c.BaseURL)
	if baseURL != "" {
		parsed, err := url.Parse(baseURL)
		if err != nil || parsed.Hostname() == "" {
			return fmt.Errorf("BASE_URL must be a valid absolute URL")
		}
		if !isLocalHost(parsed.Hostname()) && !strings.EqualFold(parsed.Scheme, "https") {
			return fmt.Errorf("BASE_URL must use https outside local development")
		}
	}

	return nil
}

func isLocalHost(host string) bool {
	switch strings.ToLower(strings.TrimSpace(host)) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}
