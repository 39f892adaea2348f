package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds demo merchant configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	EsewaSecret        string
	EsewaProductCode   string
	EsewaProduction    bool
	PaymentURL         string
	StatusCheckURL     string
	SuccessURL         string
	FailureURL         string
	StatusTimeout      time.Duration
	CORSAllowedOrigins []string
	LogFormat          string
	LogLevel           string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		EsewaSecret:        k.String("ESEWA_SECRET"),
		EsewaProductCode:   k.String("ESEWA_PRODUCT_CODE"),
		EsewaProduction:    parseBool(k.String("ESEWA_PRODUCTION")),
		PaymentURL:         strings.TrimSpace(k.String("ESEWA_PAYMENT_URL")),
		StatusCheckURL:     strings.TrimSpace(k.String("ESEWA_STATUS_CHECK_URL")),
		SuccessURL:         strings.TrimSpace(k.String("ESEWA_SUCCESS_URL")),
		FailureURL:         strings.TrimSpace(k.String("ESEWA_FAILURE_URL")),
		StatusTimeout:      parseDuration(k.String("ESEWA_STATUS_TIMEOUT"), "30s"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		LogFormat:          valueOrDefault(k.String("LOG_FORMAT"), "json"),
		LogLevel:           valueOrDefault(k.String("LOG_LEVEL"), "info"),
	}

	if cfg.EsewaSecret == "" {
		return nil, errors.New("ESEWA_SECRET is required")
	}
	if cfg.EsewaProductCode == "" {
		return nil, errors.New("ESEWA_PRODUCT_CODE is required")
	}
	if cfg.SuccessURL == "" {
		return nil, errors.New("ESEWA_SUCCESS_URL is required")
	}
	if cfg.FailureURL == "" {
		return nil, errors.New("ESEWA_FAILURE_URL is required")
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
