// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Host           string // interface to listen on, loopback by default
	Port           string
	APIBaseURL     string
	DBPath         string
	FrontendURL    string
	AllowedOrigins []string
	APITimeout     time.Duration // 0 = no client-side timeout
	ListCacheTTL   time.Duration
	DefaultDoctor  string
	MetricsEnabled bool
	Payments       PaymentsConfig
	Log            LogConfig
}

// PaymentsConfig controls the paid booking flow.
type PaymentsConfig struct {
	Enabled        bool
	PublishableKey string
	Fee            int64 // minor currency units
	Currency       string
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level slog.Level
	File  string // empty = stdout
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg := &Config{
		Host:           getEnv("HOST", "127.0.0.1"),
		Port:           getEnv("PORT", "8080"),
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:5020/api"),
		DBPath:         getEnv("DB_PATH", "./data/console.db"),
		FrontendURL:    getEnv("FRONTEND_URL", ""),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS"),
		APITimeout:     getEnvDuration("API_TIMEOUT", 0),
		ListCacheTTL:   getEnvDuration("LIST_CACHE_TTL", 30*time.Second),
		DefaultDoctor:  getEnv("DEFAULT_DOCTOR", "Admin Doctor"),
		MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
		Payments: PaymentsConfig{
			Enabled:        getEnvBool("PAYMENTS_ENABLED", false),
			PublishableKey: getEnv("STRIPE_PUBLISHABLE_KEY", ""),
			Fee:            int64(getEnvInt("APPOINTMENT_FEE", 5000)),
			Currency:       strings.ToLower(getEnv("APPOINTMENT_CURRENCY", "usd")),
		},
		Log: LogConfig{
			Level: level,
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if len(cfg.AllowedOrigins) == 0 && cfg.FrontendURL != "" {
		cfg.AllowedOrigins = []string{cfg.FrontendURL}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("API_BASE_URL must be an absolute URL, got %q", c.APIBaseURL)
	}
	if c.APITimeout < 0 {
		return fmt.Errorf("API_TIMEOUT must be >= 0")
	}
	if c.ListCacheTTL < 0 {
		return fmt.Errorf("LIST_CACHE_TTL must be >= 0")
	}
	if c.Payments.Enabled {
		if c.Payments.PublishableKey == "" {
			return fmt.Errorf("STRIPE_PUBLISHABLE_KEY is required when PAYMENTS_ENABLED is set")
		}
		if c.Payments.Fee <= 0 {
			return fmt.Errorf("APPOINTMENT_FEE must be > 0")
		}
		if len(c.Payments.Currency) != 3 {
			return fmt.Errorf("APPOINTMENT_CURRENCY must be a 3-letter code, got %q", c.Payments.Currency)
		}
	}
	return nil
}

// Addr returns the listen address of the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}
