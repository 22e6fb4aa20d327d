// Package common provides shared utilities for Kestrel
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the Kestrel wallet agent
type Config struct {
	Environment  string        `toml:"environment"`
	FiatCurrency string        `toml:"fiat_currency"` // Display currency for fiat conversions (default "USD")
	Server       ServerConfig  `toml:"server"`
	Backend      BackendConfig `toml:"backend"`
	Session      SessionConfig `toml:"session"`
	Polling      PollingConfig `toml:"polling"`
	Logging      LoggingConfig `toml:"logging"`
}

// ServerConfig holds the local status endpoint configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// BackendConfig holds wallet backend API configuration
type BackendConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *BackendConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// SessionConfig holds session store configuration
type SessionConfig struct {
	Path string `toml:"path"` // BadgerHold directory for the token store
}

// PollingConfig holds per-feed poll intervals as duration strings
type PollingConfig struct {
	User         string `toml:"user"`
	Transactions string `toml:"transactions"`
	Approvals    string `toml:"approvals"`
	Account      string `toml:"account"`
}

func parseInterval(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// GetUserInterval returns the user feed poll interval
func (c *PollingConfig) GetUserInterval() time.Duration {
	return parseInterval(c.User, DefaultUserInterval)
}

// GetTransactionsInterval returns the transactions feed poll interval
func (c *PollingConfig) GetTransactionsInterval() time.Duration {
	return parseInterval(c.Transactions, DefaultTransactionsInterval)
}

// GetApprovalsInterval returns the approvals feed poll interval
func (c *PollingConfig) GetApprovalsInterval() time.Duration {
	return parseInterval(c.Approvals, DefaultApprovalsInterval)
}

// GetAccountInterval returns the account/balances feed poll interval
func (c *PollingConfig) GetAccountInterval() time.Duration {
	return parseInterval(c.Account, DefaultAccountInterval)
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment:  "development",
		FiatCurrency: "USD",
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8455,
		},
		Backend: BackendConfig{
			BaseURL:   "http://localhost:8080/api",
			RateLimit: 10,
			Timeout:   "30s",
		},
		Session: SessionConfig{
			Path: "data/session",
		},
		Polling: PollingConfig{
			User:         "5s",
			Transactions: "5s",
			Approvals:    "5s",
			Account:      "10s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	validateFiatCurrency(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("KESTREL_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("KESTREL_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("KESTREL_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if url := os.Getenv("KESTREL_BACKEND_URL"); url != "" {
		config.Backend.BaseURL = url
	}

	if level := os.Getenv("KESTREL_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("KESTREL_SESSION_PATH"); path != "" {
		config.Session.Path = path
	}

	if fc := os.Getenv("KESTREL_FIAT_CURRENCY"); fc != "" {
		config.FiatCurrency = strings.ToUpper(fc)
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// validateFiatCurrency ensures FiatCurrency is a known fiat code, defaulting to "USD".
func validateFiatCurrency(config *Config) {
	fc := strings.ToUpper(config.FiatCurrency)
	switch fc {
	case "USD", "EUR", "GBP", "CHF", "CAD", "AUD", "NGN", "JPY":
	default:
		fc = "USD"
	}
	config.FiatCurrency = fc
}
