package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config holds the connection and runtime configuration.
type Config struct {
	Service ServiceConfig
	Poll    PollConfig
	Fetch   FetchConfig
}

// ServiceConfig describes how to reach the execution service.
type ServiceConfig struct {
	BaseURL     string
	APIKey      string
	HTTPTimeout time.Duration
}

// PollConfig holds the status poll cadence.
type PollConfig struct {
	Grace           time.Duration
	Interval        time.Duration
	MaxMissingPolls int
}

// FetchConfig holds artifact download settings.
type FetchConfig struct {
	Concurrency int
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		Service: ServiceConfig{
			BaseURL:     getEnv("COMFY_BASE_URL", "http://127.0.0.1:8188"),
			APIKey:      getEnv("COMFY_API_KEY", ""),
			HTTPTimeout: getEnvAsDuration("COMFY_HTTP_TIMEOUT", 2*time.Minute),
		},
		Poll: PollConfig{
			Grace:           getEnvAsDuration("COMFY_POLL_GRACE", 5*time.Second),
			Interval:        getEnvAsDuration("COMFY_POLL_INTERVAL", 1*time.Second),
			MaxMissingPolls: getEnvAsInt("COMFY_MAX_MISSING_POLLS", 0),
		},
		Fetch: FetchConfig{
			Concurrency: getEnvAsInt("COMFY_FETCH_CONCURRENCY", 4),
		},
	}
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Service.BaseURL == "" {
		return fmt.Errorf("COMFY_BASE_URL is required")
	}
	u, err := url.Parse(c.Service.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("COMFY_BASE_URL must be an http(s) URL, got %q", c.Service.BaseURL)
	}
	if c.Service.HTTPTimeout <= 0 {
		return fmt.Errorf("COMFY_HTTP_TIMEOUT must be positive")
	}
	if c.Poll.Grace < 0 {
		return fmt.Errorf("COMFY_POLL_GRACE must not be negative")
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("COMFY_POLL_INTERVAL must be positive")
	}
	if c.Poll.MaxMissingPolls < 0 {
		return fmt.Errorf("COMFY_MAX_MISSING_POLLS must not be negative")
	}
	if c.Fetch.Concurrency < 0 {
		return fmt.Errorf("COMFY_FETCH_CONCURRENCY must not be negative")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
