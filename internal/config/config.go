// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

type Config struct {
	APIBaseURL     string
	APITimeout     time.Duration
	HTTPProxyURL   string
	LookupFallback bool

	PageSize     int
	TopN         int
	SearchMethod string

	RedisURL       string
	SessionTTL     time.Duration
	SessionProfile string

	LogLevel         string
	OTELCollectorURL string

	TelegramToken     string
	TelegramChatID    string
	DiscordWebhookURL string
}

func LoadConfig() (*Config, error) {
	config := &Config{
		APIBaseURL:     getEnvString("API_BASE_URL", "http://localhost:8080"),
		APITimeout:     getEnvDuration("API_TIMEOUT", 5*time.Second),
		HTTPProxyURL:   getEnvString("HTTP_PROXY_URL", ""),
		LookupFallback: getEnvBool("JOB_LOOKUP_FALLBACK", true),

		PageSize:     getEnvInt("PAGE_SIZE", 50),
		TopN:         getEnvInt("TOP_N", 20),
		SearchMethod: getEnvString("SEARCH_METHOD", ""),

		RedisURL:       getEnvString("REDIS_URL", "redis://localhost:6379/0"),
		SessionTTL:     getEnvDuration("SESSION_TTL", 7*24*time.Hour),
		SessionProfile: getEnvString("SESSION_PROFILE", "default"),

		LogLevel:         getEnvString("LOG_LEVEL", "info"),
		OTELCollectorURL: getEnvString("OTEL_COLLECTOR_URL", ""),

		TelegramToken:     getEnvString("TELEGRAM_TOKEN", ""),
		TelegramChatID:    getEnvString("TELEGRAM_CHAT_ID", ""),
		DiscordWebhookURL: getEnvString("DISCORD_WEBHOOK_URL", ""),
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: API_BASE_URL must be an absolute URL, got %q", c.APIBaseURL)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("config: PAGE_SIZE must be a positive integer, got %d", c.PageSize)
	}
	if c.TopN < 1 {
		return fmt.Errorf("config: TOP_N must be a positive integer, got %d", c.TopN)
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("config: API_TIMEOUT must be positive, got %s", c.APITimeout)
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
