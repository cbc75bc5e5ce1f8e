package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Port          string
	DatabaseURL   string
	RedisURL      string
	NumWorkers    int
	JWTSecret     string
	MigrationsDir string
	SiteURL       string
	Mail          MailConfig
}

// MailConfig selects and configures the transactional email transport.
type MailConfig struct {
	Transport   string // log, http or ses
	APIURL      string
	APIKey      string
	From        string
	AWSRegion   string
	RateLimit   int
	RateWindow  time.Duration
	SendTimeout time.Duration

	BreakerThreshold int
	BreakerCooldown  time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisURL:      getEnv("REDIS_URL", ""),
		NumWorkers:    getEnvInt("NUM_WORKERS", 8),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),
		SiteURL:       getEnv("SITE_URL", "http://localhost:3000"),
		Mail: MailConfig{
			Transport:   getEnv("MAIL_TRANSPORT", "log"),
			APIURL:      getEnv("MAIL_API_URL", ""),
			APIKey:      getEnv("MAIL_API_KEY", ""),
			From:        getEnv("MAIL_FROM", "predictions@localhost"),
			AWSRegion:   getEnv("AWS_REGION", "us-east-1"),
			RateLimit:   getEnvInt("EMAIL_RATE_LIMIT", 5),
			RateWindow:  getEnvDuration("EMAIL_RATE_WINDOW", time.Minute),
			SendTimeout: getEnvDuration("MAIL_SEND_TIMEOUT", 10*time.Second),

			BreakerThreshold: getEnvInt("MAIL_BREAKER_THRESHOLD", 5),
			BreakerCooldown:  getEnvDuration("MAIL_BREAKER_COOLDOWN", 30*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings and transport-specific options.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.NumWorkers <= 0 {
		return fmt.Errorf("NUM_WORKERS must be positive")
	}

	switch c.Mail.Transport {
	case "log", "ses":
	case "http":
		if c.Mail.APIURL == "" {
			return fmt.Errorf("MAIL_API_URL is required for the http mail transport")
		}
	default:
		return fmt.Errorf("unknown MAIL_TRANSPORT %q", c.Mail.Transport)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
	}
	return fallback
}
