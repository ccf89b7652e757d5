// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the asynq scheduler and worker.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// BookingConfig provides appointment booking policy settings.
type BookingConfig interface {
	// GetBookingSingleActive reports whether a client may hold at most one
	// future appointment per development. The legacy system enforced this on
	// only some intake paths; it is now an explicit policy flag.
	GetBookingSingleActive() bool
}

// WhatsAppConfig provides settings for the WhatsApp gateway client.
type WhatsAppConfig interface {
	GetWhatsAppURL() string
	GetWhatsAppKey() string
	GetWhatsAppDeviceID() string
	GetSalesDeskPhone() string
}

// Config is the root application configuration loaded from the environment.
type Config struct {
	Env                 string
	HTTPAddr            string
	DatabaseURL         string
	JWTAccessSecret     string
	CORSAllowAll        bool
	CORSOrigins         []string
	CORSAllowCreds      bool
	RedisURL            string
	RedisTLSInsecure    bool
	AsynqQueueName      string
	AsynqConcurrency    int
	BookingSingleActive bool
	WhatsAppURL         string
	WhatsAppKey         string
	WhatsAppDeviceID    string
	SalesDeskPhone      string
	ShutdownTimeout     time.Duration
}

// DatabaseConfig implementation.
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation.
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation.
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig implementation.
func (c *Config) GetRedisURL() string      { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// BookingConfig implementation.
func (c *Config) GetBookingSingleActive() bool { return c.BookingSingleActive }

// WhatsAppConfig implementation.
func (c *Config) GetWhatsAppURL() string      { return c.WhatsAppURL }
func (c *Config) GetWhatsAppKey() string      { return c.WhatsAppKey }
func (c *Config) GetWhatsAppDeviceID() string { return c.WhatsAppDeviceID }
func (c *Config) GetSalesDeskPhone() string   { return c.SalesDeskPhone }

// Load reads configuration from the environment, loading .env first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                 getEnv("APP_ENV", "development"),
		HTTPAddr:            getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		JWTAccessSecret:     getEnv("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:        corsAllowAll,
		CORSOrigins:         corsOrigins,
		CORSAllowCreds:      strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:            getEnv("REDIS_URL", ""),
		RedisTLSInsecure:    strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:      getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:    mustInt(getEnv("ASYNQ_CONCURRENCY", "10")),
		BookingSingleActive: strings.EqualFold(getEnv("BOOKING_SINGLE_ACTIVE", "true"), "true"),
		WhatsAppURL:         getEnv("WHATSAPP_URL", ""),
		WhatsAppKey:         getEnv("WHATSAPP_KEY", ""),
		WhatsAppDeviceID:    getEnv("WHATSAPP_DEVICE_ID", ""),
		SalesDeskPhone:      getEnv("SALES_DESK_PHONE", ""),
		ShutdownTimeout:     mustDuration(getEnv("SHUTDOWN_TIMEOUT", "10s")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

func mustInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}
