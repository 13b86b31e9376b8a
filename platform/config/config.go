// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
	GetDatabaseMaxConns() int32
}

// JWTConfig provides JWT validation settings for middleware.
// Tokens are issued by the external identity provider; the core only verifies them.
type JWTConfig interface {
	GetJWTAccessSecret() string
	GetJWTIssuer() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// RedisConfig provides settings for the shared Redis instance.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// SchedulerConfig provides settings for the asynq task queue.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// BookingConfig provides settings for the appointment booking guard.
type BookingConfig interface {
	GetBookingLockTTL() time.Duration
}

// NATSConfig provides settings for forwarding domain events to NATS.
type NATSConfig interface {
	GetNATSURL() string
	GetNATSSubjectPrefix() string
	IsNATSEnabled() bool
}

// CacheConfig provides settings for in-process caches.
type CacheConfig interface {
	GetDirectoryCacheTTL() time.Duration
	GetDirectoryCacheMaxCost() int64
}

// CalendarConfig provides settings for the external calendar integration.
type CalendarConfig interface {
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetGoogleRefreshToken() string
	GetGoogleCalendarID() string
	GetCalendarTimezone() string
	IsCalendarEnabled() bool
}

// ContactConfig provides settings for contact data normalization.
type ContactConfig interface {
	GetPhoneDefaultRegion() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values. Values are resolved in
// the order defaults < YAML file < environment.
type Config struct {
	Env                   string        `yaml:"env"`
	HTTPAddr              string        `yaml:"http_addr"`
	DatabaseURL           string        `yaml:"database_url"`
	DatabaseMaxConns      int32         `yaml:"database_max_conns"`
	JWTAccessSecret       string        `yaml:"-"`
	JWTIssuer             string        `yaml:"jwt_issuer"`
	CORSAllowAll          bool          `yaml:"cors_allow_all"`
	CORSOrigins           []string      `yaml:"cors_origins"`
	CORSAllowCreds        bool          `yaml:"cors_allow_credentials"`
	RedisURL              string        `yaml:"redis_url"`
	RedisTLSInsecure      bool          `yaml:"redis_tls_insecure"`
	AsynqQueueName        string        `yaml:"asynq_queue"`
	AsynqConcurrency      int           `yaml:"asynq_concurrency"`
	BookingLockTTL        time.Duration `yaml:"booking_lock_ttl"`
	NATSURL               string        `yaml:"nats_url"`
	NATSSubjectPrefix     string        `yaml:"nats_subject_prefix"`
	DirectoryCacheTTL     time.Duration `yaml:"directory_cache_ttl"`
	DirectoryCacheMaxCost int64         `yaml:"directory_cache_max_cost"`
	GoogleClientID        string        `yaml:"google_client_id"`
	GoogleClientSecret    string        `yaml:"-"`
	GoogleRefreshToken    string        `yaml:"-"`
	GoogleCalendarID      string        `yaml:"google_calendar_id"`
	CalendarTimezone      string        `yaml:"calendar_timezone"`
	PhoneDefaultRegion    string        `yaml:"phone_default_region"`
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string     { return c.DatabaseURL }
func (c *Config) GetDatabaseMaxConns() int32 { return c.DatabaseMaxConns }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }
func (c *Config) GetJWTIssuer() string       { return c.JWTIssuer }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// RedisConfig / SchedulerConfig implementation
func (c *Config) GetRedisURL() string              { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool        { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string        { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int         { return c.AsynqConcurrency }
func (c *Config) GetBookingLockTTL() time.Duration { return c.BookingLockTTL }

// NATSConfig implementation
func (c *Config) GetNATSURL() string           { return c.NATSURL }
func (c *Config) GetNATSSubjectPrefix() string { return c.NATSSubjectPrefix }
func (c *Config) IsNATSEnabled() bool          { return c.NATSURL != "" }

// CacheConfig implementation
func (c *Config) GetDirectoryCacheTTL() time.Duration { return c.DirectoryCacheTTL }
func (c *Config) GetDirectoryCacheMaxCost() int64     { return c.DirectoryCacheMaxCost }

// CalendarConfig implementation
func (c *Config) GetGoogleClientID() string     { return c.GoogleClientID }
func (c *Config) GetGoogleClientSecret() string { return c.GoogleClientSecret }
func (c *Config) GetGoogleRefreshToken() string { return c.GoogleRefreshToken }
func (c *Config) GetGoogleCalendarID() string   { return c.GoogleCalendarID }
func (c *Config) GetCalendarTimezone() string   { return c.CalendarTimezone }
func (c *Config) IsCalendarEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleRefreshToken != ""
}

// ContactConfig implementation
func (c *Config) GetPhoneDefaultRegion() string { return c.PhoneDefaultRegion }

// Defaults returns the configuration used when neither YAML nor env set a value.
func Defaults() Config {
	return Config{
		Env:                   "development",
		HTTPAddr:              ":8080",
		DatabaseMaxConns:      25,
		CORSOrigins:           []string{"http://localhost:4200"},
		CORSAllowCreds:        true,
		AsynqQueueName:        "default",
		AsynqConcurrency:      10,
		BookingLockTTL:        10 * time.Second,
		NATSSubjectPrefix:     "crm",
		DirectoryCacheTTL:     time.Minute,
		DirectoryCacheMaxCost: 1 << 20,
		GoogleCalendarID:      "primary",
		CalendarTimezone:      "UTC",
		PhoneDefaultRegion:    "NL",
	}
}

// Load reads configuration from an optional YAML file (CONFIG_FILE) and
// environment variables, with environment taking precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if err := loadYAML(&cfg, getEnv("CONFIG_FILE", "")); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}
	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadYAML(cfg *Config, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func loadEnv(cfg *Config) {
	setString(&cfg.Env, "APP_ENV")
	setString(&cfg.HTTPAddr, "HTTP_ADDR")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setInt32(&cfg.DatabaseMaxConns, "DATABASE_MAX_CONNS")
	setString(&cfg.JWTAccessSecret, "JWT_ACCESS_SECRET")
	setString(&cfg.JWTIssuer, "JWT_ISSUER")
	if raw, ok := os.LookupEnv("CORS_ORIGINS"); ok {
		cfg.CORSOrigins = splitCSV(raw)
	}
	setBool(&cfg.CORSAllowAll, "CORS_ALLOW_ALL")
	setBool(&cfg.CORSAllowCreds, "CORS_ALLOW_CREDENTIALS")
	if containsWildcard(cfg.CORSOrigins) {
		cfg.CORSAllowAll = true
	}
	setString(&cfg.RedisURL, "REDIS_URL")
	setBool(&cfg.RedisTLSInsecure, "REDIS_TLS_INSECURE")
	setString(&cfg.AsynqQueueName, "ASYNQ_QUEUE")
	setInt(&cfg.AsynqConcurrency, "ASYNQ_CONCURRENCY")
	setDuration(&cfg.BookingLockTTL, "BOOKING_LOCK_TTL")
	setString(&cfg.NATSURL, "NATS_URL")
	setString(&cfg.NATSSubjectPrefix, "NATS_SUBJECT_PREFIX")
	setDuration(&cfg.DirectoryCacheTTL, "DIRECTORY_CACHE_TTL")
	setInt64(&cfg.DirectoryCacheMaxCost, "DIRECTORY_CACHE_MAX_COST")
	setString(&cfg.GoogleClientID, "GOOGLE_CLIENT_ID")
	setString(&cfg.GoogleClientSecret, "GOOGLE_CLIENT_SECRET")
	setString(&cfg.GoogleRefreshToken, "GOOGLE_REFRESH_TOKEN")
	setString(&cfg.GoogleCalendarID, "GOOGLE_CALENDAR_ID")
	setString(&cfg.CalendarTimezone, "CALENDAR_TIMEZONE")
	setString(&cfg.PhoneDefaultRegion, "PHONE_DEFAULT_REGION")
}

func validate(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}
	if cfg.BookingLockTTL <= 0 {
		return fmt.Errorf("BOOKING_LOCK_TTL must be positive")
	}
	if _, err := time.LoadLocation(cfg.CalendarTimezone); err != nil {
		return fmt.Errorf("CALENDAR_TIMEZONE is invalid: %w", err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func setString(dst *string, key string) {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		*dst = val
	}
}

func setBool(dst *bool, key string) {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		*dst = strings.EqualFold(strings.TrimSpace(val), "true")
	}
}

func setInt(dst *int, key string) {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			*dst = parsed
		}
	}
}

func setInt32(dst *int32, key string) {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 32); err == nil {
			*dst = int32(parsed)
		}
	}
}

func setInt64(dst *int64, key string) {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if parsed, err := strconv.ParseInt(val, 10, 64); err == nil {
			*dst = parsed
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			*dst = parsed
		}
	}
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
