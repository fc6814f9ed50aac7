// Package config provides configuration management for the redditclone application.
// It handles loading and validation of configuration values from environment variables,
// with support for required variables, default values, and collective error reporting:
// every problem found is reported at once instead of failing on the first one.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// PoolConfig represents configuration for the PostgreSQL connection pool.
type PoolConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	MaxSize  int
}

// RedisConfig holds connection settings for the session store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// SessionConfig holds cookie and token lifetimes.
type SessionConfig struct {
	Secret        string        // HMAC key used to sign the session cookie
	CookieName    string        // Name of the session cookie
	MaxAge        time.Duration // Cookie max age and session TTL in Redis
	ResetTokenTTL time.Duration // Lifetime of a password-reset token
}

// MailConfig holds outgoing mail settings. An empty Host selects the log sender.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Workers  int
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Env         string // "development" or "production"
	Port        string // Port for the HTTP server
	CORSOrigin  string // Origin allowed to send credentialed requests
	FrontendURL string // Base URL used to build links in emails
}

// IsProduction reports whether the server runs in production mode
// (secure cookies, no GraphQL Playground).
func (s ServerConfig) IsProduction() bool {
	return s.Env == "production"
}

// AppConfig is the top-level configuration structure for the application.
type AppConfig struct {
	DB      *PoolConfig
	Redis   *RedisConfig
	Session *SessionConfig
	Mail    *MailConfig
	Server  *ServerConfig
}

const (
	minPoolSize = 5
	maxPoolSize = 100
)

// Helper function to get a required environment variable.
// Appends an error to the errors slice if the variable is not set.
func getRequiredEnv(key string, errors *[]string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		*errors = append(*errors, fmt.Sprintf("missing required environment variable: %s", key))
		return ""
	}
	return value
}

// Helper function to get an optional environment variable with a default string value.
func getOptionalEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// Helper function to get an optional environment variable parsed as an int.
// Uses defaultValue if not set or if parsing fails. Appends an error if parsing fails.
func getOptionalEnvInt(key string, defaultValue int, errors *[]string) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected integer, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueInt
}

// Helper function to get an optional environment variable parsed as time.Duration.
// `time.ParseDuration` expects a string like "15m", "1h30s".
func getOptionalEnvDuration(key string, defaultValue time.Duration, errors *[]string) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	valueDuration, err := time.ParseDuration(valueStr)
	if err != nil {
		*errors = append(*errors, fmt.Sprintf("invalid value for %s: expected duration string, got '%s': %v", key, valueStr, err))
		return defaultValue
	}
	return valueDuration
}

// clampPoolSize keeps the pool size within [minPoolSize, maxPoolSize].
// Out-of-range values are clamped silently; the pool still works.
func clampPoolSize(size int) int {
	if size < minPoolSize {
		return minPoolSize
	}
	if size > maxPoolSize {
		return maxPoolSize
	}
	return size
}

// LoadConfig creates and returns an AppConfig by reading and validating environment variables.
// It collects all errors encountered during loading and returns a single error if any exist.
func LoadConfig() (*AppConfig, error) {
	var errors []string

	// Database
	dbPool := &PoolConfig{
		User:     getRequiredEnv("DB_USER", &errors),
		Password: getRequiredEnv("DB_PASSWORD", &errors),
		DBName:   getRequiredEnv("DB_NAME", &errors),
		Host:     getOptionalEnv("DB_HOST", "localhost"),
		Port:     getOptionalEnvInt("DB_PORT", 5432, &errors),
		MaxSize:  clampPoolSize(getOptionalEnvInt("DB_POOL_SIZE", 10, &errors)),
	}

	// Redis
	redisConfig := &RedisConfig{
		Addr:     getOptionalEnv("REDIS_ADDR", "localhost:6379"),
		Password: getOptionalEnv("REDIS_PASSWORD", ""),
		DB:       getOptionalEnvInt("REDIS_DB", 0, &errors),
	}

	// Sessions. The 10-year default mirrors a "remember me forever" cookie.
	sessionConfig := &SessionConfig{
		Secret:        getRequiredEnv("SESSION_SECRET", &errors),
		CookieName:    getOptionalEnv("SESSION_COOKIE_NAME", "qid"),
		MaxAge:        getOptionalEnvDuration("SESSION_MAX_AGE", 10*365*24*time.Hour, &errors),
		ResetTokenTTL: getOptionalEnvDuration("RESET_TOKEN_TTL", 24*time.Hour, &errors),
	}
	if sessionConfig.CookieName == "" {
		errors = append(errors, "SESSION_COOKIE_NAME must not be empty")
	}

	// Mail
	mailConfig := &MailConfig{
		Host:     getOptionalEnv("SMTP_HOST", ""),
		Port:     getOptionalEnvInt("SMTP_PORT", 587, &errors),
		Username: getOptionalEnv("SMTP_USERNAME", ""),
		Password: getOptionalEnv("SMTP_PASSWORD", ""),
		From:     getOptionalEnv("MAIL_FROM", "no-reply@redditclone.local"),
		Workers:  getOptionalEnvInt("MAIL_WORKERS", 2, &errors),
	}
	if mailConfig.Workers < 1 {
		errors = append(errors, fmt.Sprintf("MAIL_WORKERS must be at least 1, got %d", mailConfig.Workers))
	}

	// Server
	serverConfig := &ServerConfig{
		Env:         getOptionalEnv("APP_ENV", "development"),
		Port:        getOptionalEnv("PORT", "4000"),
		CORSOrigin:  getOptionalEnv("CORS_ORIGIN", "http://localhost:3000"),
		FrontendURL: strings.TrimRight(getOptionalEnv("FRONTEND_URL", "http://localhost:4000"), "/"),
	}
	if serverConfig.Env != "development" && serverConfig.Env != "production" {
		errors = append(errors, fmt.Sprintf("invalid value for APP_ENV: expected development or production, got '%s'", serverConfig.Env))
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return &AppConfig{
		DB:      dbPool,
		Redis:   redisConfig,
		Session: sessionConfig,
		Mail:    mailConfig,
		Server:  serverConfig,
	}, nil
}
