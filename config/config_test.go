package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_PASSWORD", "postgres")
	t.Setenv("DB_NAME", "redditclone")
	t.Setenv("SESSION_SECRET", "keyboard cat")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.DB.Host)
	assert.Equal(t, 5432, cfg.DB.Port)
	assert.Equal(t, 10, cfg.DB.MaxSize)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "qid", cfg.Session.CookieName)
	assert.Equal(t, 10*365*24*time.Hour, cfg.Session.MaxAge)
	assert.Equal(t, 24*time.Hour, cfg.Session.ResetTokenTTL)
	assert.Equal(t, "", cfg.Mail.Host)
	assert.Equal(t, 2, cfg.Mail.Workers)
	assert.Equal(t, "4000", cfg.Server.Port)
	assert.Equal(t, "http://localhost:3000", cfg.Server.CORSOrigin)
	assert.Equal(t, "http://localhost:4000", cfg.Server.FrontendURL)
	assert.False(t, cfg.Server.IsProduction())
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("DB_POOL_SIZE", "500")
	t.Setenv("SESSION_MAX_AGE", "1h")
	t.Setenv("APP_ENV", "production")
	t.Setenv("FRONTEND_URL", "https://example.com/")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, maxPoolSize, cfg.DB.MaxSize)
	assert.Equal(t, time.Hour, cfg.Session.MaxAge)
	assert.True(t, cfg.Server.IsProduction())
	assert.Equal(t, "https://example.com", cfg.Server.FrontendURL)
	assert.Equal(t, "smtp.example.com", cfg.Mail.Host)
	assert.Equal(t, 2525, cfg.Mail.Port)
}

func TestLoadConfig_CollectsAllErrors(t *testing.T) {
	t.Setenv("DB_USER", "")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("SESSION_MAX_AGE", "forever")
	t.Setenv("APP_ENV", "staging")

	cfg, err := LoadConfig()
	require.Error(t, err)
	assert.Nil(t, cfg)

	msg := err.Error()
	assert.Contains(t, msg, "DB_USER")
	assert.Contains(t, msg, "SESSION_SECRET")
	assert.Contains(t, msg, "invalid value for DB_PORT")
	assert.Contains(t, msg, "invalid value for SESSION_MAX_AGE")
	assert.Contains(t, msg, "invalid value for APP_ENV")
}

func TestClampPoolSize(t *testing.T) {
	assert.Equal(t, minPoolSize, clampPoolSize(1))
	assert.Equal(t, 42, clampPoolSize(42))
	assert.Equal(t, maxPoolSize, clampPoolSize(1000))
}
