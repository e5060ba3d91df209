package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/ats")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8006", cfg.Server.Port)

	assert.Equal(t, 5, cfg.Database.PoolSize)
	assert.Equal(t, 10, cfg.Database.MaxOverflow)
	assert.Equal(t, 30*time.Second, cfg.Database.PoolTimeout)
	assert.Equal(t, 1800*time.Second, cfg.Database.PoolRecycle)
	assert.Equal(t, 10*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, 5, cfg.Database.EngineRetries)
	assert.Equal(t, 3, cfg.Database.SchemaRetries)
	assert.Equal(t, time.Second, cfg.Database.RetryBackoff)
	assert.Equal(t, 5, cfg.Database.MaxFailures)
	assert.Equal(t, 300*time.Second, cfg.Database.Cooldown)

	assert.Equal(t, "mixtral-8x7b-32768", cfg.Groq.Model)
	assert.Equal(t, "uploads", cfg.Upload.Dir)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxSize)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.Origins)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db:5432/ats")
	t.Setenv("DB_POOL_SIZE", "20")
	t.Setenv("DB_BREAKER_COOLDOWN", "60s")
	t.Setenv("PORT", "9000")
	t.Setenv("CORS_ORIGINS", "https://app.example.com,https://admin.example.com")
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.Database.PoolSize)
	assert.Equal(t, time.Minute, cfg.Database.Cooldown)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.CORS.Origins)
	assert.False(t, cfg.RateLimit.Enabled)
}
