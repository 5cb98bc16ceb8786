package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"LENDER_SOURCE", "LENDER_CONFIG_DIR", "REDIS_URL", "QUOTE_CACHE_TTL_SECONDS", "API_PORT", "ENV", "EVAL_WORKERS"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SourceDir, cfg.Lenders.Source)
	assert.Equal(t, "./data/banks", cfg.Lenders.Dir)
	assert.False(t, cfg.CacheEnabled())
	assert.Equal(t, 5*time.Minute, cfg.Redis.QuoteTTL)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 8, cfg.Engine.Workers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("LENDER_SOURCE", "Postgres")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("QUOTE_CACHE_TTL_SECONDS", "30")
	t.Setenv("API_PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("EVAL_WORKERS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, SourcePostgres, cfg.Lenders.Source)
	assert.True(t, cfg.CacheEnabled())
	assert.Equal(t, 30*time.Second, cfg.Redis.QuoteTTL)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 8, cfg.Engine.Workers)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Run("source", func(t *testing.T) {
		t.Setenv("LENDER_SOURCE", "s3")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("workers", func(t *testing.T) {
		t.Setenv("LENDER_SOURCE", "")
		t.Setenv("EVAL_WORKERS", "0")
		_, err := Load()
		assert.Error(t, err)
	})
}
