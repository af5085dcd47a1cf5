package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.PostgresDSN)
	assert.Equal(t, "veritas.ledger.events", cfg.Kafka.Topic)
	assert.Equal(t, 5*time.Minute, cfg.Redis.RegistryTTL)
	assert.Equal(t, 72*time.Hour, cfg.AppealSLAWindow)
	assert.Equal(t, 300, cfg.RateLimitPerMinute)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("VERITAS_ADDR", ":9999")
	t.Setenv("VERITAS_POSTGRES_DSN", "postgres://ledger:secret@db:5432/ledger")
	t.Setenv("VERITAS_APPEAL_SLA_WINDOW", "36h")
	t.Setenv("VERITAS_RATE_LIMIT_PER_MINUTE", "50")
	t.Setenv("VERITAS_REDIS_POOL_SIZE", "not-a-number")

	cfg := FromEnv()

	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, "postgres://ledger:secret@db:5432/ledger", cfg.PostgresDSN)
	assert.Equal(t, 36*time.Hour, cfg.AppealSLAWindow)
	assert.Equal(t, 50, cfg.RateLimitPerMinute)
	// Unparseable values fall back to the default.
	assert.Equal(t, 10, cfg.Redis.PoolSize)
}
