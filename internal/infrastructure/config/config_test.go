package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "repayment-service", cfg.ServiceName)
	assert.Equal(t, ":9095", cfg.GRPCAddr())
	assert.Equal(t, ":8095", cfg.HTTPAddr())
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "memory", cfg.LockBackend)
	assert.Equal(t, "outbox", cfg.EventSink)
	assert.Equal(t, 8, cfg.BatchParallelism)
	assert.False(t, cfg.ExcludeSaturdays)
	assert.False(t, cfg.SMTP.Enabled())
	assert.Equal(t, 15*time.Second, cfg.Redis.LockTTL)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("EXCLUDE_SATURDAYS", "true")
	t.Setenv("LOCK_BACKEND", "Redis")
	t.Setenv("REDIS_LOCK_TTL", "3s")
	t.Setenv("OTEL_SAMPLE_RATIO", "0.25")
	t.Setenv("PENALTY_RATE", "1.5")
	t.Setenv("PENALTY_TYPE", "per_week")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_FROM", "collections@example.com")
	t.Setenv("BATCH_PARALLELISM", "not-a-number")

	cfg := Load()

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.ExcludeSaturdays)
	assert.Equal(t, "redis", cfg.LockBackend)
	assert.Equal(t, 3*time.Second, cfg.Redis.LockTTL)
	assert.InDelta(t, 0.25, cfg.Telemetry.SampleRatio, 1e-9)
	assert.Equal(t, "1.5", cfg.Penalty.Rate)
	assert.Equal(t, "per_week", cfg.Penalty.Type)
	assert.True(t, cfg.SMTP.Enabled())
	assert.Equal(t, "smtp.example.com:587", cfg.SMTP.Addr())
	assert.Equal(t, 8, cfg.BatchParallelism, "malformed values fall back")
}

func TestValidate(t *testing.T) {
	cfg := Load()
	cfg.DB.Password = "secret"
	require.NoError(t, cfg.Validate())

	cfg.DB.Password = ""
	cfg.LockBackend = "etcd"
	cfg.EventSink = "stdout"
	cfg.BatchParallelism = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PASSWORD")
	assert.Contains(t, err.Error(), "LOCK_BACKEND")
	assert.Contains(t, err.Error(), "EVENT_SINK")
	assert.Contains(t, err.Error(), "BATCH_PARALLELISM")
}
