package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("FINALIZE_LOCK_TTL_SECONDS", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Business.FinalizeLockTTL)
	assert.Equal(t, 24*time.Hour, cfg.Business.IdempotencyTTL)
	assert.Equal(t, "pos-events", cfg.Kafka.TopicPOS)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("FINALIZE_LOCK_TTL_SECONDS", "5")
	t.Setenv("KAFKA_CONSUMERS_ENABLED", "false")
	t.Setenv("DEFAULT_TAX_RATE", "18")
	t.Setenv("TRACE_SAMPLE_RATIO", "not-a-number")

	cfg := Load()

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5*time.Second, cfg.Business.FinalizeLockTTL)
	assert.False(t, cfg.Kafka.ConsumersEnabled)
	assert.Equal(t, "18", cfg.Company.TaxRate)
	assert.Equal(t, 1.0, cfg.Observ.SampleRatio)
}
