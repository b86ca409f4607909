package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "test-token-123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-token-123", cfg.Telegram.BotToken)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 15*time.Minute, cfg.Whisper.WaitTTL)
	assert.Equal(t, 24*time.Hour, cfg.Whisper.ReadTTL)
	assert.Equal(t, 190, cfg.Whisper.MaxAlertChars)
	assert.Equal(t, time.Minute, cfg.Whisper.SweepInterval)
	assert.False(t, cfg.Kafka.Enabled())
}

func TestLoadMissingToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BOT_TOKEN")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "tok")
	t.Setenv("BOT_USERNAME", "@najva_bot")
	t.Setenv("ADMIN_ID", "42")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("WHISPER_WAIT_TTL", "5m")
	t.Setenv("WHISPER_MAX_ALERT_CHARS", "150")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "najva_bot", cfg.Telegram.BotUsername)
	assert.Equal(t, int64(42), cfg.Telegram.AdminID)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Kafka.Enabled())
	assert.Equal(t, 5*time.Minute, cfg.Whisper.WaitTTL)
	assert.Equal(t, 150, cfg.Whisper.MaxAlertChars)
}

func TestGetDSN(t *testing.T) {
	dbCfg := DatabaseConfig{
		Host:     "db",
		Port:     "5432",
		User:     "u",
		Password: "p",
		DBName:   "najbot",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db port=5432 user=u password=p dbname=najbot sslmode=require",
		dbCfg.GetDSN(),
	)
}

func TestGetEnvDurationInvalid(t *testing.T) {
	t.Setenv("WHISPER_WAIT_TTL", "not-a-duration")

	assert.Equal(t, 15*time.Minute, getEnvDuration("WHISPER_WAIT_TTL", 15*time.Minute))
}
