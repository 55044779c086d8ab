package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 20, c.Pipeline.MessageLimit)
	assert.Equal(t, 20, c.Pipeline.MessageRateLimit)
	assert.Equal(t, 50, c.Pipeline.MaxConcurrentTasks)
	assert.Equal(t, 15, c.Pipeline.MaxWorkers)
	assert.Equal(t, time.Second, c.Pipeline.FetchDelay)
	assert.Equal(t, []string{"USDCUSDT"}, c.Pipeline.Exclude)
	assert.Equal(t, []string{"stoch_macd"}, c.Analysis.Rules)
	assert.Equal(t, 14, c.Analysis.KPeriod)
	assert.Equal(t, 90.0, c.Analysis.Overbought)
	assert.NoError(t, c.Validate())
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "once", c.Mode)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := []byte("environment: test\npipeline:\n  message_limit: 3\n  intervals: [\"5\", \"60\"]\n")
	require.NoError(t, os.WriteFile(path, body, 0o600))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test", c.Environment)
	assert.Equal(t, 3, c.Pipeline.MessageLimit)
	assert.Equal(t, []string{"5", "60"}, c.Pipeline.Intervals)
	assert.Equal(t, 15, c.Pipeline.MaxWorkers)
}

func TestApplyEnv(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	err = c.applyEnv(envMap(map[string]string{
		"BOT_TOKEN":          "token",
		"CHAT_ID":            "-100",
		"MESSAGE_LIMIT":      "7",
		"MESSAGE_RATE_LIMIT": "30",
		"MANUAL_RUN":         "true",
		"K_PERIOD":           "21",
		"OVERSOLD":           "15.5",
		"KAFKA_BROKERS":      "a:9092, b:9092",
		"REDIS_ADDR":         "redis:6379",
	}))
	require.NoError(t, err)

	assert.Equal(t, "token", c.Notifier.Telegram.BotToken)
	assert.Equal(t, "-100", c.Notifier.Telegram.ChatID)
	assert.Equal(t, 7, c.Pipeline.MessageLimit)
	assert.Equal(t, 30, c.Pipeline.MessageRateLimit)
	assert.True(t, c.Pipeline.ManualRun)
	assert.Equal(t, 21, c.Analysis.KPeriod)
	assert.Equal(t, 15.5, c.Analysis.Oversold)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.Kafka.Brokers)
	assert.True(t, c.Redis.Enabled)
	assert.NoError(t, c.ValidateCredentials())
}

func TestApplyEnvRejectsGarbage(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	err = c.applyEnv(envMap(map[string]string{"MAX_WORKERS": "many"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_WORKERS")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown interval", func(c *Config) { c.Pipeline.Intervals = []string{"1"} }},
		{"zero workers", func(c *Config) { c.Pipeline.MaxWorkers = 0 }},
		{"slow not above fast", func(c *Config) { c.Analysis.SlowPeriod = c.Analysis.FastPeriod }},
		{"oversold above overbought", func(c *Config) { c.Analysis.Oversold = 95 }},
		{"kafka without brokers", func(c *Config) { c.Notifier.Type = "kafka" }},
		{"unknown rule", func(c *Config) { c.Analysis.Rules = []string{"rsi"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Default()
			require.NoError(t, err)
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestValidateCredentials(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	err = c.ValidateCredentials()
	require.ErrorIs(t, err, ErrMissingCredentials)
	assert.Contains(t, err.Error(), "BOT_TOKEN")
	assert.Contains(t, err.Error(), "CHAT_ID")

	c.Notifier.Telegram.BotToken = "token"
	err = c.ValidateCredentials()
	require.ErrorIs(t, err, ErrMissingCredentials)
	assert.NotContains(t, err.Error(), "BOT_TOKEN")

	c.Notifier.Type = "log"
	assert.NoError(t, c.ValidateCredentials())
}
