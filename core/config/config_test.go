package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Telegram: TelegramConfig{Token: "123:abc"},
	}
}

func TestNormalizeRequiresToken(t *testing.T) {
	err := Normalize(&Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token")
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, Normalize(cfg))

	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, "leadbot.db", cfg.Database.Path)
	assert.Equal(t, ":8080", cfg.Ops.Listen)
	assert.Equal(t, 24*time.Hour, cfg.Reminder.Interval)
	assert.Equal(t, 48*time.Hour, cfg.Reminder.Age)
}

func TestNormalizeWebhookRequiresURLAndPort(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.RunMode = RunModeWebhook
	require.Error(t, Normalize(cfg))

	cfg.Webhook.URL = "https://bot.example.com"
	require.Error(t, Normalize(cfg))

	cfg.Webhook.Port = 8443
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, "0.0.0.0", cfg.Webhook.Listen)
}

func TestNormalizeDeduplicatesManagerIDs(t *testing.T) {
	cfg := validConfig()
	cfg.Telegram.ManagerIDs = []int64{555, 0, 777, 555}
	require.NoError(t, Normalize(cfg))
	assert.Equal(t, []int64{555, 777}, cfg.Telegram.ManagerIDs)
}

func TestNormalizeRejectsUnknownRateLimitExclusion(t *testing.T) {
	cfg := validConfig()
	cfg.RateLimit.ExcludeUpdates = []string{"inline_query"}
	require.Error(t, Normalize(cfg))
}
