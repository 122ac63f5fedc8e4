package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvironment(t *testing.T) {
	viper.Reset()
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
	assert.Equal(t, 9090, cfg.Health.Port)

	// defaults
	assert.Equal(t, "gpt-3.5-turbo", cfg.OpenAI.Model)
	assert.Equal(t, 3000, cfg.OpenAI.MaxTokens)
	assert.Equal(t, "info", cfg.Bot.LogLevel)
	assert.Equal(t, 3*time.Minute, cfg.Bot.HandlerTimeout)
	assert.Equal(t, 5, cfg.Bot.MaxNiches)
	assert.Equal(t, 72*time.Hour, cfg.Storage.SessionIdle)
}

func TestLoadRequiresBotToken(t *testing.T) {
	viper.Reset()

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BotToken")
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	viper.Reset()
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("BOT_LOG_LEVEL", "loud")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LogLevel")
}
