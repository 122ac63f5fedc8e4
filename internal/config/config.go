package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the full application configuration, read from config.toml
// with environment variable overrides for deployment secrets.
type Config struct {
	Telegram Telegram `mapstructure:"telegram"`
	OpenAI   OpenAI   `mapstructure:"openai"`
	Bot      Bot      `mapstructure:"bot"`
	Storage  Storage  `mapstructure:"storage"`
	Report   Report   `mapstructure:"report"`
	Health   Health   `mapstructure:"health"`
}

type Telegram struct {
	BotToken string `mapstructure:"bot_token" validate:"required"`
}

type OpenAI struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model" validate:"required"`
	MaxTokens   int     `mapstructure:"max_tokens" validate:"gt=0"`
	Temperature float64 `mapstructure:"temperature" validate:"gte=0,lte=2"`
}

type Bot struct {
	LogLevel       string        `mapstructure:"log_level" validate:"oneof=debug info warn error"`
	HandlerTimeout time.Duration `mapstructure:"handler_timeout" validate:"gt=0"`
	MaxNiches      int           `mapstructure:"max_niches" validate:"gt=0"`
	MaxPlans       int           `mapstructure:"max_plans" validate:"gt=0"`
}

type Storage struct {
	Path        string        `mapstructure:"path" validate:"required"`
	SessionIdle time.Duration `mapstructure:"session_idle" validate:"gt=0"`
	SweepEvery  time.Duration `mapstructure:"sweep_every" validate:"gt=0"`
}

type Report struct {
	FontPath string `mapstructure:"font_path"`
}

type Health struct {
	Port int `mapstructure:"port" validate:"gt=0,lt=65536"`
}

// Load reads config.toml from the working directory and applies
// environment overrides. Missing files are fine as long as the required
// values arrive through the environment.
func Load() (*Config, error) {
	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("toml")

	viper.SetDefault("openai.model", "gpt-3.5-turbo")
	viper.SetDefault("openai.max_tokens", 3000)
	viper.SetDefault("openai.temperature", 0.7)
	viper.SetDefault("bot.log_level", "info")
	viper.SetDefault("bot.handler_timeout", "3m")
	viper.SetDefault("bot.max_niches", 5)
	viper.SetDefault("bot.max_plans", 3)
	viper.SetDefault("storage.path", "navbot.db")
	viper.SetDefault("storage.session_idle", "72h")
	viper.SetDefault("storage.sweep_every", "1h")
	viper.SetDefault("health.port", 8080)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// deployment-facing names used by the container environment
	_ = viper.BindEnv("telegram.bot_token", "TELEGRAM_BOT_TOKEN")
	_ = viper.BindEnv("openai.api_key", "OPENAI_API_KEY")
	_ = viper.BindEnv("health.port", "PORT")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}
