package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const (
	DefaultDBPath   = "budget.db"
	DefaultLogLevel = "info"
	DefaultCurrency = money.EUR
)

type Config struct {
	DBPath   string
	LogLevel string
	Currency string

	// Discord relay; both empty when disabled.
	DiscordBotToken  string
	DiscordChannelId string
}

// DiscordEnabled reports whether change notifications are relayed to Discord.
func (c *Config) DiscordEnabled() bool {
	return c.DiscordBotToken != ""
}

// Load reads a .env file if one exists, then the environment.
func Load() (*Config, error) {
	// A missing .env is fine; the process environment still applies.
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from environment variables only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DBPath:           envOr("BUDGET_DB_PATH", DefaultDBPath),
		LogLevel:         strings.ToLower(envOr("BUDGET_LOG_LEVEL", DefaultLogLevel)),
		Currency:         strings.ToUpper(envOr("BUDGET_CURRENCY", DefaultCurrency)),
		DiscordBotToken:  strings.TrimSpace(os.Getenv("DISCORD_BOT_TOKEN")),
		DiscordChannelId: strings.TrimSpace(os.Getenv("DISCORD_CHANNEL_ID")),
	}

	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid BUDGET_LOG_LEVEL %q", cfg.LogLevel)
	}
	if money.GetCurrency(cfg.Currency) == nil {
		return nil, fmt.Errorf("unknown BUDGET_CURRENCY %q", cfg.Currency)
	}
	if cfg.DiscordBotToken != "" && cfg.DiscordChannelId == "" {
		return nil, fmt.Errorf("DISCORD_CHANNEL_ID is not set")
	}
	if cfg.DiscordBotToken == "" && cfg.DiscordChannelId != "" {
		return nil, fmt.Errorf("DISCORD_BOT_TOKEN is not set")
	}
	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
