package config

import (
	"time"

	"signal-engine/pkg/config"
)

// Engine holds engine-specific configuration.
type Engine struct {
	RedisStreamReadTimeout time.Duration `mapstructure:"redis_stream_read_timeout"`

	// Cron expressions for the scheduled triggers.
	AutoCancelSchedule string `mapstructure:"auto_cancel_schedule"`

	// Cache TTL for the effective-state snapshot served over HTTP.
	StateCacheTTL time.Duration `mapstructure:"state_cache_ttl"`
}

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	APIKey              string `mapstructure:"api_key"`
	BaseURL             string `mapstructure:"base_url"`
	Model               string `mapstructure:"model"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
	MaxTokenPerMinute   int    `mapstructure:"max_token_per_minute"`
}

// AI holds configuration for the extraction fallback.
type AI struct {
	// "gemini" enables the LLM fallback path; empty disables it and the
	// grammar extractor runs alone.
	Provider string `mapstructure:"provider"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// Config holds the full configuration for the engine service.
type Config struct {
	App      config.App      `mapstructure:"app"`
	Logger   config.Logger   `mapstructure:"logger"`
	Database config.Database `mapstructure:"database"`
	Redis    config.Redis    `mapstructure:"redis"`
	HTTP     config.HTTP     `mapstructure:"http"`
	Engine   Engine          `mapstructure:"engine"`
	Gemini   Gemini          `mapstructure:"gemini"`
	AI       AI              `mapstructure:"ai"`
	Telegram Telegram        `mapstructure:"telegram"`
}

// Load loads the engine configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
