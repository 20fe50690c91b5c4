// Package config loads travelpilot settings from an optional YAML file and
// TRAVELPILOT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tbxark/travelpilot/slot"
)

type Config struct {
	Service  ServiceConfig  `mapstructure:"service"`
	Locale   string         `mapstructure:"locale"`
	Progress ProgressConfig `mapstructure:"progress"`
	Session  SessionConfig  `mapstructure:"session"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServiceConfig points at the Itinerary Service.
type ServiceConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Token       string        `mapstructure:"token"` // plan archive bearer token
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

type ProgressConfig struct {
	GraceWindow time.Duration `mapstructure:"grace_window"`
}

type SessionConfig struct {
	EarlyAttach  bool `mapstructure:"early_attach"`
	HistoryLimit int  `mapstructure:"history_limit"` // 0 sends the whole history
	Greeting     bool `mapstructure:"greeting"`
}

// LLMConfig selects the optional model behind extraction, prompts and
// revisions. Provider "none" keeps everything rule based.
type LLMConfig struct {
	Provider string `mapstructure:"provider"` // none, openai, gemini
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	Model    string `mapstructure:"model"`
}

type CacheConfig struct {
	Driver        string        `mapstructure:"driver"` // memory, redis
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level     string `mapstructure:"level"`
	Format    string `mapstructure:"format"`
	Output    string `mapstructure:"output"`
	FilePath  string `mapstructure:"file_path"`
	AddSource bool   `mapstructure:"add_source"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service.base_url", "http://localhost:8000/api/")
	v.SetDefault("service.token", "")
	v.SetDefault("service.dial_timeout", 10*time.Second)
	v.SetDefault("locale", "en")
	v.SetDefault("progress.grace_window", 2*time.Second)
	v.SetDefault("session.early_attach", false)
	v.SetDefault("session.history_limit", 0)
	v.SetDefault("session.greeting", true)
	v.SetDefault("llm.provider", "none")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("cache.driver", "memory")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stderr")
	v.SetDefault("log.file_path", "")
	v.SetDefault("log.add_source", false)
}

// Load reads configPath when given, otherwise looks for config.yaml in
// ./configs and the working directory. A missing default file is not an
// error; every key has a default.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("TRAVELPILOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Service.BaseURL == "" {
		return errors.New("service.base_url is required")
	}
	if !slices.Contains(slot.Locales(), c.Locale) {
		return fmt.Errorf("unsupported locale: %s, must be one of %v", c.Locale, slot.Locales())
	}
	if c.Progress.GraceWindow < 0 {
		return fmt.Errorf("invalid progress.grace_window: %s", c.Progress.GraceWindow)
	}
	if c.Session.HistoryLimit < 0 {
		return fmt.Errorf("invalid session.history_limit: %d", c.Session.HistoryLimit)
	}

	switch c.LLM.Provider {
	case "none":
	case "openai", "gemini":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("llm.api_key is required for provider %s", c.LLM.Provider)
		}
		if c.LLM.Model == "" {
			return fmt.Errorf("llm.model is required for provider %s", c.LLM.Provider)
		}
	default:
		return fmt.Errorf("invalid llm.provider: %s, must be 'none', 'openai' or 'gemini'", c.LLM.Provider)
	}

	switch c.Cache.Driver {
	case "memory":
	case "redis":
		if c.Cache.RedisAddr == "" {
			return errors.New("cache.redis_addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("invalid cache.driver: %s, must be 'memory' or 'redis'", c.Cache.Driver)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("invalid log format: %s, must be 'json' or 'text'", c.Log.Format)
	}
	return nil
}
