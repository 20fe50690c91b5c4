package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "locale: zh\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Locale != "zh" {
		t.Errorf("locale = %q", cfg.Locale)
	}
	if cfg.Progress.GraceWindow != 2*time.Second {
		t.Errorf("grace_window = %s", cfg.Progress.GraceWindow)
	}
	if cfg.Service.BaseURL == "" || cfg.LLM.Provider != "none" || cfg.Cache.Driver != "memory" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
	if !cfg.Session.Greeting || cfg.Session.EarlyAttach {
		t.Errorf("session defaults = %+v", cfg.Session)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
service:
  base_url: http://planner.internal/api/
progress:
  grace_window: 500ms
session:
  early_attach: true
  history_limit: 12
cache:
  driver: redis
log:
  level: debug
  format: json
`)
	// 环境变量优先于配置文件
	t.Setenv("TRAVELPILOT_SERVICE_TOKEN", "secret")
	t.Setenv("TRAVELPILOT_CACHE_REDIS_ADDR", "redis:6379")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Service.BaseURL != "http://planner.internal/api/" || cfg.Service.Token != "secret" {
		t.Errorf("service = %+v", cfg.Service)
	}
	if cfg.Progress.GraceWindow != 500*time.Millisecond {
		t.Errorf("grace_window = %s", cfg.Progress.GraceWindow)
	}
	if !cfg.Session.EarlyAttach || cfg.Session.HistoryLimit != 12 {
		t.Errorf("session = %+v", cfg.Session)
	}
	if cfg.Cache.Driver != "redis" || cfg.Cache.RedisAddr != "redis:6379" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for a missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Service:  ServiceConfig{BaseURL: "http://localhost:8000/api/"},
			Locale:   "en",
			Progress: ProgressConfig{GraceWindow: time.Second},
			LLM:      LLMConfig{Provider: "none"},
			Cache:    CacheConfig{Driver: "memory"},
			Log:      LogConfig{Level: "info", Format: "text"},
		}
	}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "ok", mutate: func(*Config) {}},
		{name: "no base url", mutate: func(c *Config) { c.Service.BaseURL = "" }, wantErr: "base_url"},
		{name: "unknown locale", mutate: func(c *Config) { c.Locale = "fr" }, wantErr: "locale"},
		{name: "negative grace", mutate: func(c *Config) { c.Progress.GraceWindow = -time.Second }, wantErr: "grace_window"},
		{name: "openai without key", mutate: func(c *Config) { c.LLM = LLMConfig{Provider: "openai", Model: "gpt-4o-mini"} }, wantErr: "api_key"},
		{name: "gemini without model", mutate: func(c *Config) { c.LLM = LLMConfig{Provider: "gemini", APIKey: "k"} }, wantErr: "llm.model"},
		{name: "bad provider", mutate: func(c *Config) { c.LLM.Provider = "claude" }, wantErr: "llm.provider"},
		{name: "bad cache", mutate: func(c *Config) { c.Cache.Driver = "etcd" }, wantErr: "cache.driver"},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "trace" }, wantErr: "log level"},
		{name: "bad format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}
