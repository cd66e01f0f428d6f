// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	MaxConns int32  `yaml:"max_conns"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"` // session cache time-to-live
}

type AIConfig struct {
	OpenAIKey         string `yaml:"openai_key"`
	OpenRouterKey     string `yaml:"openrouter_key"`
	OpenRouterBaseURL string `yaml:"openrouter_base_url"`
	GeminiKey         string `yaml:"gemini_key"`
	GeminiURL         string `yaml:"gemini_url"`
	ChatModel         string `yaml:"chat_model"`
	SummaryModel      string `yaml:"summary_model"`
	ConcurrentLimit   int    `yaml:"concurrent_limit"` // max concurrent AI calls
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type RateLimitConfig struct {
	MessagesPerMinute int `yaml:"messages_per_minute"`
}

type ReaperConfig struct {
	Interval time.Duration `yaml:"interval"`
	Cutoff   time.Duration `yaml:"cutoff"` // provisional rows older than this are reaped
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	AI        AIConfig        `yaml:"ai"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Reaper    ReaperConfig    `yaml:"reaper"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.AI.ChatModel == "" {
		cfg.AI.ChatModel = "gpt-4o-mini"
	}
	if cfg.AI.SummaryModel == "" {
		cfg.AI.SummaryModel = cfg.AI.ChatModel
	}
	if cfg.AI.ConcurrentLimit <= 0 {
		cfg.AI.ConcurrentLimit = 16
	}
	if cfg.AI.OpenRouterBaseURL == "" {
		cfg.AI.OpenRouterBaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.RateLimit.MessagesPerMinute <= 0 {
		cfg.RateLimit.MessagesPerMinute = 20
	}
	if cfg.Reaper.Interval <= 0 {
		cfg.Reaper.Interval = 10 * time.Minute
	}
	if cfg.Reaper.Cutoff <= 0 {
		// must exceed the cache TTL or a live session could be reaped
		cfg.Reaper.Cutoff = 4 * cfg.Redis.TTL
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Auth.JWTSecret == "" && !dev {
		return nil, errors.New("auth.jwt_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
