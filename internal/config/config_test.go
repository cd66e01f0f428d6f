package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/interviews
redis:
  url: localhost:6379
auth:
  jwt_secret: s3cret
`)
	cfg, err := LoadConfig(path, false)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Fatalf("port = %d", cfg.Server.Port)
	}
	if cfg.Redis.TTL != time.Hour {
		t.Fatalf("ttl = %v", cfg.Redis.TTL)
	}
	if cfg.AI.ChatModel != "gpt-4o-mini" || cfg.AI.SummaryModel != "gpt-4o-mini" {
		t.Fatalf("models = %q / %q", cfg.AI.ChatModel, cfg.AI.SummaryModel)
	}
	if cfg.Reaper.Cutoff != 4*time.Hour {
		t.Fatalf("reaper cutoff = %v", cfg.Reaper.Cutoff)
	}
	if cfg.RateLimit.MessagesPerMinute != 20 {
		t.Fatalf("rate limit = %d", cfg.RateLimit.MessagesPerMinute)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	path := writeConfig(t, `
redis:
  url: localhost:6379
`)
	if _, err := LoadConfig(path, false); err == nil {
		t.Fatal("missing database.url must fail")
	}

	path = writeConfig(t, `
database:
  url: postgres://localhost/interviews
redis:
  url: localhost:6379
`)
	if _, err := LoadConfig(path, false); err == nil {
		t.Fatal("missing jwt secret must fail outside dev mode")
	}
	if _, err := LoadConfig(path, true); err != nil {
		t.Fatalf("dev mode must tolerate a missing jwt secret: %v", err)
	}
}

func TestLoadConfigSummaryModelOverride(t *testing.T) {
	path := writeConfig(t, `
database:
  url: postgres://localhost/interviews
redis:
  url: localhost:6379
  ttl: 30m
auth:
  jwt_secret: s3cret
ai:
  chat_model: gpt-4o
  summary_model: gpt-4o-mini
`)
	cfg, err := LoadConfig(path, false)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.AI.SummaryModel != "gpt-4o-mini" {
		t.Fatalf("summary model = %q", cfg.AI.SummaryModel)
	}
	if cfg.Redis.TTL != 30*time.Minute {
		t.Fatalf("ttl = %v", cfg.Redis.TTL)
	}
	if cfg.Reaper.Cutoff != 2*time.Hour {
		t.Fatalf("cutoff = %v, want 4x ttl", cfg.Reaper.Cutoff)
	}
}
