package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(configPathEnv, "")
	t.Setenv(httpAddrEnv, "")

	cfg := Load()

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected default addr %q", cfg.Server.Addr)
	}
	if cfg.Source.Scanner != "dailypapers" {
		t.Fatalf("unexpected default scanner %q", cfg.Source.Scanner)
	}
	if cfg.ChatGPT.Model != "gpt-4-turbo" {
		t.Fatalf("unexpected default model %q", cfg.ChatGPT.Model)
	}
	if cfg.Cache.TTL() != 24*time.Hour {
		t.Fatalf("unexpected default cache ttl %v", cfg.Cache.TTL())
	}
	if cfg.Scheduler.Interval() != 24*time.Hour {
		t.Fatalf("unexpected default interval %v", cfg.Scheduler.Interval())
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
server:
  addr: ":9090"
source:
  baseUrl: "https://mirror.example.com"
scheduler:
  enabled: true
  intervalHours: 6
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()

	if cfg.Server.Addr != ":9090" {
		t.Fatalf("file addr not applied: %q", cfg.Server.Addr)
	}
	if cfg.Source.BaseURL != "https://mirror.example.com" {
		t.Fatalf("file baseUrl not applied: %q", cfg.Source.BaseURL)
	}
	if cfg.Source.Scanner != "dailypapers" {
		t.Fatalf("unset file field must keep the default, got %q", cfg.Source.Scanner)
	}
	if !cfg.Scheduler.Enabled || cfg.Scheduler.Interval() != 6*time.Hour {
		t.Fatalf("scheduler overrides not applied: %+v", cfg.Scheduler)
	}
}

func TestLoadAppliesExplicitZeroValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
chatgpt:
  temperature: 0
cache:
  ttlSeconds: 0
`
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)

	cfg := Load()

	if cfg.ChatGPT.Temperature != 0 {
		t.Fatalf("explicit zero temperature must override the default, got %v", cfg.ChatGPT.Temperature)
	}
	if cfg.Cache.TTLSeconds != 0 {
		t.Fatalf("explicit zero ttlSeconds must override the default, got %d", cfg.Cache.TTLSeconds)
	}
}

func TestMergeConfigCanDisableScheduler(t *testing.T) {
	base := defaultConfig()
	base.Scheduler.Enabled = true

	off := false
	var explicit fileOverrides
	explicit.Scheduler.Enabled = &off

	merged := mergeConfig(base, Config{}, explicit)
	if merged.Scheduler.Enabled {
		t.Fatal("an explicit enabled: false in the file must turn the scheduler off")
	}

	merged = mergeConfig(base, Config{}, fileOverrides{})
	if !merged.Scheduler.Enabled {
		t.Fatal("an absent enabled field must keep the prior setting")
	}
}

func TestLoadEnvOverridesWinOverFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  addr: \":9090\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(configPathEnv, path)
	t.Setenv(httpAddrEnv, ":7070")
	t.Setenv(openAIAPIKeyEnv, "sk-test")

	cfg := Load()

	if cfg.Server.Addr != ":7070" {
		t.Fatalf("env addr must win over file, got %q", cfg.Server.Addr)
	}
	if cfg.ChatGPT.APIKey != "sk-test" {
		t.Fatalf("env api key not applied: %q", cfg.ChatGPT.APIKey)
	}
}

func TestLoadIgnoresUnreadableFile(t *testing.T) {
	t.Setenv(configPathEnv, filepath.Join(t.TempDir(), "missing.yaml"))

	cfg := Load()
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("expected defaults on missing file, got %q", cfg.Server.Addr)
	}
}
