package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %#v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "taskboard.yaml")
	content := `
database:
  driver: postgres
  dsn: postgres://localhost/taskboard?sslmode=disable
timezone:
  default: Europe/Berlin
scheduler:
  daily_interval: 30m
  buffer: 8
notify:
  desktop: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("TASKBOARD_HTTP_ADDR", "127.0.0.1:9999")
	t.Setenv("TASKBOARD_SCHEDULER_BUFFER", "16")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Database.Driver != "postgres" || cfg.Timezone.Default != "Europe/Berlin" {
		t.Fatalf("file values not applied: %#v", cfg)
	}
	if cfg.Scheduler.DailyInterval != 30*time.Minute {
		t.Fatalf("expected 30m interval, got %s", cfg.Scheduler.DailyInterval)
	}
	if cfg.HTTP.Addr != "127.0.0.1:9999" || cfg.Scheduler.Buffer != 16 {
		t.Fatalf("env overrides not applied: %#v", cfg)
	}
	if !cfg.Notify.Desktop || cfg.Notify.WebhookTimeout != 5*time.Second {
		t.Fatalf("unexpected notify config: %#v", cfg.Notify)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("TASKBOARD_HTTP_CRON_SECRET=from-dotenv\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() { _ = os.Unsetenv("TASKBOARD_HTTP_CRON_SECRET") })

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTP.CronSecret != "from-dotenv" {
		t.Fatalf("expected secret from .env, got %q", cfg.HTTP.CronSecret)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "oracle" }},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Database.Driver = "postgres"; c.Database.DSN = "" }},
		{name: "bad zone", mutate: func(c *Config) { c.Timezone.Default = "Mars/Olympus" }},
		{name: "zero interval", mutate: func(c *Config) { c.Scheduler.DailyInterval = 0 }},
		{name: "tiny buffer", mutate: func(c *Config) { c.Scheduler.Buffer = 1 }},
		{name: "zero webhook timeout", mutate: func(c *Config) { c.Notify.WebhookTimeout = 0 }},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}
