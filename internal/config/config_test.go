package config

import (
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Addr != ":8080" {
		t.Errorf("unexpected addr: %q", cfg.Addr)
	}
	if cfg.MaxConcurrent != 10 {
		t.Errorf("unexpected max concurrent: %d", cfg.MaxConcurrent)
	}
	if cfg.MaxCompletedHistory != 1000 {
		t.Errorf("unexpected completed history: %d", cfg.MaxCompletedHistory)
	}
	if cfg.Retention != 24*time.Hour {
		t.Errorf("unexpected retention: %v", cfg.Retention)
	}
	if cfg.BadgerPath != "" || cfg.PostgresDSN != "" {
		t.Error("no archive backend should be configured by default")
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("AIQ_ADDR", ":9090")
	t.Setenv("AIQ_MAX_CONCURRENT", "25")
	t.Setenv("AIQ_POLL_INTERVAL", "50ms")
	t.Setenv("AIQ_BADGER_PATH", "/var/lib/aiqueue")
	t.Setenv("AIQ_RETENTION", "72h")
	t.Setenv("AIQ_LOG_PRETTY", "true")

	cfg := Default()
	FromEnv(cfg)

	if cfg.Addr != ":9090" {
		t.Errorf("addr not overlaid: %q", cfg.Addr)
	}
	if cfg.MaxConcurrent != 25 {
		t.Errorf("max concurrent not overlaid: %d", cfg.MaxConcurrent)
	}
	if cfg.PollInterval != 50*time.Millisecond {
		t.Errorf("poll interval not overlaid: %v", cfg.PollInterval)
	}
	if cfg.BadgerPath != "/var/lib/aiqueue" {
		t.Errorf("badger path not overlaid: %q", cfg.BadgerPath)
	}
	if cfg.Retention != 72*time.Hour {
		t.Errorf("retention not overlaid: %v", cfg.Retention)
	}
	if !cfg.Pretty {
		t.Error("pretty logging not overlaid")
	}

	// Untouched fields keep their defaults.
	if cfg.Workers != 10 {
		t.Errorf("workers should stay at default, got %d", cfg.Workers)
	}
}

func TestFromEnvIgnoresMalformed(t *testing.T) {
	t.Setenv("AIQ_MAX_CONCURRENT", "lots")
	t.Setenv("AIQ_RETENTION", "tomorrow")

	cfg := Default()
	FromEnv(cfg)

	if cfg.MaxConcurrent != 10 {
		t.Errorf("malformed int should be ignored, got %d", cfg.MaxConcurrent)
	}
	if cfg.Retention != 24*time.Hour {
		t.Errorf("malformed duration should be ignored, got %v", cfg.Retention)
	}
}
