package config

import (
	"os"
	"strconv"
	"time"
)

// FromEnv overlays AIQ_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("AIQ_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("AIQ_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxConcurrent = n
		}
	}
	if v := os.Getenv("AIQ_MAX_COMPLETED_HISTORY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxCompletedHistory = n
		}
	}
	if v := os.Getenv("AIQ_MAX_FAILED_HISTORY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxFailedHistory = n
		}
	}
	if v := os.Getenv("AIQ_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	if v := os.Getenv("AIQ_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.PollInterval = d
		}
	}
	if v := os.Getenv("AIQ_TASK_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.TaskTimeout = d
		}
	}
	if v := os.Getenv("AIQ_BADGER_PATH"); v != "" {
		cfg.BadgerPath = v
	}
	if v := os.Getenv("AIQ_POSTGRES_DSN"); v != "" {
		cfg.PostgresDSN = v
	}
	if v := os.Getenv("AIQ_JANITOR_SCHEDULE"); v != "" {
		cfg.JanitorSchedule = v
	}
	if v := os.Getenv("AIQ_RETENTION"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Retention = d
		}
	}
	if v := os.Getenv("AIQ_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("AIQ_LOG_PRETTY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Pretty = b
		}
	}
}
