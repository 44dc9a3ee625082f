package config

import (
	"time"
)

// Config is the process-level configuration, built once at startup and
// passed explicitly to every collaborator.
type Config struct {
	// HTTP listen address
	Addr string

	// Queue sizing
	MaxConcurrent       int
	MaxCompletedHistory int
	MaxFailedHistory    int

	// Dispatcher behavior
	Workers      int
	PollInterval time.Duration
	TaskTimeout  time.Duration

	// Archive backends; BadgerPath wins when both are set
	BadgerPath  string
	PostgresDSN string

	// Maintenance
	JanitorSchedule string
	Retention       time.Duration

	// Logging
	LogLevel string
	Pretty   bool
}

// Default returns the baseline configuration
func Default() *Config {
	return &Config{
		Addr:                ":8080",
		MaxConcurrent:       10,
		MaxCompletedHistory: 1000,
		MaxFailedHistory:    1000,
		Workers:             10,
		PollInterval:        100 * time.Millisecond,
		TaskTimeout:         30 * time.Second,
		JanitorSchedule:     "@every 5m",
		Retention:           24 * time.Hour,
		LogLevel:            "info",
	}
}
