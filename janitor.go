package aiqueue

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// JanitorConfig configures scheduled maintenance
type JanitorConfig struct {
	// Schedule is a cron expression; defaults to every five minutes.
	Schedule string

	// Retention is how long archived records are kept.
	Retention time.Duration

	Archive Archive
	Logger  zerolog.Logger
}

// Janitor prunes archived records on a schedule and refreshes queue depth
// gauges, keeping the archive from growing without bound.
type Janitor struct {
	queue  *TaskQueue
	config JanitorConfig
	cron   *cron.Cron
}

// NewJanitor creates a janitor for the given queue
func NewJanitor(queue *TaskQueue, cfg JanitorConfig) (*Janitor, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = "@every 5m"
	}
	if cfg.Retention == 0 {
		cfg.Retention = 24 * time.Hour
	}

	j := &Janitor{
		queue:  queue,
		config: cfg,
		cron:   cron.New(),
	}

	if _, err := j.cron.AddFunc(cfg.Schedule, j.sweep); err != nil {
		return nil, fmt.Errorf("invalid janitor schedule %q: %w", cfg.Schedule, err)
	}

	return j, nil
}

// Start begins the maintenance schedule
func (j *Janitor) Start() {
	j.cron.Start()
	j.config.Logger.Info().
		Str("schedule", j.config.Schedule).
		Dur("retention", j.config.Retention).
		Msg("janitor started")
}

// Stop halts the schedule and waits for a running sweep to finish
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

// sweep runs one maintenance pass
func (j *Janitor) sweep() {
	ObserveQueueDepth(j.queue.Statistics())

	if j.config.Archive == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cutoff := time.Now().Add(-j.config.Retention)
	removed, err := j.config.Archive.DeleteBefore(ctx, cutoff)
	if err != nil {
		j.config.Logger.Error().Err(err).Msg("archive prune failed")
		return
	}
	if removed > 0 {
		j.config.Logger.Info().Int("removed", removed).Msg("pruned archived records")
	}
}
