package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hasanerken/aiqueue"
)

// Store implements aiqueue.Archive using PostgreSQL via pgx
type Store struct {
	pool *pgxpool.Pool
}

// Config holds configuration options for the Postgres archive
type Config struct {
	// DSN is the connection string
	DSN string

	// Pool settings
	MaxConns        int32         // Maximum connections in pool (default: 25)
	MinConns        int32         // Minimum connections in pool (default: 5)
	MaxConnLifetime time.Duration // Maximum connection lifetime (default: 1 hour)
}

const schema = `
CREATE TABLE IF NOT EXISTS aiqueue_results (
	task_id            TEXT PRIMARY KEY,
	task_type          TEXT NOT NULL,
	user_id            TEXT NOT NULL,
	message_id         TEXT NOT NULL,
	output_data        JSONB,
	confidence         DOUBLE PRECISION NOT NULL,
	processing_time_ms BIGINT NOT NULL,
	completed_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS aiqueue_results_completed_at_idx ON aiqueue_results (completed_at);

CREATE TABLE IF NOT EXISTS aiqueue_failures (
	task_id       TEXT PRIMARY KEY,
	task_type     TEXT NOT NULL,
	user_id       TEXT NOT NULL,
	message_id    TEXT NOT NULL,
	error_message TEXT,
	cancelled     BOOLEAN NOT NULL DEFAULT FALSE,
	retry_count   INT NOT NULL,
	failed_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS aiqueue_failures_failed_at_idx ON aiqueue_failures (failed_at);
`

// NewStore creates a Postgres-backed archive and bootstraps its schema
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	return NewStoreWithConfig(ctx, Config{DSN: dsn})
}

// NewStoreWithConfig creates a Postgres archive with custom pool settings
func NewStoreWithConfig(ctx context.Context, cfg Config) (*Store, error) {
	config, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	if cfg.MaxConns > 0 {
		config.MaxConns = cfg.MaxConns
	} else {
		config.MaxConns = 25
	}
	if cfg.MinConns > 0 {
		config.MinConns = cfg.MinConns
	} else {
		config.MinConns = 5
	}
	if cfg.MaxConnLifetime > 0 {
		config.MaxConnLifetime = cfg.MaxConnLifetime
	} else {
		config.MaxConnLifetime = 1 * time.Hour
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to bootstrap schema: %w", err)
	}

	return &Store{pool: pool}, nil
}

// PutResult stores a completed task's result
func (s *Store) PutResult(ctx context.Context, result *aiqueue.Result) error {
	query := `
		INSERT INTO aiqueue_results (
			task_id, task_type, user_id, message_id,
			output_data, confidence, processing_time_ms, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (task_id) DO NOTHING
	`

	_, err := s.pool.Exec(ctx, query,
		result.TaskID,
		result.Type,
		result.UserID,
		result.MessageID,
		[]byte(result.OutputData),
		result.Confidence,
		result.ProcessingTimeMs,
		result.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}
	return nil
}

// PutFailure stores a terminal failure or cancellation record
func (s *Store) PutFailure(ctx context.Context, failure *aiqueue.FailureRecord) error {
	query := `
		INSERT INTO aiqueue_failures (
			task_id, task_type, user_id, message_id,
			error_message, cancelled, retry_count, failed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (task_id) DO NOTHING
	`

	_, err := s.pool.Exec(ctx, query,
		failure.TaskID,
		failure.Type,
		failure.UserID,
		failure.MessageID,
		failure.ErrorMessage,
		failure.Cancelled,
		failure.RetryCount,
		failure.FailedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store failure: %w", err)
	}
	return nil
}

// GetResult retrieves a stored result
func (s *Store) GetResult(ctx context.Context, taskID string) (*aiqueue.Result, error) {
	query := `
		SELECT task_id, task_type, user_id, message_id,
		       output_data, confidence, processing_time_ms, completed_at
		FROM aiqueue_results
		WHERE task_id = $1
	`

	var result aiqueue.Result
	var output []byte
	err := s.pool.QueryRow(ctx, query, taskID).Scan(
		&result.TaskID,
		&result.Type,
		&result.UserID,
		&result.MessageID,
		&output,
		&result.Confidence,
		&result.ProcessingTimeMs,
		&result.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, aiqueue.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load result: %w", err)
	}

	result.OutputData = output
	return &result, nil
}

// GetFailure retrieves a stored failure record
func (s *Store) GetFailure(ctx context.Context, taskID string) (*aiqueue.FailureRecord, error) {
	query := `
		SELECT task_id, task_type, user_id, message_id,
		       error_message, cancelled, retry_count, failed_at
		FROM aiqueue_failures
		WHERE task_id = $1
	`

	var failure aiqueue.FailureRecord
	err := s.pool.QueryRow(ctx, query, taskID).Scan(
		&failure.TaskID,
		&failure.Type,
		&failure.UserID,
		&failure.MessageID,
		&failure.ErrorMessage,
		&failure.Cancelled,
		&failure.RetryCount,
		&failure.FailedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, aiqueue.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load failure: %w", err)
	}

	return &failure, nil
}

// DeleteBefore prunes archived records older than the given time
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int, error) {
	removed := 0

	tag, err := s.pool.Exec(ctx, `DELETE FROM aiqueue_results WHERE completed_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune results: %w", err)
	}
	removed += int(tag.RowsAffected())

	tag, err = s.pool.Exec(ctx, `DELETE FROM aiqueue_failures WHERE failed_at < $1`, before)
	if err != nil {
		return removed, fmt.Errorf("failed to prune failures: %w", err)
	}
	removed += int(tag.RowsAffected())

	return removed, nil
}

// Close closes the connection pool
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping verifies database connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
