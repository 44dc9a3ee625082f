package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/hasanerken/aiqueue"
	"github.com/hasanerken/aiqueue/internal/config"
	"github.com/hasanerken/aiqueue/internal/server"
	badgerstore "github.com/hasanerken/aiqueue/store/badger"
	pgstore "github.com/hasanerken/aiqueue/store/postgres"
)

func main() {
	cfg := config.Default()
	config.FromEnv(cfg)

	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	archive, err := newArchive(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open archive")
	}
	if archive != nil {
		defer archive.Close()
	}

	queue := aiqueue.NewTaskQueue(aiqueue.QueueConfig{
		MaxConcurrent:       cfg.MaxConcurrent,
		MaxCompletedHistory: cfg.MaxCompletedHistory,
		MaxFailedHistory:    cfg.MaxFailedHistory,
	})

	// Processors are registered by the embedding application; the daemon
	// itself ships none. Submissions for unknown types are rejected by the
	// API before they reach the queue.
	processors := aiqueue.NewProcessors()

	dispatcher, err := aiqueue.NewDispatcher(queue, aiqueue.DispatcherConfig{
		Processors:   processors,
		Workers:      cfg.Workers,
		PollInterval: cfg.PollInterval,
		TaskTimeout:  cfg.TaskTimeout,
		Archive:      archive,
		Logger:       logger,
		Middleware: []aiqueue.MiddlewareFunc{
			aiqueue.RecoveryMiddleware(logger),
			aiqueue.LoggingMiddleware(logger),
			aiqueue.MetricsMiddleware(),
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build dispatcher")
	}

	janitor, err := aiqueue.NewJanitor(queue, aiqueue.JanitorConfig{
		Schedule:  cfg.JanitorSchedule,
		Retention: cfg.Retention,
		Archive:   archive,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build janitor")
	}

	srv := server.NewServer(&server.Options{
		Addr:   cfg.Addr,
		Logger: logger,
	}, queue, processors, archive)

	if err := dispatcher.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to start dispatcher")
	}
	janitor.Start()
	if err := srv.Run(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start server")
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_ = srv.Close()
	janitor.Stop()
	_ = dispatcher.Stop(shutdownCtx)

	logger.Info().Msg("shutdown complete")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Logger()

	if cfg.Pretty {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	return logger
}

func newArchive(ctx context.Context, cfg *config.Config) (aiqueue.Archive, error) {
	switch {
	case cfg.BadgerPath != "":
		return badgerstore.NewStore(cfg.BadgerPath)
	case cfg.PostgresDSN != "":
		return pgstore.NewStore(ctx, cfg.PostgresDSN)
	default:
		return nil, nil
	}
}
