package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Worker wraps the asynq server and periodic scheduler.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	logger    *slog.Logger
}

// WorkerConfig collects what the worker needs to run.
type WorkerConfig struct {
	RedisOpts asynq.RedisClientOpt
	Logger    *slog.Logger
	Handlers  *HandlerSet

	// ReminderInterval is the cron spec of the reminder sweep.
	ReminderInterval string
	// AuditCleanupSpec is the cron spec of the audit retention job.
	AuditCleanupSpec string
}

// NewWorker builds the worker with every quote task registered, plus the
// periodic reminder and cleanup schedules.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Handlers == nil {
		return nil, errors.New("jobs: handlers required")
	}
	if cfg.ReminderInterval == "" {
		cfg.ReminderInterval = "@every 24h"
	}
	if cfg.AuditCleanupSpec == "" {
		cfg.AuditCleanupSpec = "0 3 * * *"
	}

	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			QueueDefault: 1,
		},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskQuoteCreated, cfg.Handlers.HandleQuoteCreated)
	mux.HandleFunc(TaskStatusChanged, cfg.Handlers.HandleStatusChanged)
	mux.HandleFunc(TaskPendingReminders, cfg.Handlers.HandlePendingReminders)
	mux.HandleFunc(TaskAuditCleanup, cfg.Handlers.HandleAuditCleanup)

	scheduler := asynq.NewScheduler(cfg.RedisOpts, &asynq.SchedulerOpts{Location: time.UTC})
	if _, err := scheduler.Register(cfg.ReminderInterval, NewPendingRemindersTask(), asynq.Queue(QueueDefault)); err != nil {
		return nil, err
	}
	if _, err := scheduler.Register(cfg.AuditCleanupSpec, NewAuditCleanupTask(), asynq.Queue(QueueDefault)); err != nil {
		return nil, err
	}

	return &Worker{server: srv, mux: mux, scheduler: scheduler, logger: cfg.Logger}, nil
}

// Run processes jobs until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("jobs: worker not configured")
	}
	if err := w.scheduler.Start(); err != nil {
		return err
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		w.scheduler.Shutdown()
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		w.scheduler.Shutdown()
		return err
	}
}
