package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/poliutech/cotizador/internal/app"
	"github.com/poliutech/cotizador/internal/platform/db"
	"github.com/poliutech/cotizador/internal/quotes"
	"github.com/poliutech/cotizador/internal/shared"
	"github.com/poliutech/cotizador/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	sender := jobs.NewWhatsAppSender(logger, jobs.WhatsAppConfig{
		AccountSID: cfg.TwilioAccountSID,
		AuthToken:  cfg.TwilioAuthToken,
		From:       cfg.WhatsAppFrom,
		Admins:     cfg.WhatsAppAdmins,
		BaseURL:    cfg.TwilioBaseURL,
	})
	if !sender.Enabled() {
		logger.Warn("whatsapp config incomplete, notifications will be skipped")
	}

	handlers := jobs.NewHandlerSet(logger, sender, quotes.NewRepository(pool), shared.NewAuditLogger(pool))
	handlers.ReminderMinAge = cfg.ReminderAfter
	handlers.AuditRetentionDays = cfg.AuditRetentionDays

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers:  handlers,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
