package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/poliutech/cotizador/internal/app"
	"github.com/poliutech/cotizador/internal/auth"
	"github.com/poliutech/cotizador/internal/catalog/clients"
	"github.com/poliutech/cotizador/internal/catalog/concepts"
	"github.com/poliutech/cotizador/internal/dashboard"
	"github.com/poliutech/cotizador/internal/observability"
	"github.com/poliutech/cotizador/internal/platform/cache"
	"github.com/poliutech/cotizador/internal/platform/db"
	"github.com/poliutech/cotizador/internal/quotes"
	"github.com/poliutech/cotizador/internal/shared"
	"github.com/poliutech/cotizador/internal/view"
	"github.com/poliutech/cotizador/jobs"
	"github.com/poliutech/cotizador/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "poliutech_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	authService := auth.NewService(auth.NewRepository(dbpool))
	authHandler := auth.NewHandler(logger, authService, templates, sessionManager, csrfManager)

	clientsService := clients.NewService(clients.NewRepository(dbpool))
	clientsHandler := clients.NewHandler(logger, clientsService, templates, csrfManager)

	conceptsService := concepts.NewService(concepts.NewRepository(dbpool))
	conceptsHandler := concepts.NewHandler(logger, conceptsService, templates, csrfManager)

	notifier := jobs.NewEnqueuer(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := notifier.Close(); err != nil {
			logger.Warn("notifier close", slog.Any("error", err))
		}
	}()

	quotesService := quotes.NewService(
		logger,
		quotes.NewRepository(dbpool),
		clientsService,
		conceptsService,
		notifier,
		auditLogger,
		quotes.Config{
			DiscountMode: quotes.ParseDiscountMode(cfg.QuoteDiscountMode),
			FolioPrefix:  cfg.QuoteFolioPrefix,
			DefaultTax:   cfg.QuoteTaxPercent,
		},
	)
	pdfRenderer := report.NewQuoteRenderer(report.NewClient(cfg.GotenbergURL))
	quotesHandler := quotes.NewHandler(logger, quotesService, templates, csrfManager, pdfRenderer)

	dashboardCache := dashboard.NewCache(redisClient, 10*time.Minute)
	dashboardService := dashboard.NewService(logger, dashboard.NewRepository(dbpool), dashboardCache)
	go func() {
		if err := dashboardCache.ListenForInvalidation(ctx); err != nil && err != context.Canceled {
			logger.Warn("dashboard invalidation listener", slog.Any("error", err))
		}
	}()
	dashboardHandler := dashboard.NewHandler(logger, dashboardService, quotesService, templates, csrfManager)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		SessionManager:   sessionManager,
		CSRFManager:      csrfManager,
		Metrics:          metrics,
		AuthHandler:      authHandler,
		DashboardHandler: dashboardHandler,
		QuotesHandler:    quotesHandler,
		ClientsHandler:   clientsHandler,
		ConceptsHandler:  conceptsHandler,
		Dashboard:        dashboardService,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
