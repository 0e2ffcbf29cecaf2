package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/caseflowhq/caseflow/cmd/mainconfig"
	"github.com/caseflowhq/caseflow/internal/api/router"
	"github.com/caseflowhq/caseflow/internal/appointments"
	"github.com/caseflowhq/caseflow/internal/audit"
	"github.com/caseflowhq/caseflow/internal/calendar"
	"github.com/caseflowhq/caseflow/internal/clients"
	appconfig "github.com/caseflowhq/caseflow/internal/config"
	"github.com/caseflowhq/caseflow/internal/docexport"
	"github.com/caseflowhq/caseflow/internal/knowledge"
	"github.com/caseflowhq/caseflow/internal/messaging"
	"github.com/caseflowhq/caseflow/internal/notify"
	"github.com/caseflowhq/caseflow/internal/observability/metrics"
	"github.com/caseflowhq/caseflow/internal/reports"
	"github.com/caseflowhq/caseflow/internal/resources"
	"github.com/caseflowhq/caseflow/internal/sessions"
	"github.com/caseflowhq/caseflow/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting caseflow API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	sqsClient := sqs.NewFromConfig(awsCfg)
	s3Client := s3.NewFromConfig(awsCfg)

	registry := prometheus.NewRegistry()
	syncMetrics := metrics.NewSyncMetrics(registry)

	// Calendar sync core.
	google := calendar.NewGoogleClient(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, logger)
	connStore := calendar.NewDynamoConnectionStore(dynamoClient, cfg.ConnectionsTable, logger)
	refStore := calendar.NewDynamoReferenceStore(dynamoClient, cfg.EventRefsTable, logger)
	orch := calendar.NewOrchestrator(connStore, refStore, google, logger).
		WithCallTimeout(cfg.SyncCallTimeout).
		WithRetry(cfg.SyncRetryMaxAttempts, cfg.SyncRetryBaseDelay).
		WithMetrics(syncMetrics)

	apptRepo := appointments.NewDynamoRepository(dynamoClient, cfg.AppointmentsTable, logger)
	backfiller := calendar.NewBackfiller(appointments.NewCalendarSource(apptRepo), orch, connStore, logger)

	var backfillQueue calendar.BackfillPublisher
	if cfg.SyncQueueURL != "" {
		backfillQueue = calendar.NewQueue(sqsClient, cfg.SyncQueueURL, logger)
	} else {
		logger.Warn("SYNC_QUEUE_URL not set, backfill jobs run inline only")
	}

	// Email notifications: SES when configured, SendGrid as fallback, stub
	// otherwise so appointment creation never depends on email.
	var emailSender notify.EmailSender = notify.NewStubEmailSender(logger)
	switch {
	case cfg.SESFromEmail != "":
		emailSender = notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
	case cfg.SendGridAPIKey != "":
		emailSender = notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
		}, logger)
	}
	notifier := notify.NewService(emailSender, notify.Config{Recipient: cfg.NotifyRecipient}, logger)

	apptService := appointments.NewService(apptRepo, orch, logger).WithNotifier(notifier)

	// Postgres: audit trail (pgx) and dashboard reporting (database/sql).
	var reportsHandler *reports.Handler
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create pgx pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		apptService = apptService.WithAudit(audit.NewRecorder(pool, logger))

		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to open reporting DB", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		reportsHandler = reports.NewHandler(reports.NewRepository(db), logger)
	} else {
		logger.Warn("DATABASE_URL not set, audit trail and reports disabled")
	}

	// Redis-backed knowledge base.
	var knowledgeHandler *knowledge.Handler
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		knowledgeHandler = knowledge.NewHandler(knowledge.NewStore(redis.NewClient(opts)), logger)
	} else {
		logger.Warn("REDIS_ADDR not set, knowledge base disabled")
	}

	// S3-backed shared resources.
	var resourcesHandler *resources.Handler
	if cfg.ResourceBucket != "" {
		resourcesHandler = resources.NewHandler(
			resources.NewStore(s3Client, s3.NewPresignClient(s3Client), cfg.ResourceBucket, logger),
			logger,
		)
	} else {
		logger.Warn("RESOURCE_BUCKET not set, resources disabled")
	}

	sessRepo := sessions.NewDynamoRepository(dynamoClient, cfg.SessionsTable, logger)
	msgHub := messaging.NewHub(logger)
	msgStore := messaging.NewDynamoStore(dynamoClient, cfg.MessagesTable, logger)

	routerCfg := &router.Config{
		Logger:              logger,
		CalendarHandler:     calendar.NewHandler(orch, backfiller, logger),
		CalendarOAuth:       calendar.NewOAuthHandler(google, connStore, refStore, backfillQueue, logger),
		ClientsHandler:      clients.NewHandler(clients.NewDynamoRepository(dynamoClient, cfg.ClientsTable, logger), logger),
		AppointmentsHandler: appointments.NewHandler(apptService, logger),
		SessionsHandler:     sessions.NewHandler(sessRepo, logger),
		MessagingHandler:    messaging.NewHandler(msgStore, msgHub, logger),
		MessagingHub:        msgHub,
		KnowledgeHandler:    knowledgeHandler,
		ResourcesHandler:    resourcesHandler,
		ExportHandler:       docexport.NewHandler(docexport.NewExporter(sessRepo, connStore, google, logger), logger),
		ReportsHandler:      reportsHandler,
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		StaffAuthSecret:     cfg.AdminJWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerSecond:  cfg.RateLimitRPS,
		RateLimitBurst:      cfg.RateLimitBurst,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
