package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/joho/godotenv"

	"github.com/caseflowhq/caseflow/cmd/mainconfig"
	"github.com/caseflowhq/caseflow/internal/appointments"
	"github.com/caseflowhq/caseflow/internal/calendar"
	appconfig "github.com/caseflowhq/caseflow/internal/config"
	syncworker "github.com/caseflowhq/caseflow/internal/worker/sync"
	"github.com/caseflowhq/caseflow/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if cfg.SyncQueueURL == "" {
		logger.Error("sync worker requires SYNC_QUEUE_URL")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	sqsClient := sqs.NewFromConfig(awsCfg)

	google := calendar.NewGoogleClient(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, logger)
	connStore := calendar.NewDynamoConnectionStore(dynamoClient, cfg.ConnectionsTable, logger)
	refStore := calendar.NewDynamoReferenceStore(dynamoClient, cfg.EventRefsTable, logger)
	orch := calendar.NewOrchestrator(connStore, refStore, google, logger).
		WithCallTimeout(cfg.SyncCallTimeout).
		WithRetry(cfg.SyncRetryMaxAttempts, cfg.SyncRetryBaseDelay)

	apptRepo := appointments.NewDynamoRepository(dynamoClient, cfg.AppointmentsTable, logger)
	backfiller := calendar.NewBackfiller(appointments.NewCalendarSource(apptRepo), orch, connStore, logger)
	queue := calendar.NewQueue(sqsClient, cfg.SyncQueueURL, logger)

	worker := syncworker.NewWorker(queue, backfiller, logger).
		WithWaitTime(cfg.WorkerPollInterval)

	logger.Info("sync worker started", "queue", cfg.SyncQueueURL)
	go worker.Run(ctx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("sync worker shutting down")
	cancel()
	time.Sleep(2 * time.Second)
}
