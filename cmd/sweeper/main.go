package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/anishgrg/furnimart-orderflow/internal/aws"
	"github.com/anishgrg/furnimart-orderflow/internal/config"
	"github.com/anishgrg/furnimart-orderflow/internal/idempotency"
	"github.com/anishgrg/furnimart-orderflow/internal/orders"
	"github.com/anishgrg/furnimart-orderflow/internal/sweeper"
)

func main() {
	cfg := config.Load()

	zl, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zl.Sync()
	logger := zl.Sugar()

	clients, err := aws.NewAWSClients(context.Background())
	if err != nil {
		logger.Fatalf("failed to init aws clients: %v", err)
	}

	store := orders.NewStore(clients.DynamoDB, cfg.OrdersTable)
	idemp := idempotency.NewStore(clients.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL)
	publisher := aws.NewPublisher(clients.SQS, cfg.NotificationQueue)
	svc := orders.NewService(store, idemp, cfg.IdempotencyTable, publisher, logger)

	sw := sweeper.New(svc, clients.CloudWatch, cfg.MetricsNamespace, logger, cfg.ReminderAfter, cfg.AutoCancelAfter)

	// If RUN_LOCAL=true, sweep on a ticker instead of waiting for the
	// scheduled lambda trigger.
	if os.Getenv("RUN_LOCAL") == "true" {
		logger.Infof("running local sweeper every %s", cfg.SweepInterval)
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			if err := sw.Run(context.Background()); err != nil {
				logger.Errorf("sweep failed: %v", err)
			}
			<-ticker.C
		}
	}

	lambda.Start(func(ctx context.Context, _ events.CloudWatchEvent) error {
		return sw.Run(ctx)
	})
}
