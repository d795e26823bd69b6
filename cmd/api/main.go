package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/anishgrg/furnimart-orderflow/internal/aws"
	"github.com/anishgrg/furnimart-orderflow/internal/config"
	"github.com/anishgrg/furnimart-orderflow/internal/handlers"
	"github.com/anishgrg/furnimart-orderflow/internal/idempotency"
	"github.com/anishgrg/furnimart-orderflow/internal/orders"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterOrderRoutes(r, cfg)

	return r
}

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

	r := setupRouter(handlers.HandlerConfig{
		Service:     svc,
		Idempotency: idemp,
		Logger:      logger,
	})

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if os.Getenv("RUN_LOCAL") == "true" {
		logger.Infof("running local server on %s", cfg.ServerAddr)
		if err := r.Run(cfg.ServerAddr); err != nil {
			logger.Fatalf("failed to run local server: %v", err)
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (interface{}, error) {
		return adapter.ProxyWithContext(ctx, req)
	})
}
