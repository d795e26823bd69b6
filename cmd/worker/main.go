package main

import (
	"context"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/anishgrg/furnimart-orderflow/internal/config"
	"github.com/anishgrg/furnimart-orderflow/internal/notify"
)

func main() {
	cfg := config.Load()

	zl, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer zl.Sync()
	logger := zl.Sugar()

	mailer := notify.NewGatewayMailer(cfg.MailGatewayURL, cfg.MailFrom)
	p := NewProcessor(mailer, logger)

	// If RUN_LOCAL=true, simulate a single SQS event for local testing.
	if os.Getenv("RUN_LOCAL") == "true" {
		testBody := os.Getenv("LOCAL_SQS_BODY")
		if testBody == "" {
			testBody = `{"kind":"PAYMENT_REMINDER","order_id":"local-order-1","customer_email":"dev@furnimart.example","total_amount":100}`
		}
		event := events.SQSEvent{
			Records: []events.SQSMessage{
				{Body: testBody},
			},
		}
		if err := p.Handle(context.Background(), event); err != nil {
			logger.Fatalf("local handler error: %v", err)
		}
		return
	}

	lambda.Start(p.Handle)
}
