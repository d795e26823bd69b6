package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"go.uber.org/zap"

	"github.com/anishgrg/furnimart-orderflow/internal/notify"
)

// Processor consumes notification events off the queue and delivers the
// rendered mail. The publishing side is fire-and-forget; here a failed
// delivery is returned to the runtime so the message is retried and
// eventually lands in the DLQ.
type Processor struct {
	mailer notify.Mailer
	logger *zap.SugaredLogger
}

func NewProcessor(mailer notify.Mailer, logger *zap.SugaredLogger) *Processor {
	return &Processor{mailer: mailer, logger: logger}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			p.logger.Errorf("worker error: %v", err)
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var ev notify.Event
	if err := json.Unmarshal([]byte(rec.Body), &ev); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}

	if ev.CustomerEmail == "" {
		// nothing to deliver to; drop instead of poisoning the queue
		p.logger.Warnf("event %s for order %s has no recipient, skipping", ev.Kind, ev.OrderID)
		return nil
	}

	if err := p.mailer.Send(ctx, ev.CustomerEmail, ev.Subject(), ev.Body()); err != nil {
		return fmt.Errorf("deliver %s for order %s: %w", ev.Kind, ev.OrderID, err)
	}

	p.logger.Infof("delivered %s for order %s to %s", ev.Kind, ev.OrderID, ev.CustomerEmail)
	return nil
}
