package sweeper

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"

	"github.com/anishgrg/furnimart-orderflow/internal/aws"
	"github.com/anishgrg/furnimart-orderflow/internal/orders"
)

// Sweeper periodically scans for approved orders whose payment never
// arrived: first it reminds, later it cancels. It runs concurrently with
// user-triggered operations and goes through the same Service methods, so
// the per-order conditional writes arbitrate any races (a customer paying at
// the exact moment of expiry keeps the order alive).
type Sweeper struct {
	svc             *orders.Service
	metrics         aws.CloudWatchAPI
	namespace       string
	logger          *zap.SugaredLogger
	nowFunc         func() time.Time
	reminderAfter   time.Duration
	autoCancelAfter time.Duration
}

func New(svc *orders.Service, metrics aws.CloudWatchAPI, namespace string, logger *zap.SugaredLogger, reminderAfter, autoCancelAfter time.Duration) *Sweeper {
	return &Sweeper{
		svc:             svc,
		metrics:         metrics,
		namespace:       namespace,
		logger:          logger,
		nowFunc:         time.Now,
		reminderAfter:   reminderAfter,
		autoCancelAfter: autoCancelAfter,
	}
}

// Run executes both scans. Each scan isolates per-order failures; Run only
// fails when a scan could not select its orders at all.
func (s *Sweeper) Run(ctx context.Context) error {
	return errors.Join(
		s.RunReminderScan(ctx),
		s.RunAutoCancelScan(ctx),
	)
}

// RunReminderScan notifies every approved order that has been unpaid past
// the reminder window. There is no de-duplication: a still-unpaid order is
// reminded again on every sweep until it changes state.
func (s *Sweeper) RunReminderScan(ctx context.Context) error {
	cutoff := s.nowFunc().Add(-s.reminderAfter)
	due, err := s.svc.DuePaymentOrders(ctx, cutoff)
	if err != nil {
		return err
	}

	sent := 0
	for _, order := range due {
		if err := s.svc.SendPaymentReminder(ctx, order); err != nil {
			s.logger.Errorf("payment reminder for order %s: %s", order.OrderID, err.Error())
			continue
		}
		sent++
	}

	s.logger.Infof("reminder scan: %d due, %d reminders sent", len(due), sent)
	s.putMetric(ctx, "RemindersSent", float64(sent))
	return nil
}

// RunAutoCancelScan cancels every approved order that has been unpaid past
// the auto-cancel window. No penalty applies, nothing was ever paid on this
// path. An order that changed state between the scan and the write is
// skipped.
func (s *Sweeper) RunAutoCancelScan(ctx context.Context) error {
	cutoff := s.nowFunc().Add(-s.autoCancelAfter)
	due, err := s.svc.DuePaymentOrders(ctx, cutoff)
	if err != nil {
		return err
	}

	cancelled := 0
	for _, order := range due {
		ok, err := s.svc.AutoCancelExpired(ctx, order.OrderID)
		if err != nil {
			s.logger.Errorf("auto-cancel order %s: %s", order.OrderID, err.Error())
			continue
		}
		if ok {
			cancelled++
		}
	}

	s.logger.Infof("auto-cancel scan: %d due, %d cancelled", len(due), cancelled)
	s.putMetric(ctx, "OrdersAutoCancelled", float64(cancelled))
	return nil
}

// putMetric publishes a counter. Metrics are best-effort, failures are
// logged and swallowed.
func (s *Sweeper) putMetric(ctx context.Context, name string, value float64) {
	if s.metrics == nil {
		return
	}
	now := s.nowFunc()
	_, err := s.metrics.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &s.namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: &name,
				Value:      &value,
				Unit:       cwtypes.StandardUnitCount,
				Timestamp:  &now,
			},
		},
	})
	if err != nil {
		s.logger.Errorf("put metric %s: %s", name, err.Error())
	}
}
