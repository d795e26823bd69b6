package orders

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/anishgrg/furnimart-orderflow/internal/idempotency"
	"github.com/anishgrg/furnimart-orderflow/internal/notify"
)

// maxSaveAttempts bounds the read-apply-save loop when a conditional write
// loses a race with a concurrent mutation on the same order.
const maxSaveAttempts = 3

// NotificationPublisher is satisfied by aws.Publisher.
type NotificationPublisher interface {
	SendNotificationMessage(ctx context.Context, messageBody string, attributes map[string]string) error
}

// Service is the mutation surface for orders. Every state change funnels
// through here: the HTTP layer and the sweeper both call these methods, so
// the lifecycle rules are enforced at one choke point.
type Service struct {
	store      *Store
	idemp      *idempotency.Store
	idempTable string
	publisher  NotificationPublisher
	logger     *zap.SugaredLogger
	nowFunc    func() time.Time
}

func NewService(store *Store, idemp *idempotency.Store, idempTable string, publisher NotificationPublisher, logger *zap.SugaredLogger) *Service {
	return &Service{
		store:      store,
		idemp:      idemp,
		idempTable: idempTable,
		publisher:  publisher,
		logger:     logger,
		nowFunc:    time.Now,
	}
}

// PlaceOrderInput carries everything needed to create an order.
type PlaceOrderInput struct {
	CustomerID    string
	CustomerEmail string
	LineItems     []LineItem
	Amount        float64
}

// PlaceOrder creates a new PENDING order with nothing paid. When an
// idempotency key is supplied the order and the idempotency record are
// created in one transaction, so a replayed request cannot produce a second
// order; the replay surfaces as ErrDuplicateRequest.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput, idempotencyKey string) (*Order, error) {
	now := s.nowFunc()
	order := &Order{
		OrderID:       uuid.NewString(),
		CustomerID:    in.CustomerID,
		CustomerEmail: in.CustomerEmail,
		LineItems:     in.LineItems,
		TotalAmount:   roundCents(in.Amount),
		AmountPaid:    0,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	var err error
	if idempotencyKey != "" {
		rec := s.idemp.NewRecord(idempotencyKey, order.OrderID)
		err = s.store.CreateWithIdempotency(ctx, s.idempTable, rec, order)
	} else {
		err = s.store.Create(ctx, order)
	}
	if err != nil {
		return nil, err
	}

	s.publish(ctx, notify.Event{
		Kind:          notify.KindOrderPlaced,
		OrderID:       order.OrderID,
		CustomerEmail: order.CustomerEmail,
		Status:        string(order.Status),
		TotalAmount:   order.TotalAmount,
	})
	return order, nil
}

// AdvanceStatus moves the order to the requested status. Requesting the
// current status is a successful no-op (retry safety) and emits nothing.
func (s *Service) AdvanceStatus(ctx context.Context, orderID string, target Status) (*Order, error) {
	order, changed, err := s.mutate(ctx, orderID, func(o *Order) (bool, error) {
		return o.Advance(target, s.nowFunc())
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.publish(ctx, notify.Event{
			Kind:          notify.KindStatusChanged,
			OrderID:       order.OrderID,
			CustomerEmail: order.CustomerEmail,
			Status:        string(order.Status),
			PaymentStatus: string(order.PaymentStatus),
			TotalAmount:   order.TotalAmount,
			AmountPaid:    order.AmountPaid,
		})
	}
	return order, nil
}

// CancelOrder cancels a non-terminal order, applying the processing-stage
// penalty where it applies, and notifies the customer with the penalty
// breakdown.
func (s *Service) CancelOrder(ctx context.Context, orderID string) (*Order, error) {
	var penalty float64
	order, _, err := s.mutate(ctx, orderID, func(o *Order) (bool, error) {
		p, err := o.Cancel()
		if err != nil {
			return false, err
		}
		penalty = p
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, notify.Event{
		Kind:          notify.KindOrderCancelled,
		OrderID:       order.OrderID,
		CustomerEmail: order.CustomerEmail,
		Status:        string(order.Status),
		TotalAmount:   order.TotalAmount,
		AmountPaid:    order.AmountPaid,
		Penalty:       penalty,
	})
	return order, nil
}

// RecordPayment sets the new cumulative amount paid on the order and
// rederives payment status. The caller supplies the cumulative total, not
// the increment.
func (s *Service) RecordPayment(ctx context.Context, orderID string, cumulativeAmount float64) (*Order, error) {
	order, _, err := s.mutate(ctx, orderID, func(o *Order) (bool, error) {
		if err := o.RecordPayment(cumulativeAmount); err != nil {
			return false, err
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, notify.Event{
		Kind:          notify.KindPaymentRecorded,
		OrderID:       order.OrderID,
		CustomerEmail: order.CustomerEmail,
		Status:        string(order.Status),
		PaymentStatus: string(order.PaymentStatus),
		TotalAmount:   order.TotalAmount,
		AmountPaid:    order.AmountPaid,
	})
	return order, nil
}

// GetOrder fetches a single order.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	order, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrNotFound
	}
	return order, nil
}

// ListOrders returns one page of orders matching the filter.
func (s *Service) ListOrders(ctx context.Context, filter ListFilter, limit int32, cursor string) (Page, error) {
	return s.store.List(ctx, filter, limit, cursor)
}

// DuePaymentOrders returns approved, unpaid orders whose approval timestamp
// is at or before cutoff. Sweeper selection query.
func (s *Service) DuePaymentOrders(ctx context.Context, cutoff time.Time) ([]Order, error) {
	return s.store.ScanDue(ctx, StatusApproved, PaymentPending, cutoff)
}

// SendPaymentReminder emits a reminder notification for an order awaiting
// payment. No state changes; the reminder re-fires on every sweep until the
// order moves on.
func (s *Service) SendPaymentReminder(ctx context.Context, order Order) error {
	ev := notify.Event{
		Kind:          notify.KindPaymentReminder,
		OrderID:       order.OrderID,
		CustomerEmail: order.CustomerEmail,
		Status:        string(order.Status),
		TotalAmount:   order.TotalAmount,
		OccurredAt:    s.nowFunc(),
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.publisher.SendNotificationMessage(ctx, string(body), eventAttributes(ev))
}

// AutoCancelExpired force-cancels an order whose payment window elapsed. The
// order is re-read before the write: if a payment or a manual transition
// landed in the meantime the order no longer matches and is left alone. No
// penalty applies on this path, nothing was ever paid.
func (s *Service) AutoCancelExpired(ctx context.Context, orderID string) (bool, error) {
	order, changed, err := s.mutate(ctx, orderID, func(o *Order) (bool, error) {
		if o.Status != StatusApproved || o.PaymentStatus != PaymentPending {
			return false, nil
		}
		o.ForceCancel()
		return true, nil
	})
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}

	s.publish(ctx, notify.Event{
		Kind:          notify.KindAutoCancelled,
		OrderID:       order.OrderID,
		CustomerEmail: order.CustomerEmail,
		Status:        string(order.Status),
		TotalAmount:   order.TotalAmount,
		AmountPaid:    order.AmountPaid,
	})
	return true, nil
}

// mutate runs the read-apply-save cycle for one order. The apply callback
// works on freshly read state each attempt, and the save is conditional on
// the version that was read, so derived fields can never clobber a
// concurrent update. apply returning (false, nil) skips the save entirely.
func (s *Service) mutate(ctx context.Context, orderID string, apply func(*Order) (bool, error)) (*Order, bool, error) {
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		order, err := s.store.Get(ctx, orderID)
		if err != nil {
			return nil, false, err
		}
		if order == nil {
			return nil, false, ErrNotFound
		}

		changed, err := apply(order)
		if err != nil {
			return nil, false, err
		}
		if !changed {
			return order, false, nil
		}

		err = s.store.Save(ctx, order)
		if err == nil {
			return order, true, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, false, err
		}
		s.logger.Infof("retrying order %s after concurrent update (attempt %d)", orderID, attempt+1)
	}
	return nil, false, ErrVersionConflict
}

// publish sends the notification event after the mutation committed.
// Best-effort: a publish failure is logged and never propagated, the ledger
// update already stands.
func (s *Service) publish(ctx context.Context, ev notify.Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = s.nowFunc()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		s.logger.Errorf("marshal notification for order %s: %s", ev.OrderID, err.Error())
		return
	}
	if err := s.publisher.SendNotificationMessage(ctx, string(body), eventAttributes(ev)); err != nil {
		s.logger.Errorf("notification publish failed for order %s (%s): %s", ev.OrderID, ev.Kind, err.Error())
	}
}

func eventAttributes(ev notify.Event) map[string]string {
	return map[string]string{
		"kind":     ev.Kind,
		"order_id": ev.OrderID,
	}
}
