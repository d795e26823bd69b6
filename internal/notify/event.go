package notify

import (
	"fmt"
	"time"
)

// Event kinds carried on the notification queue.
const (
	KindOrderPlaced     = "ORDER_PLACED"
	KindStatusChanged   = "STATUS_CHANGED"
	KindOrderCancelled  = "ORDER_CANCELLED"
	KindPaymentRecorded = "PAYMENT_RECORDED"
	KindPaymentReminder = "PAYMENT_REMINDER"
	KindAutoCancelled   = "ORDER_AUTO_CANCELLED"
)

// Event is the payload published after an order mutation commits. The worker
// consumes it and delivers the rendered mail; a lost event never fails the
// mutation that produced it.
type Event struct {
	Kind          string    `json:"kind"`
	OrderID       string    `json:"order_id"`
	CustomerEmail string    `json:"customer_email"`
	Status        string    `json:"status,omitempty"`
	PaymentStatus string    `json:"payment_status,omitempty"`
	TotalAmount   float64   `json:"total_amount,omitempty"`
	AmountPaid    float64   `json:"amount_paid,omitempty"`
	Penalty       float64   `json:"penalty,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// Subject renders the mail subject line for the event.
func (e Event) Subject() string {
	switch e.Kind {
	case KindOrderPlaced:
		return fmt.Sprintf("Order %s received", e.OrderID)
	case KindStatusChanged:
		return fmt.Sprintf("Order %s is now %s", e.OrderID, e.Status)
	case KindOrderCancelled:
		return fmt.Sprintf("Order %s cancelled", e.OrderID)
	case KindPaymentRecorded:
		return fmt.Sprintf("Payment received for order %s", e.OrderID)
	case KindPaymentReminder:
		return fmt.Sprintf("Payment reminder for order %s", e.OrderID)
	case KindAutoCancelled:
		return fmt.Sprintf("Order %s cancelled after payment window expired", e.OrderID)
	}
	return fmt.Sprintf("Update on order %s", e.OrderID)
}

// Body renders the mail body for the event.
func (e Event) Body() string {
	switch e.Kind {
	case KindOrderPlaced:
		return fmt.Sprintf("Thank you for your order. Order %s for %.2f has been placed and awaits approval.", e.OrderID, e.TotalAmount)
	case KindStatusChanged:
		return fmt.Sprintf("Your order %s moved to %s.", e.OrderID, e.Status)
	case KindOrderCancelled:
		if e.Penalty > 0 {
			return fmt.Sprintf("Your order %s was cancelled. A non-refundable charge of %.2f (20%% of %.2f) was retained because production had started.", e.OrderID, e.Penalty, e.TotalAmount)
		}
		return fmt.Sprintf("Your order %s was cancelled. Any payment has been reversed in full.", e.OrderID)
	case KindPaymentRecorded:
		return fmt.Sprintf("We recorded a payment on order %s. Paid so far: %.2f of %.2f (%s).", e.OrderID, e.AmountPaid, e.TotalAmount, e.PaymentStatus)
	case KindPaymentReminder:
		return fmt.Sprintf("Your order %s was approved but no payment has arrived yet. Unpaid orders are cancelled automatically, so please complete the payment of %.2f.", e.OrderID, e.TotalAmount)
	case KindAutoCancelled:
		return fmt.Sprintf("Your order %s was cancelled because no payment arrived within the payment window.", e.OrderID)
	}
	return fmt.Sprintf("There is an update on your order %s.", e.OrderID)
}
