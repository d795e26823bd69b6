package orders

import (
	"math"
	"time"
)

// cancellationPenaltyRate is the share of the order total retained when a
// customer cancels after production has started.
const cancellationPenaltyRate = 0.20

func nextStatus(s Status) (Status, bool) {
	switch s {
	case StatusPending:
		return StatusApproved, true
	case StatusApproved:
		return StatusProcessing, true
	case StatusProcessing:
		return StatusDelivered, true
	}
	return "", false
}

// Advance moves the order to target, which must be the next status in the
// linear sequence. Asking for the current status is a successful no-op so
// retried requests do not fail; the false return tells the caller nothing
// changed and approved_at is not re-stamped.
//
// Delivery is blocked only while payment status is PENDING: a partial
// payment is enough to mark an order delivered.
func (o *Order) Advance(target Status, now time.Time) (bool, error) {
	if target == o.Status {
		return false, nil
	}
	next, ok := nextStatus(o.Status)
	if !ok || target != next {
		return false, ErrInvalidTransition
	}
	if target == StatusDelivered && o.PaymentStatus == PaymentPending {
		return false, ErrPaymentIncomplete
	}
	o.Status = target
	if target == StatusApproved {
		o.ApprovedAt = now.Unix()
	}
	return true, nil
}

// Cancel cancels a non-terminal order. Cancelling from PROCESSING retains a
// 20% non-refundable share of the total: amount_paid is set to exactly that
// share regardless of what had actually been paid. Cancelling from PENDING
// or APPROVED reverses the ledger in full. Payment status always resets to
// PENDING afterwards.
func (o *Order) Cancel() (float64, error) {
	if o.Status == StatusDelivered || o.Status == StatusCancelled {
		return 0, ErrIllegalCancellation
	}

	var penalty float64
	if o.Status == StatusProcessing {
		penalty = roundCents(o.TotalAmount * cancellationPenaltyRate)
	}
	o.AmountPaid = penalty
	o.Status = StatusCancelled
	o.PaymentStatus = PaymentPending
	return penalty, nil
}

// ForceCancel is the sweeper's expiry path: the payment window elapsed with
// nothing paid, so the order is cancelled outright with no penalty and
// amount_paid left untouched.
func (o *Order) ForceCancel() {
	o.Status = StatusCancelled
}

// RecordPayment sets the new cumulative amount paid. The input is the full
// cumulative total, not a delta; callers must add the increment to the prior
// value before calling. Payment status is rederived from the stored amounts
// on every call.
func (o *Order) RecordPayment(cumulative float64) error {
	if cumulative < 0 || centsOf(cumulative) > centsOf(o.TotalAmount) {
		return ErrOverPayment
	}
	o.AmountPaid = roundCents(cumulative)
	o.PaymentStatus = derivePaymentStatus(o.AmountPaid, o.TotalAmount)
	return nil
}

func derivePaymentStatus(paid, total float64) PaymentStatus {
	switch {
	case centsOf(paid) <= 0:
		return PaymentPending
	case centsOf(paid) == centsOf(total) && total > 0:
		return PaymentPaid
	default:
		return PaymentPartial
	}
}

// Money is compared and rounded in cents to sidestep float drift.
func centsOf(x float64) int64 {
	return int64(math.Round(x * 100))
}

func roundCents(x float64) float64 {
	return math.Round(x*100) / 100
}
