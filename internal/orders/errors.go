package orders

import "errors"

var (
	// ErrInvalidTransition is returned when the requested status is not the
	// legal next step from the order's current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrPaymentIncomplete is returned when delivery is requested while the
	// payment status is still PENDING.
	ErrPaymentIncomplete = errors.New("payment incomplete")

	// ErrIllegalCancellation is returned when cancelling an order that is
	// already DELIVERED or CANCELLED.
	ErrIllegalCancellation = errors.New("order can no longer be cancelled")

	// ErrOverPayment is returned when the cumulative paid amount would exceed
	// the order total.
	ErrOverPayment = errors.New("payment exceeds order total")

	// ErrNotFound is returned when the referenced order does not exist.
	ErrNotFound = errors.New("order not found")

	// ErrVersionConflict signals that a conditional save lost a race with a
	// concurrent update; callers re-read and retry.
	ErrVersionConflict = errors.New("order was modified concurrently")

	// ErrDuplicateRequest signals that an idempotency key was already used.
	ErrDuplicateRequest = errors.New("duplicate request")
)
