package orders

import "time"

// Status is the order lifecycle state. Orders only move forward through
// PENDING -> APPROVED -> PROCESSING -> DELIVERED, or sideways into CANCELLED
// from any non-terminal state. DELIVERED and CANCELLED are terminal.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusApproved   Status = "APPROVED"
	StatusProcessing Status = "PROCESSING"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

// PaymentStatus is derived from amount_paid vs total_amount; it is never set
// independently except for the reset to PENDING on cancellation.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPartial PaymentStatus = "PARTIAL"
	PaymentPaid    PaymentStatus = "PAID"
)

// ParseStatus validates a client-supplied status string.
func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusProcessing, StatusDelivered, StatusCancelled:
		return Status(s), true
	}
	return "", false
}

// ParsePaymentStatus validates a client-supplied payment status string.
func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch PaymentStatus(s) {
	case PaymentPending, PaymentPartial, PaymentPaid:
		return PaymentStatus(s), true
	}
	return "", false
}

// LineItem is one purchased configuration: either a catalogue product or a
// custom build with explicit dimensions and wood type.
type LineItem struct {
	ProductID string  `dynamodbav:"product_id,omitempty" json:"product_id,omitempty"`
	Name      string  `dynamodbav:"name" json:"name"`
	WoodType  string  `dynamodbav:"wood_type,omitempty" json:"wood_type,omitempty"`
	WidthCM   float64 `dynamodbav:"width_cm,omitempty" json:"width_cm,omitempty"`
	HeightCM  float64 `dynamodbav:"height_cm,omitempty" json:"height_cm,omitempty"`
	DepthCM   float64 `dynamodbav:"depth_cm,omitempty" json:"depth_cm,omitempty"`
	Quantity  int     `dynamodbav:"quantity" json:"quantity"`
	UnitPrice float64 `dynamodbav:"unit_price" json:"unit_price"`
}

// Order is the item stored in the orders DynamoDB table. All mutations go
// through the lifecycle operations in this package and are persisted with a
// conditional write on Version, so concurrent updates on the same order
// cannot interleave into an inconsistent status/amount combination.
type Order struct {
	OrderID       string        `dynamodbav:"order_id" json:"order_id"` // PK
	CustomerID    string        `dynamodbav:"customer_id" json:"customer_id"`
	CustomerEmail string        `dynamodbav:"customer_email" json:"customer_email"`
	LineItems     []LineItem    `dynamodbav:"line_items" json:"line_items"`
	TotalAmount   float64       `dynamodbav:"total_amount" json:"total_amount"`
	AmountPaid    float64       `dynamodbav:"amount_paid" json:"amount_paid"`
	Status        Status        `dynamodbav:"status" json:"status"`
	PaymentStatus PaymentStatus `dynamodbav:"payment_status" json:"payment_status"`
	ApprovedAt    int64         `dynamodbav:"approved_at" json:"approved_at,omitempty"` // unix seconds, 0 until approved
	CreatedAt     time.Time     `dynamodbav:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `dynamodbav:"updated_at" json:"updated_at"`
	Version       int64         `dynamodbav:"version" json:"-"`
}

// ApprovedAtTime returns the approval timestamp, or the zero time if the
// order was never approved.
func (o Order) ApprovedAtTime() time.Time {
	if o.ApprovedAt == 0 {
		return time.Time{}
	}
	return time.Unix(o.ApprovedAt, 0).UTC()
}

// Page is one page of a filtered order listing. NextCursor is an opaque
// continuation token; empty means the listing is exhausted.
type Page struct {
	Orders     []Order `json:"orders"`
	NextCursor string  `json:"next_cursor,omitempty"`
}

// ListFilter narrows a listing. Nil fields match everything.
type ListFilter struct {
	Status        *Status
	PaymentStatus *PaymentStatus
}
