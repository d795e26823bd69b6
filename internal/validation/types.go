package validation

// LineItem is a single purchased configuration: a catalogue product, or a
// custom build with dimensions and wood type.
type LineItem struct {
	ProductID string  `json:"product_id,omitempty"`
	Name      string  `json:"name" validate:"required"`
	WoodType  string  `json:"wood_type,omitempty"`
	WidthCM   float64 `json:"width_cm,omitempty" validate:"omitempty,gt=0"`
	HeightCM  float64 `json:"height_cm,omitempty" validate:"omitempty,gt=0"`
	DepthCM   float64 `json:"depth_cm,omitempty" validate:"omitempty,gt=0"`
	Quantity  int     `json:"quantity" validate:"required,min=1"`
	UnitPrice float64 `json:"unit_price" validate:"required,gt=0"`
}

// PlaceOrderRequest is the payload for POST /orders
type PlaceOrderRequest struct {
	CustomerID    string     `json:"customer_id" validate:"required"`
	CustomerEmail string     `json:"customer_email" validate:"required,email"`
	Items         []LineItem `json:"items" validate:"required,min=1,dive"` // at least one item
	Amount        float64    `json:"amount" validate:"required,gt=0"`      // contractual total, must match items
}

// RecordPaymentRequest is the payload for PUT /orders/:id/payment.
// AmountPaid is the new cumulative total paid, not the increment.
type RecordPaymentRequest struct {
	AmountPaid float64 `json:"amount_paid" validate:"gte=0"`
}

// AdvanceStatusRequest is the payload for POST /orders/:id/advance.
type AdvanceStatusRequest struct {
	Status string `json:"status" validate:"required"`
}
