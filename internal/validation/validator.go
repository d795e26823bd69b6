package validation

import (
	"fmt"
	"math"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// register struct-level validation for PlaceOrderRequest to ensure
	// the provided Amount matches the sum of (unit_price * quantity) of items.
	v.RegisterStructValidation(placeOrderStructValidation, PlaceOrderRequest{})

	return v
}

// placeOrderStructValidation verifies the aggregated total of items equals Amount (within cents)
func placeOrderStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(PlaceOrderRequest)

	var sum float64
	for _, it := range req.Items {
		sum += float64(it.Quantity) * it.UnitPrice
	}

	sumCents := int(math.Round(sum * 100))
	amountCents := int(math.Round(req.Amount * 100))
	if sumCents != amountCents {
		sl.ReportError(req.Amount, "amount", "Amount", "amount_match_items", fmt.Sprintf("items sum %.2f != amount %.2f", sum, req.Amount))
	}
}
