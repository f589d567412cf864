package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Sentinel errors for order creation and lookup.
var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrMissingAddress    = errors.New("delivery address is required")
	ErrInvalidPhone      = errors.New("invalid phone number format")
	ErrOrderNotFound     = errors.New("order not found")
	ErrNumberConflict    = errors.New("order number already exists")
	ErrRequestInFlight   = errors.New("a submission with this idempotency key is already in progress")
	ErrInvalidTransition = errors.New("illegal status transition")
)

// InvalidAddressError indicates the delivery address is outside the
// serviceable area. It carries the validator's message and computed distance.
type InvalidAddressError struct {
	Message  string
	Distance float64
}

func (e *InvalidAddressError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("address not deliverable (%.1f km away)", e.Distance)
}
