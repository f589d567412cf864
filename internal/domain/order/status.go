package order

import "github.com/go-faster/errors"

// Status enumerates the order lifecycle states.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusPreparing Status = "preparing"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// DeliveryMode enumerates how an order reaches the customer.
type DeliveryMode string

const (
	ModeDelivery DeliveryMode = "delivery"
	ModePickup   DeliveryMode = "pickup"
)

// PaymentMode enumerates the accepted payment methods.
type PaymentMode string

const (
	PaymentCard    PaymentMode = "card"
	PaymentCash    PaymentMode = "cash"
	PaymentVoucher PaymentMode = "voucher"
)

// transitions maps each status to the set of statuses it may move to.
// Delivered and cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusDelivered},
	StatusDelivered: {},
	StatusCancelled: {},
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ParseStatus converts a raw string to a Status.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusPreparing, StatusDelivered, StatusCancelled:
		return Status(s), nil
	}
	return "", errors.Errorf("unknown order status: %q", s)
}

// ParseDeliveryMode converts a raw string to a DeliveryMode.
func ParseDeliveryMode(s string) (DeliveryMode, error) {
	switch DeliveryMode(s) {
	case ModeDelivery, ModePickup:
		return DeliveryMode(s), nil
	}
	return "", errors.Errorf("unknown delivery mode: %q", s)
}

// ParsePaymentMode converts a raw string to a PaymentMode.
func ParsePaymentMode(s string) (PaymentMode, error) {
	switch PaymentMode(s) {
	case PaymentCard, PaymentCash, PaymentVoucher:
		return PaymentMode(s), nil
	}
	return "", errors.Errorf("unknown payment mode: %q", s)
}
