package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/bistro-orders/internal/domain/cart"
	"github.com/xenking/bistro-orders/internal/domain/coupon"
	"github.com/xenking/bistro-orders/internal/domain/delivery"
	"github.com/xenking/bistro-orders/internal/domain/settings"
	"github.com/xenking/bistro-orders/internal/pricing"
)

// numberRetries bounds regeneration attempts when a generated order number
// collides with an existing one.
const numberRetries = 3

// IdempotencyGuard deduplicates retried checkout submissions within a bounded
// time window.
type IdempotencyGuard interface {
	// Acquire claims the key. When the key was already completed it returns
	// the original order ID. acquired is false for any previously seen key.
	Acquire(ctx context.Context, key string) (orderID string, acquired bool, err error)
	// Complete records the order created under the key.
	Complete(ctx context.Context, key, orderID string) error
	// Release frees the key after a failed attempt so the caller may retry.
	Release(ctx context.Context, key string) error
}

// CreateRequest is the checkout input.
type CreateRequest struct {
	SessionID      string
	IdempotencyKey string

	Mode         DeliveryMode
	Address      string
	Zip          string
	Instructions string

	Payment   PaymentMode
	FirstName string
	LastName  string
	Phone     string
	Email     string

	// CouponID and CouponCode are alternative ways to reference a coupon;
	// the ID wins when both are set.
	CouponID       string
	CouponCode     string
	ManualDiscount decimal.Decimal
}

// Service converts a cart snapshot into a permanently recorded order. It
// composes the phone and address validators, the coupon rules, and the
// pricing computation, and persists the result atomically.
type Service struct {
	carts     cart.Provider
	addresses delivery.AddressValidator
	coupons   coupon.Repository
	orders    Repository
	settings  settings.Provider
	guard     IdempotencyGuard
	numbers   *NumberGenerator
	now       func() time.Time
}

// NewService creates an order Service with the required collaborators.
// guard may be nil, in which case idempotency keys are ignored.
func NewService(
	carts cart.Provider,
	addresses delivery.AddressValidator,
	coupons coupon.Repository,
	orders Repository,
	sp settings.Provider,
	guard IdempotencyGuard,
) *Service {
	return &Service{
		carts:     carts,
		addresses: addresses,
		coupons:   coupons,
		orders:    orders,
		settings:  sp,
		guard:     guard,
		numbers:   NewNumberGenerator(),
		now:       time.Now,
	}
}

// WithClock overrides the service clock and order-number generator, for
// deterministic tests.
func (s *Service) WithClock(now func() time.Time, intn func(n int) int) *Service {
	s.now = now
	s.numbers = NewNumberGeneratorWith(now, intn)
	return s
}

// Create runs the checkout pipeline: cart snapshot, delivery and contact
// validation, line-item construction, coupon eligibility, totals, atomic
// persistence, cart clearing. Any step failing aborts with no persisted side
// effects. A previously seen idempotency key returns the original order.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	if s.guard != nil && req.IdempotencyKey != "" {
		existingID, acquired, err := s.guard.Acquire(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, errors.Wrap(err, "idempotency acquire")
		}
		if !acquired {
			if existingID == "" {
				return nil, ErrRequestInFlight
			}
			return s.orders.Find(ctx, existingID)
		}
	}

	o, err := s.create(ctx, req)
	if s.guard != nil && req.IdempotencyKey != "" {
		if err != nil {
			// Free the key so the client may retry the submission.
			_ = s.guard.Release(ctx, req.IdempotencyKey)
		} else if cerr := s.guard.Complete(ctx, req.IdempotencyKey, o.ID); cerr != nil {
			return nil, errors.Wrap(cerr, "idempotency complete")
		}
	}
	return o, err
}

func (s *Service) create(ctx context.Context, req CreateRequest) (*Order, error) {
	snapshot, err := s.carts.Get(ctx, req.SessionID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	if len(snapshot.Items) == 0 {
		return nil, ErrEmptyCart
	}

	fee, address, zip, instructions, err := s.resolveDelivery(ctx, req)
	if err != nil {
		return nil, err
	}

	phone, err := NormalizePhone(req.Phone)
	if err != nil {
		return nil, err
	}

	items := make([]Item, len(snapshot.Items))
	for i, line := range snapshot.Items {
		items[i] = Item{
			ProductID: line.ProductID,
			Name:      line.Name,
			UnitPrice: line.Price,
			Quantity:  line.Quantity,
		}
	}

	o := &Order{
		ID:           uuid.New().String(),
		Number:       s.numbers.Next(),
		Status:       StatusPending,
		Mode:         req.Mode,
		Address:      address,
		Zip:          zip,
		Instructions: instructions,
		DeliveryFee:  fee,
		Payment:      req.Payment,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        phone,
		Email:        req.Email,
		Items:        items,
		CreatedAt:    s.now(),
	}

	itemsGross := o.ItemsGross()

	cpn, err := s.resolveCoupon(ctx, req)
	if err != nil {
		return nil, err
	}
	if cpn != nil {
		if eErr := cpn.EligibilityError(itemsGross.Add(fee), s.now()); eErr != nil {
			return nil, eErr
		}
		o.CouponID = cpn.ID
	}

	rate, err := s.settings.VATRate(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get vat rate")
	}

	totals := pricing.ComputeTotals(pricing.Input{
		ItemsGross:     itemsGross,
		DeliveryFee:    fee,
		Coupon:         cpn,
		ManualDiscount: req.ManualDiscount,
	}, rate, s.now())
	o.Subtotal = totals.Subtotal
	o.Tax = totals.Tax
	o.Discount = totals.Discount
	o.Total = totals.Total

	if err := s.persist(ctx, o); err != nil {
		return nil, err
	}

	if err := s.carts.Clear(ctx, req.SessionID); err != nil {
		return nil, errors.Wrap(err, "clear cart")
	}

	return o, nil
}

// resolveCoupon loads the referenced coupon, by ID or by code.
func (s *Service) resolveCoupon(ctx context.Context, req CreateRequest) (*coupon.Coupon, error) {
	switch {
	case req.CouponID != "":
		return s.coupons.Find(ctx, req.CouponID)
	case req.CouponCode != "":
		return s.coupons.FindByCode(ctx, req.CouponCode)
	default:
		return nil, nil
	}
}

// resolveDelivery applies the delivery-mode branch: delivery requires a
// validated address and the configured fee, pickup forces a zero fee and
// discards any supplied address fields.
func (s *Service) resolveDelivery(ctx context.Context, req CreateRequest) (fee decimal.Decimal, address, zip, instructions string, err error) {
	if req.Mode == ModePickup {
		return decimal.Zero, "", "", "", nil
	}

	if req.Address == "" {
		return decimal.Zero, "", "", "", ErrMissingAddress
	}

	res, err := s.addresses.ValidateAddress(ctx, req.Address, req.Zip)
	if err != nil {
		return decimal.Zero, "", "", "", errors.Wrap(err, "validate address")
	}
	if !res.Valid {
		return decimal.Zero, "", "", "", &InvalidAddressError{
			Message:  res.Message,
			Distance: res.Distance,
		}
	}

	fee, err = s.settings.DeliveryFee(ctx)
	if err != nil {
		return decimal.Zero, "", "", "", errors.Wrap(err, "get delivery fee")
	}
	return fee, req.Address, req.Zip, req.Instructions, nil
}

// persist writes the order, retrying with a regenerated number when the
// random suffix collides with an existing order of the same day.
func (s *Service) persist(ctx context.Context, o *Order) error {
	for attempt := 0; ; attempt++ {
		err := s.orders.Create(ctx, o)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrNumberConflict) && attempt < numberRetries {
			o.Number = s.numbers.Next()
			continue
		}
		return err
	}
}

// Get returns the order with the given ID. Absence is a normal outcome:
// a missing order yields (nil, nil), not an error.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	o, err := s.orders.Find(ctx, id)
	if errors.Is(err, ErrOrderNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateStatus transitions the order to a new status. Only moves permitted by
// the transition graph are accepted.
func (s *Service) UpdateStatus(ctx context.Context, id string, next Status) (*Order, error) {
	o, err := s.orders.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	if !o.Status.CanTransitionTo(next) {
		return nil, errors.Wrapf(ErrInvalidTransition, "%s -> %s", o.Status, next)
	}

	if err := s.orders.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}
	o.Status = next
	return o, nil
}
