package order

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"headless-storefront/internal/commerce"
	"headless-storefront/internal/domain"
	paymentsvc "headless-storefront/internal/service/payment"
)

// AmountTolerance is the largest accepted gap, in minor units, between the
// recomputed order total and the captured payment.
const AmountTolerance = 1

type intentGetter interface {
	Get(ctx context.Context, id string) (*domain.PaymentIntent, error)
}

type orderCreator interface {
	CreateOrder(ctx context.Context, in commerce.OrderRequest) (*commerce.Order, error)
}

type attemptLedger interface {
	RecordIntent(ctx context.Context, a domain.CheckoutAttempt) (*domain.CheckoutAttempt, error)
	Advance(ctx context.Context, paymentIntentID string, next domain.CheckoutState, orderID string) (*domain.CheckoutAttempt, error)
	Get(ctx context.Context, paymentIntentID string) (*domain.CheckoutAttempt, error)
}

type cartDeleter interface {
	Delete(ctx context.Context, id string) error
}

type Service struct {
	intents intentGetter
	orders  orderCreator
	ledger  attemptLedger
	carts   cartDeleter
	logger  zerolog.Logger
}

func New(intents intentGetter, orders orderCreator, ledger attemptLedger, carts cartDeleter, logger zerolog.Logger) *Service {
	return &Service{intents: intents, orders: orders, ledger: ledger, carts: carts, logger: logger}
}

// Submit turns a paid intent into a backend order. A payment intent yields at
// most one order: repeated calls return the order id already recorded.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*OrderResult, error) {
	lines, billing, err := validate(in)
	if err != nil {
		return nil, err
	}
	log := s.logger.With().Str("cart_id", in.CartID).Str("payment_intent_id", in.PaymentIntentID).Logger()

	attempt, err := s.ledger.Get(ctx, in.PaymentIntentID)
	switch {
	case err == nil:
		if attempt.CartID != in.CartID {
			return nil, fmt.Errorf("%w: payment intent belongs to another cart", domain.ErrSessionMismatch)
		}
		if attempt.State == domain.CheckoutOrderSubmitted && attempt.OrderID != "" {
			log.Info().Str("order_id", attempt.OrderID).Msg("order service: already submitted")
			return &OrderResult{OrderID: attempt.OrderID}, nil
		}
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	intent, err := s.intents.Get(ctx, in.PaymentIntentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown payment intent", domain.ErrPaymentNotConfirmed)
		}
		return nil, err
	}
	if intent.Status != domain.PaymentIntentSucceeded {
		return nil, fmt.Errorf("%w: payment intent is %s", domain.ErrPaymentNotConfirmed, intent.Status)
	}
	if intent.Metadata[domain.MetaCartID] != in.CartID {
		return nil, fmt.Errorf("%w: payment intent belongs to another cart", domain.ErrSessionMismatch)
	}

	if err := s.confirm(ctx, intent); err != nil {
		return nil, err
	}

	expected := expectedAmount(lines, intent.Metadata[domain.MetaDiscountPercent])
	if diff := expected - intent.Amount; diff > AmountTolerance || diff < -AmountTolerance {
		log.Warn().Int64("expected", expected).Int64("charged", intent.Amount).Msg("order service: amount mismatch")
		return nil, fmt.Errorf("%w: items total %d, payment %d", domain.ErrAmountMismatch, expected, intent.Amount)
	}

	order, err := s.orders.CreateOrder(ctx, buildOrder(in, lines, billing, intent))
	if err != nil {
		log.Error().Err(err).Msg("order service: backend rejected order")
		return nil, err
	}
	orderID := strconv.FormatInt(order.ID, 10)
	log = log.With().Str("order_id", orderID).Logger()

	if _, err := s.ledger.Advance(ctx, intent.ID, domain.CheckoutOrderSubmitted, orderID); err != nil {
		log.Error().Err(err).Msg("order service: ledger not updated after order")
	}
	if err := s.carts.Delete(ctx, in.CartID); err != nil {
		log.Warn().Err(err).Msg("order service: cart not cleared")
	}
	log.Info().Msg("order service: submitted")
	return &OrderResult{OrderID: orderID}, nil
}

// confirm moves the attempt to payment-confirmed, recording it first when the
// intent predates the ledger entry.
func (s *Service) confirm(ctx context.Context, intent *domain.PaymentIntent) error {
	_, err := s.ledger.Advance(ctx, intent.ID, domain.CheckoutPaymentConfirmed, "")
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if _, err := s.ledger.RecordIntent(ctx, domain.CheckoutAttempt{
		PaymentIntentID: intent.ID,
		CartID:          intent.Metadata[domain.MetaCartID],
		AmountMinor:     intent.Amount,
		Currency:        intent.Currency,
		DiscountCode:    intent.Metadata[domain.MetaDiscountCode],
	}); err != nil {
		return err
	}
	_, err = s.ledger.Advance(ctx, intent.ID, domain.CheckoutPaymentConfirmed, "")
	return err
}

// expectedAmount recomputes the charge in minor units from the ordered lines
// and the discount percent recorded on the intent.
func expectedAmount(lines []line, discountPercent string) int64 {
	var subtotal domain.Amount
	for _, l := range lines {
		subtotal = subtotal.Add(l.price.MulInt(l.quantity))
	}
	if subtotal.Decimal().Shift(2).GreaterThan(decimal.NewFromInt(math.MaxInt64)) {
		return math.MaxInt64
	}
	minor := subtotal.MinorUnits()
	pct, err := decimal.NewFromString(discountPercent)
	if err != nil || !pct.IsPositive() {
		return minor
	}
	return minor - paymentsvc.PercentOf(minor, pct)
}

func buildOrder(in SubmitInput, lines []line, billing domain.Address, intent *domain.PaymentIntent) commerce.OrderRequest {
	req := commerce.OrderRequest{
		PaymentMethod:      "stripe",
		PaymentMethodTitle: "Credit Card (Stripe)",
		SetPaid:            true,
		TransactionID:      intent.ID,
		Billing:            billing,
		Shipping:           in.Shipping,
		LineItems:          make([]commerce.OrderLine, 0, len(lines)),
		MetaData: []commerce.MetaEntry{
			{Key: "_stripe_intent_id", Value: intent.ID},
			{Key: "_cart_id", Value: in.CartID},
		},
	}
	for _, l := range lines {
		ol := commerce.OrderLine{ProductID: l.productID, VariationID: l.variationID, Quantity: l.quantity}
		names := make([]string, 0, len(l.variation))
		for name := range l.variation {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			ol.MetaData = append(ol.MetaData, commerce.MetaEntry{Key: name, Value: l.variation[name]})
		}
		req.LineItems = append(req.LineItems, ol)
	}
	if code := intent.Metadata[domain.MetaDiscountCode]; code != "" {
		req.CouponLines = []commerce.CouponLine{{Code: code}}
	}
	return req
}
