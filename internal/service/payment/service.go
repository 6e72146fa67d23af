package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"headless-storefront/internal/domain"
	"headless-storefront/internal/payment"
)

type couponValidator interface {
	ValidateCoupon(ctx context.Context, code string) (*domain.Coupon, error)
}

type intentLedger interface {
	RecordIntent(ctx context.Context, a domain.CheckoutAttempt) (*domain.CheckoutAttempt, error)
}

type Config struct {
	Currency  string
	MinAmount int64
}

type Service struct {
	processor payment.Processor
	coupons   couponValidator
	ledger    intentLedger
	cfg       Config
	now       func() time.Time
	logger    zerolog.Logger
}

func New(processor payment.Processor, coupons couponValidator, ledger intentLedger, cfg Config, logger zerolog.Logger) *Service {
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	if cfg.MinAmount <= 0 {
		cfg.MinAmount = 50
	}
	return &Service{processor: processor, coupons: coupons, ledger: ledger, cfg: cfg, now: time.Now, logger: logger}
}

// EnsureIntentInput carries the amount in minor units.
type EnsureIntentInput struct {
	CartID     string
	Amount     int64
	CouponCode string
}

type IntentResult struct {
	ClientSecret    string `json:"clientSecret"`
	Amount          int64  `json:"amount"`
	PaymentIntentID string `json:"paymentIntentId"`
	Discount        int64  `json:"discount"`
	InvalidCoupon   bool   `json:"invalidCoupon"`
}

// EnsureIntent keeps exactly one open payment intent per cart, created on the
// first call and updated with the latest amount and coupon afterwards.
func (s *Service) EnsureIntent(ctx context.Context, in EnsureIntentInput) (*IntentResult, error) {
	cartID := strings.TrimSpace(in.CartID)
	if cartID == "" {
		return nil, fmt.Errorf("%w: cart id required", domain.ErrInvalidInput)
	}
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidInput)
	}
	if in.Amount < s.cfg.MinAmount {
		return nil, fmt.Errorf("%w: amount below minimum of %d", domain.ErrInvalidInput, s.cfg.MinAmount)
	}

	code := strings.TrimSpace(in.CouponCode)
	percent, invalidCoupon := s.couponPercent(ctx, code)
	if invalidCoupon {
		code = ""
	}
	discount := PercentOf(in.Amount, percent)
	amount := in.Amount - discount
	if amount < s.cfg.MinAmount {
		return nil, fmt.Errorf("%w: discounted amount below minimum of %d", domain.ErrInvalidInput, s.cfg.MinAmount)
	}

	params := payment.IntentParams{
		Amount:   amount,
		Currency: s.cfg.Currency,
		Metadata: map[string]string{
			domain.MetaCartID:          cartID,
			domain.MetaDiscountCode:    code,
			domain.MetaDiscountPercent: "",
			domain.MetaDisplayAmount:   domain.AmountFromMinor(amount).Decimal().StringFixed(2),
		},
	}
	if !percent.IsZero() {
		params.Metadata[domain.MetaDiscountPercent] = percent.String()
	}

	intent, err := s.upsertIntent(ctx, cartID, params)
	if err != nil {
		return nil, err
	}

	if _, err := s.ledger.RecordIntent(ctx, domain.CheckoutAttempt{
		PaymentIntentID: intent.ID,
		CartID:          cartID,
		AmountMinor:     intent.Amount,
		Currency:        s.cfg.Currency,
		DiscountCode:    code,
	}); err != nil {
		s.logger.Warn().Err(err).Str("payment_intent_id", intent.ID).Msg("payment service: ledger record failed")
	}

	s.logger.Info().
		Str("cart_id", cartID).
		Str("payment_intent_id", intent.ID).
		Int64("amount", intent.Amount).
		Int64("discount", discount).
		Msg("payment service: intent ready")
	return &IntentResult{
		ClientSecret:    intent.ClientSecret,
		Amount:          intent.Amount,
		PaymentIntentID: intent.ID,
		Discount:        discount,
		InvalidCoupon:   invalidCoupon,
	}, nil
}

func (s *Service) upsertIntent(ctx context.Context, cartID string, params payment.IntentParams) (*domain.PaymentIntent, error) {
	existing, err := s.processor.FindByCart(ctx, cartID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return s.createIntent(ctx, cartID, params)
	case err != nil:
		return nil, err
	}
	if existing.Status == domain.PaymentIntentSucceeded {
		return nil, fmt.Errorf("%w: payment intent %s", domain.ErrPaymentCompleted, existing.ID)
	}
	return s.processor.Update(ctx, existing.ID, params)
}

// createIntent creates under a key derived from the request, so a retried
// request replays the same intent. A replay that is no longer usable gets a
// fresh key.
func (s *Service) createIntent(ctx context.Context, cartID string, params payment.IntentParams) (*domain.PaymentIntent, error) {
	key := idempotencyKey(cartID, params)
	params.IdempotencyKey = key
	pi, err := s.processor.Create(ctx, params)
	if errors.Is(err, payment.ErrIdempotencyConflict) {
		s.logger.Warn().Str("cart_id", cartID).Str("idempotency_key", key).Msg("payment service: idempotency conflict, using fresh key")
		return s.createFresh(ctx, key, params)
	}
	if err != nil {
		return nil, err
	}
	switch {
	case pi.Status == domain.PaymentIntentSucceeded:
		return nil, fmt.Errorf("%w: payment intent %s", domain.ErrPaymentCompleted, pi.ID)
	case pi.Status == domain.PaymentIntentCanceled:
		s.logger.Info().Str("cart_id", cartID).Str("payment_intent_id", pi.ID).Msg("payment service: replayed intent canceled, creating another")
		return s.createFresh(ctx, key, params)
	case pi.Amount != params.Amount:
		return s.processor.Update(ctx, pi.ID, params)
	}
	return pi, nil
}

func (s *Service) createFresh(ctx context.Context, key string, params payment.IntentParams) (*domain.PaymentIntent, error) {
	params.IdempotencyKey = key + "-" + uuid.NewString()
	return s.processor.Create(ctx, params)
}

func idempotencyKey(cartID string, p payment.IntentParams) string {
	return fmt.Sprintf("cart-%s-%d-%s-%s-%s", cartID, p.Amount, p.Currency,
		p.Metadata[domain.MetaDiscountCode], p.Metadata[domain.MetaDiscountPercent])
}

// couponPercent resolves code to a percentage. Lookup failures never block
// checkout: they report invalid and the full price applies.
func (s *Service) couponPercent(ctx context.Context, code string) (decimal.Decimal, bool) {
	if code == "" {
		return decimal.Zero, false
	}
	coupon, err := s.coupons.ValidateCoupon(ctx, code)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.Warn().Err(err).Str("coupon", code).Msg("payment service: coupon lookup failed")
		}
		return decimal.Zero, true
	}
	pct := coupon.Amount.Decimal()
	if coupon.DiscountType != domain.CouponPercent || !pct.IsPositive() || pct.GreaterThan(decimal.NewFromInt(100)) {
		s.logger.Info().Str("coupon", code).Str("type", coupon.DiscountType).Msg("payment service: unsupported coupon")
		return decimal.Zero, true
	}
	if !coupon.Usable(s.now()) {
		s.logger.Info().Str("coupon", code).Time("expires", coupon.ExpiresAt()).Msg("payment service: coupon expired or used up")
		return decimal.Zero, true
	}
	return pct, false
}

// PercentOf returns round(minor × pct / 100), rounding half away from zero.
func PercentOf(minor int64, pct decimal.Decimal) int64 {
	if pct.IsZero() {
		return 0
	}
	return decimal.NewFromInt(minor).Mul(pct).Div(decimal.NewFromInt(100)).Round(0).IntPart()
}
