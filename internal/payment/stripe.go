package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"

	"headless-storefront/internal/domain"
)

// Stripe implements Processor with the Stripe PaymentIntents API.
type Stripe struct {
	client *paymentintent.Client
	logger zerolog.Logger
}

func NewStripe(secretKey string, logger zerolog.Logger) *Stripe {
	return &Stripe{
		client: &paymentintent.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
		logger: logger,
	}
}

func (s *Stripe) FindByCart(ctx context.Context, cartID string) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentSearchParams{}
	params.Context = ctx
	params.Query = fmt.Sprintf("metadata['%s']:'%s'", domain.MetaCartID, escapeSearch(cartID))

	var succeeded *stripe.PaymentIntent
	iter := s.client.Search(params)
	for iter.Next() {
		pi := iter.PaymentIntent()
		switch pi.Status {
		case stripe.PaymentIntentStatusCanceled:
			continue
		case stripe.PaymentIntentStatusSucceeded:
			if succeeded == nil {
				succeeded = pi
			}
		default:
			return toDomain(pi), nil
		}
	}
	if err := iter.Err(); err != nil {
		s.logger.Error().Err(err).Str("cart_id", cartID).Msg("stripe: search intents")
		return nil, wrapStripeErr("search payment intents", err)
	}
	if succeeded == nil {
		return nil, domain.ErrNotFound
	}
	return toDomain(succeeded), nil
}

func (s *Stripe) Create(ctx context.Context, p IntentParams) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(p.Amount),
		Currency: stripe.String(p.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if p.IdempotencyKey != "" {
		params.SetIdempotencyKey(p.IdempotencyKey)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	pi, err := s.client.New(params)
	if err != nil {
		s.logger.Error().Err(err).Int64("amount", p.Amount).Msg("stripe: create intent")
		return nil, wrapStripeErr("create payment intent", err)
	}
	s.logger.Info().Str("payment_intent_id", pi.ID).Int64("amount", pi.Amount).Msg("stripe: created intent")
	return toDomain(pi), nil
}

func (s *Stripe) Update(ctx context.Context, id string, p IntentParams) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{Amount: stripe.Int64(p.Amount)}
	params.Context = ctx
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}
	pi, err := s.client.Update(id, params)
	if err != nil {
		s.logger.Error().Err(err).Str("payment_intent_id", id).Msg("stripe: update intent")
		return nil, wrapStripeErr("update payment intent", err)
	}
	return toDomain(pi), nil
}

func (s *Stripe) Get(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := s.client.Get(id, params)
	if err != nil {
		return nil, wrapStripeErr("get payment intent", err)
	}
	return toDomain(pi), nil
}

func toDomain(pi *stripe.PaymentIntent) *domain.PaymentIntent {
	meta := make(map[string]string, len(pi.Metadata))
	for k, v := range pi.Metadata {
		meta[k] = v
	}
	return &domain.PaymentIntent{
		ID:           pi.ID,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		ClientSecret: pi.ClientSecret,
		Status:       domain.PaymentIntentStatus(pi.Status),
		Metadata:     meta,
	}
}

func wrapStripeErr(op string, err error) error {
	var serr *stripe.Error
	if errors.As(err, &serr) {
		switch {
		case serr.HTTPStatusCode == http.StatusNotFound:
			return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		case serr.Type == stripe.ErrorTypeIdempotency:
			return fmt.Errorf("%s: %w", op, ErrIdempotencyConflict)
		case serr.Type == stripe.ErrorTypeInvalidRequest:
			return fmt.Errorf("%w: %s: %s", domain.ErrInvalidInput, op, serr.Msg)
		}
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrUpstream, op, err)
}

func escapeSearch(v string) string {
	return strings.ReplaceAll(v, "'", `\'`)
}
