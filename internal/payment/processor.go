// Package payment talks to the payment processor that owns payment intents.
package payment

import (
	"context"
	"errors"

	"headless-storefront/internal/domain"
)

// ErrIdempotencyConflict reports an idempotency key that was first used with
// different parameters.
var ErrIdempotencyConflict = errors.New("idempotency key reused with different parameters")

// IntentParams describes the amount and metadata of an intent to create or update.
type IntentParams struct {
	Amount         int64
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string
}

// Processor is the subset of a payment processor checkout depends on.
// FindByCart returns domain.ErrNotFound when no intent carries the cart id.
type Processor interface {
	FindByCart(ctx context.Context, cartID string) (*domain.PaymentIntent, error)
	Create(ctx context.Context, p IntentParams) (*domain.PaymentIntent, error)
	Update(ctx context.Context, id string, p IntentParams) (*domain.PaymentIntent, error)
	Get(ctx context.Context, id string) (*domain.PaymentIntent, error)
}
