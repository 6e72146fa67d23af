package checkout

import (
	"context"
	"time"

	"headless-storefront/internal/domain"
)

// Repository is the checkout attempt ledger keyed by payment intent id.
type Repository interface {
	// RecordIntent inserts the attempt at intent-created, or refreshes amount
	// and discount of an attempt still at intent-created.
	RecordIntent(ctx context.Context, a domain.CheckoutAttempt) (*domain.CheckoutAttempt, error)
	// Advance moves an attempt to next. orderID is stored when non-empty.
	Advance(ctx context.Context, paymentIntentID string, next domain.CheckoutState, orderID string) (*domain.CheckoutAttempt, error)
	Get(ctx context.Context, paymentIntentID string) (*domain.CheckoutAttempt, error)
	ListStuck(ctx context.Context, state domain.CheckoutState, olderThan time.Time) ([]domain.CheckoutAttempt, error)
	Ping(ctx context.Context) error
}
