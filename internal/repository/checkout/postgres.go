package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"headless-storefront/internal/domain"
)

const attemptColumns = `payment_intent_id, cart_id, amount_minor, currency, discount_code, state, order_id, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger zerolog.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) RecordIntent(ctx context.Context, a domain.CheckoutAttempt) (*domain.CheckoutAttempt, error) {
	if a.PaymentIntentID == "" || a.CartID == "" {
		return nil, fmt.Errorf("%w: payment intent id and cart id required", domain.ErrInvalidInput)
	}
	const q = `
INSERT INTO checkout_attempts (payment_intent_id, cart_id, amount_minor, currency, discount_code, state)
VALUES ($1, $2, $3, $4, $5, 'intent-created')
ON CONFLICT (payment_intent_id) DO UPDATE
SET amount_minor = EXCLUDED.amount_minor,
    currency = EXCLUDED.currency,
    discount_code = EXCLUDED.discount_code,
    updated_at = now()
WHERE checkout_attempts.state IN ('cart-populated', 'intent-created')
RETURNING ` + attemptColumns
	got, err := r.scanAttempt(r.pool.QueryRow(ctx, q, a.PaymentIntentID, a.CartID, a.AmountMinor, a.Currency, a.DiscountCode))
	if errors.Is(err, domain.ErrNotFound) {
		// conflict row exists but has moved past intent-created
		r.logger.Warn().Str("payment_intent_id", a.PaymentIntentID).Msg("checkout repo: record intent on advanced attempt")
		return nil, fmt.Errorf("%w: attempt %s already past intent-created", domain.ErrInvalidTransition, a.PaymentIntentID)
	}
	return got, err
}

func (r *postgresRepo) Advance(ctx context.Context, paymentIntentID string, next domain.CheckoutState, orderID string) (*domain.CheckoutAttempt, error) {
	pred, ok := next.Predecessor()
	if !ok {
		return nil, fmt.Errorf("%w: cannot advance to %s", domain.ErrInvalidTransition, next)
	}
	const q = `
UPDATE checkout_attempts
SET state = $2,
    order_id = CASE WHEN $4 = '' THEN order_id ELSE $4 END,
    updated_at = now()
WHERE payment_intent_id = $1 AND state IN ($2, $3)
RETURNING ` + attemptColumns
	got, err := r.scanAttempt(r.pool.QueryRow(ctx, q, paymentIntentID, string(next), string(pred), orderID))
	if !errors.Is(err, domain.ErrNotFound) {
		return got, err
	}
	current, getErr := r.Get(ctx, paymentIntentID)
	if getErr != nil {
		return nil, getErr
	}
	r.logger.Warn().
		Str("payment_intent_id", paymentIntentID).
		Str("from", string(current.State)).
		Str("to", string(next)).
		Msg("checkout repo: refused transition")
	return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current.State, next)
}

func (r *postgresRepo) Get(ctx context.Context, paymentIntentID string) (*domain.CheckoutAttempt, error) {
	const q = `SELECT ` + attemptColumns + ` FROM checkout_attempts WHERE payment_intent_id = $1`
	return r.scanAttempt(r.pool.QueryRow(ctx, q, paymentIntentID))
}

func (r *postgresRepo) ListStuck(ctx context.Context, state domain.CheckoutState, olderThan time.Time) ([]domain.CheckoutAttempt, error) {
	const q = `
SELECT ` + attemptColumns + `
FROM checkout_attempts
WHERE state = $1 AND updated_at < $2
ORDER BY updated_at ASC`
	rows, err := r.pool.Query(ctx, q, string(state), olderThan)
	if err != nil {
		r.logger.Error().Err(err).Msg("checkout repo: list stuck")
		return nil, err
	}
	defer rows.Close()

	var out []domain.CheckoutAttempt
	for rows.Next() {
		a, err := r.scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *postgresRepo) scanAttempt(row pgx.Row) (*domain.CheckoutAttempt, error) {
	var a domain.CheckoutAttempt
	var state string
	err := row.Scan(
		&a.PaymentIntentID,
		&a.CartID,
		&a.AmountMinor,
		&a.Currency,
		&a.DiscountCode,
		&state,
		&a.OrderID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error().Err(err).Msg("checkout repo: scan")
		return nil, err
	}
	a.State = domain.CheckoutState(state)
	return &a, nil
}
