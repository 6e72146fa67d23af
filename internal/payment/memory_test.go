package payment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"

	"headless-storefront/internal/domain"
)

func TestMemory_CreateFindUpdate(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.FindByCart(ctx, "abc")
	require.ErrorIs(t, err, domain.ErrNotFound)

	pi, err := m.Create(ctx, IntentParams{
		Amount:         500,
		Currency:       "usd",
		Metadata:       map[string]string{domain.MetaCartID: "abc", domain.MetaDiscountCode: "SAVE10"},
		IdempotencyKey: "cart-abc",
	})
	require.NoError(t, err)
	require.NotEmpty(t, pi.ClientSecret)
	require.Equal(t, domain.PaymentIntentRequiresPayment, pi.Status)

	again, err := m.Create(ctx, IntentParams{Amount: 500, Currency: "usd", IdempotencyKey: "cart-abc"})
	require.NoError(t, err)
	require.Equal(t, pi.ID, again.ID)
	require.Equal(t, 1, m.Creates())

	found, err := m.FindByCart(ctx, "abc")
	require.NoError(t, err)
	require.Equal(t, pi.ID, found.ID)

	updated, err := m.Update(ctx, pi.ID, IntentParams{Amount: 450, Metadata: map[string]string{domain.MetaDiscountCode: ""}})
	require.NoError(t, err)
	require.Equal(t, int64(450), updated.Amount)
	_, has := updated.Metadata[domain.MetaDiscountCode]
	require.False(t, has)
	require.Equal(t, "abc", updated.Metadata[domain.MetaCartID])
}

func TestMemory_SucceededIsFinal(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	pi, err := m.Create(ctx, IntentParams{Amount: 500, Currency: "usd", Metadata: map[string]string{domain.MetaCartID: "abc"}})
	require.NoError(t, err)
	require.NoError(t, m.Confirm(pi.ID))

	found, err := m.FindByCart(ctx, "abc")
	require.NoError(t, err)
	require.Equal(t, domain.PaymentIntentSucceeded, found.Status)

	_, err = m.Update(ctx, pi.ID, IntentParams{Amount: 100})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestMemory_CanceledIgnoredByFind(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	pi, err := m.Create(ctx, IntentParams{Amount: 500, Currency: "usd", Metadata: map[string]string{domain.MetaCartID: "abc"}})
	require.NoError(t, err)
	require.NoError(t, m.Cancel(pi.ID))

	_, err = m.FindByCart(ctx, "abc")
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, m.Confirm("pi_missing"), domain.ErrNotFound)
}

func TestMemory_ReusedKeyWithOtherAmountConflicts(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_, err := m.Create(ctx, IntentParams{Amount: 500, Currency: "usd", IdempotencyKey: "k1"})
	require.NoError(t, err)

	_, err = m.Create(ctx, IntentParams{Amount: 700, Currency: "usd", IdempotencyKey: "k1"})
	require.ErrorIs(t, err, ErrIdempotencyConflict)
	require.Equal(t, 1, m.Creates())
}

func TestWrapStripeErr_Idempotency(t *testing.T) {
	err := wrapStripeErr("create payment intent", &stripe.Error{Type: stripe.ErrorTypeIdempotency, HTTPStatusCode: 400})
	require.ErrorIs(t, err, ErrIdempotencyConflict)
	require.NotErrorIs(t, err, domain.ErrUpstream)
}

func TestWrapStripeErr_Upstream(t *testing.T) {
	err := wrapStripeErr("get payment intent", context.DeadlineExceeded)
	require.ErrorIs(t, err, domain.ErrUpstream)
}
