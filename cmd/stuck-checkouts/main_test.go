package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"headless-storefront/internal/domain"
)

type stubLister struct {
	attempts []domain.CheckoutAttempt
	err      error
	state    domain.CheckoutState
	cutoff   time.Time
}

func (s *stubLister) ListStuck(_ context.Context, state domain.CheckoutState, olderThan time.Time) ([]domain.CheckoutAttempt, error) {
	s.state = state
	s.cutoff = olderThan
	return s.attempts, s.err
}

var stuckAt = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestReport_Table(t *testing.T) {
	repo := &stubLister{attempts: []domain.CheckoutAttempt{
		{PaymentIntentID: "pi_1", CartID: "cart-1", AmountMinor: 3998, Currency: "usd", State: domain.CheckoutPaymentConfirmed, UpdatedAt: stuckAt},
		{PaymentIntentID: "pi_2", CartID: "cart-2", AmountMinor: 4500, Currency: "usd", DiscountCode: "SAVE10", State: domain.CheckoutPaymentConfirmed, UpdatedAt: stuckAt},
	}}
	cutoff := stuckAt.Add(time.Hour)
	var buf bytes.Buffer

	n, err := report(context.Background(), repo, &buf, cutoff, false)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, domain.CheckoutPaymentConfirmed, repo.state)
	require.Equal(t, cutoff, repo.cutoff)

	out := buf.String()
	require.Contains(t, out, "PAYMENT INTENT")
	require.Contains(t, out, "39.98 usd")
	require.Contains(t, out, "SAVE10")
	require.Contains(t, out, "2026-03-01T12:00:00Z")
	require.True(t, strings.HasSuffix(out, "2 stuck checkout(s) need reconciliation\n"))
}

func TestReport_JSON(t *testing.T) {
	repo := &stubLister{attempts: []domain.CheckoutAttempt{
		{PaymentIntentID: "pi_1", CartID: "cart-1", AmountMinor: 100, Currency: "usd", State: domain.CheckoutPaymentConfirmed},
	}}
	var buf bytes.Buffer
	n, err := report(context.Background(), repo, &buf, time.Now(), true)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	var got domain.CheckoutAttempt
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Equal(t, "pi_1", got.PaymentIntentID)
}

func TestReport_Empty(t *testing.T) {
	var buf bytes.Buffer
	n, err := report(context.Background(), &stubLister{}, &buf, time.Now(), false)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Equal(t, "No stuck checkouts.\n", buf.String())
}

func TestReport_Error(t *testing.T) {
	_, err := report(context.Background(), &stubLister{err: errors.New("db down")}, &bytes.Buffer{}, time.Now(), false)
	require.Error(t, err)
}
