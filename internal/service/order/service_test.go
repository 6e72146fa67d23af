package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"headless-storefront/internal/commerce"
	"headless-storefront/internal/domain"
	"headless-storefront/internal/payment"
)

type memLedger struct {
	mu       sync.Mutex
	attempts map[string]domain.CheckoutAttempt
}

func newMemLedger() *memLedger {
	return &memLedger{attempts: make(map[string]domain.CheckoutAttempt)}
}

func (l *memLedger) RecordIntent(_ context.Context, a domain.CheckoutAttempt) (*domain.CheckoutAttempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if cur, ok := l.attempts[a.PaymentIntentID]; ok && cur.State != domain.CheckoutIntentCreated {
		return nil, domain.ErrInvalidTransition
	}
	a.State = domain.CheckoutIntentCreated
	l.attempts[a.PaymentIntentID] = a
	return &a, nil
}

func (l *memLedger) Advance(_ context.Context, id string, next domain.CheckoutState, orderID string) (*domain.CheckoutAttempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur, ok := l.attempts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if !cur.State.CanAdvanceTo(next) {
		return nil, domain.ErrInvalidTransition
	}
	cur.State = next
	if orderID != "" {
		cur.OrderID = orderID
	}
	l.attempts[id] = cur
	return &cur, nil
}

func (l *memLedger) Get(_ context.Context, id string) (*domain.CheckoutAttempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur, ok := l.attempts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &cur, nil
}

type stubOrders struct {
	mu       sync.Mutex
	requests []commerce.OrderRequest
	err      error
}

func (s *stubOrders) CreateOrder(_ context.Context, in commerce.OrderRequest) (*commerce.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.requests = append(s.requests, in)
	return &commerce.Order{ID: int64(1000 + len(s.requests)), Status: "processing"}, nil
}

type stubCarts struct {
	deleted []string
	err     error
}

func (s *stubCarts) Delete(_ context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return s.err
}

type fixture struct {
	svc    *Service
	proc   *payment.Memory
	ledger *memLedger
	orders *stubOrders
	carts  *stubCarts
}

func newFixture() *fixture {
	f := &fixture{
		proc:   payment.NewMemory(),
		ledger: newMemLedger(),
		orders: &stubOrders{},
		carts:  &stubCarts{},
	}
	f.svc = New(f.proc, f.orders, f.ledger, f.carts, zerolog.Nop())
	return f
}

// paidIntent creates a succeeded intent for cartID, recorded in the ledger.
func (f *fixture) paidIntent(t *testing.T, cartID string, amount int64, meta map[string]string) string {
	t.Helper()
	ctx := context.Background()
	md := map[string]string{domain.MetaCartID: cartID}
	for k, v := range meta {
		md[k] = v
	}
	pi, err := f.proc.Create(ctx, payment.IntentParams{Amount: amount, Currency: "usd", Metadata: md})
	require.NoError(t, err)
	_, err = f.ledger.RecordIntent(ctx, domain.CheckoutAttempt{PaymentIntentID: pi.ID, CartID: cartID, AmountMinor: amount, Currency: "usd"})
	require.NoError(t, err)
	require.NoError(t, f.proc.Confirm(pi.ID))
	return pi.ID
}

func item(id string, price string, qty int) ItemInput {
	p := domain.MustAmount(price)
	return ItemInput{ID: domain.FlexString(id), Price: &p, Quantity: json.RawMessage(fmt.Sprint(qty))}
}

var testAddress = domain.Address{
	FirstName: "Ada",
	LastName:  "Lovelace",
	Address1:  "1 Analytical Way",
	City:      "London",
	Postcode:  "N1 9GU",
	Country:   "GB",
	Email:     "ada@example.com",
}

func TestSubmit_Success(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	piID := f.paidIntent(t, "cart-1", 4500, map[string]string{
		domain.MetaDiscountCode:    "SAVE10",
		domain.MetaDiscountPercent: "10",
	})

	in := SubmitInput{
		CartID:          "cart-1",
		Items:           []ItemInput{item("42", "25.00", 2)},
		Shipping:        testAddress,
		PaymentIntentID: piID,
	}
	in.Items[0].Variation = map[string]string{"size": "L", "color": "Blue"}
	in.Items[0].VariationID = "101"

	res, err := f.svc.Submit(ctx, in)
	require.NoError(t, err)
	require.Equal(t, "1001", res.OrderID)

	require.Len(t, f.orders.requests, 1)
	req := f.orders.requests[0]
	require.True(t, req.SetPaid)
	require.Equal(t, piID, req.TransactionID)
	require.Equal(t, "ada@example.com", req.Billing.Email)
	require.Equal(t, int64(42), req.LineItems[0].ProductID)
	require.Equal(t, int64(101), req.LineItems[0].VariationID)
	require.Equal(t, []commerce.MetaEntry{{Key: "color", Value: "Blue"}, {Key: "size", Value: "L"}}, req.LineItems[0].MetaData)
	require.Equal(t, []commerce.CouponLine{{Code: "SAVE10"}}, req.CouponLines)

	attempt, err := f.ledger.Get(ctx, piID)
	require.NoError(t, err)
	require.Equal(t, domain.CheckoutOrderSubmitted, attempt.State)
	require.Equal(t, "1001", attempt.OrderID)
	require.Equal(t, []string{"cart-1"}, f.carts.deleted)
}

func TestSubmit_AmountMismatchCreatesNoOrder(t *testing.T) {
	f := newFixture()
	piID := f.paidIntent(t, "cart-1", 4500, nil)

	_, err := f.svc.Submit(context.Background(), SubmitInput{
		CartID:          "cart-1",
		Items:           []ItemInput{item("42", "50.00", 1)},
		Shipping:        testAddress,
		PaymentIntentID: piID,
	})
	require.ErrorIs(t, err, domain.ErrAmountMismatch)
	require.Empty(t, f.orders.requests)
	require.Empty(t, f.carts.deleted)
}

func TestSubmit_OversizedTotalIsMismatch(t *testing.T) {
	f := newFixture()
	piID := f.paidIntent(t, "cart-1", 4500, nil)

	_, err := f.svc.Submit(context.Background(), SubmitInput{
		CartID:          "cart-1",
		Items:           []ItemInput{item("42", "92233720368547758.07", 9999)},
		Shipping:        testAddress,
		PaymentIntentID: piID,
	})
	require.ErrorIs(t, err, domain.ErrAmountMismatch)
	require.Empty(t, f.orders.requests)
}

func TestSubmit_ToleratesOneMinorUnit(t *testing.T) {
	f := newFixture()
	piID := f.paidIntent(t, "cart-1", 1000, nil)

	_, err := f.svc.Submit(context.Background(), SubmitInput{
		CartID:          "cart-1",
		Items:           []ItemInput{item("7", "3.33", 3)},
		Shipping:        testAddress,
		PaymentIntentID: piID,
	})
	require.NoError(t, err)
}

func TestSubmit_PaymentNotSucceeded(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	pi, err := f.proc.Create(ctx, payment.IntentParams{Amount: 5000, Currency: "usd", Metadata: map[string]string{domain.MetaCartID: "cart-1"}})
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, SubmitInput{
		CartID:          "cart-1",
		Items:           []ItemInput{item("42", "50", 1)},
		Shipping:        testAddress,
		PaymentIntentID: pi.ID,
	})
	require.ErrorIs(t, err, domain.ErrPaymentNotConfirmed)
	require.Empty(t, f.orders.requests)

	_, err = f.svc.Submit(ctx, SubmitInput{
		CartID:          "cart-1",
		Items:           []ItemInput{item("42", "50", 1)},
		Shipping:        testAddress,
		PaymentIntentID: "pi_unknown",
	})
	require.ErrorIs(t, err, domain.ErrPaymentNotConfirmed)
}

func TestSubmit_SessionMismatch(t *testing.T) {
	f := newFixture()
	piID := f.paidIntent(t, "cart-owner", 5000, nil)

	_, err := f.svc.Submit(context.Background(), SubmitInput{
		CartID:          "cart-intruder",
		Items:           []ItemInput{item("42", "50", 1)},
		Shipping:        testAddress,
		PaymentIntentID: piID,
	})
	require.ErrorIs(t, err, domain.ErrSessionMismatch)
	require.Empty(t, f.orders.requests)
}

func TestSubmit_SecondCallReturnsSameOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	piID := f.paidIntent(t, "cart-1", 5000, nil)
	in := SubmitInput{
		CartID:          "cart-1",
		Items:           []ItemInput{item("42", "50", 1)},
		Shipping:        testAddress,
		PaymentIntentID: piID,
	}

	first, err := f.svc.Submit(ctx, in)
	require.NoError(t, err)
	second, err := f.svc.Submit(ctx, in)
	require.NoError(t, err)
	require.Equal(t, first.OrderID, second.OrderID)
	require.Len(t, f.orders.requests, 1)
}

func TestSubmit_RecordsMissingLedgerEntry(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	pi, err := f.proc.Create(ctx, payment.IntentParams{Amount: 5000, Currency: "usd", Metadata: map[string]string{domain.MetaCartID: "cart-1"}})
	require.NoError(t, err)
	require.NoError(t, f.proc.Confirm(pi.ID))

	res, err := f.svc.Submit(ctx, SubmitInput{
		CartID:          "cart-1",
		Items:           []ItemInput{item("42", "50", 1)},
		Shipping:        testAddress,
		PaymentIntentID: pi.ID,
	})
	require.NoError(t, err)
	attempt, err := f.ledger.Get(ctx, pi.ID)
	require.NoError(t, err)
	require.Equal(t, res.OrderID, attempt.OrderID)
}

func TestSubmit_BackendFailureLeavesPaymentConfirmed(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.orders.err = fmt.Errorf("%w: status 500", domain.ErrUpstream)
	piID := f.paidIntent(t, "cart-1", 5000, nil)

	_, err := f.svc.Submit(ctx, SubmitInput{
		CartID:          "cart-1",
		Items:           []ItemInput{item("42", "50", 1)},
		Shipping:        testAddress,
		PaymentIntentID: piID,
	})
	require.ErrorIs(t, err, domain.ErrUpstream)
	attempt, err := f.ledger.Get(ctx, piID)
	require.NoError(t, err)
	require.Equal(t, domain.CheckoutPaymentConfirmed, attempt.State)
	require.Empty(t, f.carts.deleted)
}

func TestSubmit_CartDeleteFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.carts.err = errors.New("redis down")
	piID := f.paidIntent(t, "cart-1", 5000, nil)

	res, err := f.svc.Submit(context.Background(), SubmitInput{
		CartID:          "cart-1",
		Items:           []ItemInput{item("42", "50", 1)},
		Shipping:        testAddress,
		PaymentIntentID: piID,
	})
	require.NoError(t, err)
	require.NotEmpty(t, res.OrderID)
}

func TestSubmit_Validation(t *testing.T) {
	f := newFixture()
	noEmail := testAddress
	noEmail.Email = ""
	noCity := testAddress
	noCity.City = ""
	badQty := item("42", "50", 0)

	cases := map[string]SubmitInput{
		"no intent":      {CartID: "c", Items: []ItemInput{item("42", "50", 1)}, Shipping: testAddress},
		"no items":       {CartID: "c", Shipping: testAddress, PaymentIntentID: "pi"},
		"bad product id": {CartID: "c", Items: []ItemInput{item("shirt", "50", 1)}, Shipping: testAddress, PaymentIntentID: "pi"},
		"zero quantity":  {CartID: "c", Items: []ItemInput{badQty}, Shipping: testAddress, PaymentIntentID: "pi"},
		"huge quantity":  {CartID: "c", Items: []ItemInput{item("42", "50", 10000)}, Shipping: testAddress, PaymentIntentID: "pi"},
		"no price":       {CartID: "c", Items: []ItemInput{{ID: "42", Quantity: json.RawMessage("1")}}, Shipping: testAddress, PaymentIntentID: "pi"},
		"no city":        {CartID: "c", Items: []ItemInput{item("42", "50", 1)}, Shipping: noCity, PaymentIntentID: "pi"},
		"no email":       {CartID: "c", Items: []ItemInput{item("42", "50", 1)}, Shipping: noEmail, PaymentIntentID: "pi"},
		"bad billing":    {CartID: "c", Items: []ItemInput{item("42", "50", 1)}, Shipping: testAddress, Billing: &noCity, PaymentIntentID: "pi"},
	}
	for name, in := range cases {
		_, err := f.svc.Submit(context.Background(), in)
		require.ErrorIs(t, err, domain.ErrInvalidInput, name)
	}
}
