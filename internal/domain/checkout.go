package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// CheckoutState is one stage of a checkout attempt. Stages only move forward.
type CheckoutState string

const (
	CheckoutCartPopulated    CheckoutState = "cart-populated"
	CheckoutIntentCreated    CheckoutState = "intent-created"
	CheckoutPaymentConfirmed CheckoutState = "payment-confirmed"
	CheckoutOrderSubmitted   CheckoutState = "order-submitted"
)

var checkoutPredecessor = map[CheckoutState]CheckoutState{
	CheckoutIntentCreated:    CheckoutCartPopulated,
	CheckoutPaymentConfirmed: CheckoutIntentCreated,
	CheckoutOrderSubmitted:   CheckoutPaymentConfirmed,
}

// Predecessor returns the stage that must precede s.
func (s CheckoutState) Predecessor() (CheckoutState, bool) {
	p, ok := checkoutPredecessor[s]
	return p, ok
}

// CanAdvanceTo reports whether moving from s to next is allowed. Repeating
// the current stage is allowed.
func (s CheckoutState) CanAdvanceTo(next CheckoutState) bool {
	if s == next {
		return true
	}
	p, ok := next.Predecessor()
	return ok && p == s
}

// CheckoutAttempt is the ledger row tracking one payment intent through checkout.
type CheckoutAttempt struct {
	PaymentIntentID string        `json:"paymentIntentId"`
	CartID          string        `json:"cartId"`
	AmountMinor     int64         `json:"amountMinor"`
	Currency        string        `json:"currency"`
	DiscountCode    string        `json:"discountCode,omitempty"`
	State           CheckoutState `json:"state"`
	OrderID         string        `json:"orderId,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`
}

// PaymentIntentStatus mirrors the processor's intent lifecycle values we act on.
type PaymentIntentStatus string

const (
	PaymentIntentSucceeded       PaymentIntentStatus = "succeeded"
	PaymentIntentCanceled        PaymentIntentStatus = "canceled"
	PaymentIntentProcessing      PaymentIntentStatus = "processing"
	PaymentIntentRequiresPayment PaymentIntentStatus = "requires_payment_method"
)

// PaymentIntent is the processor-side record referenced by checkout.
type PaymentIntent struct {
	ID           string
	Amount       int64
	Currency     string
	ClientSecret string
	Status       PaymentIntentStatus
	Metadata     map[string]string
}

// Payment intent metadata keys.
const (
	MetaCartID          = "cart_id"
	MetaDiscountCode    = "discount_code"
	MetaDiscountPercent = "discount_percent"
	MetaDisplayAmount   = "display_amount"
)

// Address is a shipping or billing address sent to the commerce backend.
type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2,omitempty"`
	City      string `json:"city"`
	State     string `json:"state,omitempty"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// Coupon is a discount code as reported by the commerce backend.
type Coupon struct {
	ID             int64       `json:"id"`
	Code           string      `json:"code"`
	DiscountType   string      `json:"discount_type"`
	Amount         Amount      `json:"amount"`
	DateExpires    BackendTime `json:"date_expires"`
	DateExpiresGMT BackendTime `json:"date_expires_gmt"`
	UsageLimit     *int        `json:"usage_limit"`
	UsageCount     int         `json:"usage_count"`
}

// ExpiresAt prefers the GMT expiry. Zero means the coupon never expires.
func (c Coupon) ExpiresAt() time.Time {
	if !c.DateExpiresGMT.IsZero() {
		return c.DateExpiresGMT.Time
	}
	return c.DateExpires.Time
}

// Usable reports whether the coupon is neither expired nor used up at now.
func (c Coupon) Usable(now time.Time) bool {
	if exp := c.ExpiresAt(); !exp.IsZero() && !now.Before(exp) {
		return false
	}
	if c.UsageLimit != nil && *c.UsageLimit > 0 && c.UsageCount >= *c.UsageLimit {
		return false
	}
	return true
}

// BackendTime decodes the commerce backend's zone-less timestamps
// ("2006-01-02T15:04:05") as UTC. null and "" decode to the zero time.
type BackendTime struct {
	time.Time
}

const backendTimeLayout = "2006-01-02T15:04:05"

func (t *BackendTime) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.ParseInLocation(backendTimeLayout, *s, time.UTC)
	if err != nil {
		if parsed, err = time.Parse(time.RFC3339, *s); err != nil {
			return fmt.Errorf("backend time %q: %w", *s, err)
		}
	}
	t.Time = parsed.UTC()
	return nil
}

// CouponPercent is the commerce backend's percentage discount type.
const CouponPercent = "percent"
