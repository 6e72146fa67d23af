package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"headless-storefront/internal/domain"
	ordersvc "headless-storefront/internal/service/order"
	paymentsvc "headless-storefront/internal/service/payment"
)

type paymentIntentRequest struct {
	Amount     int64  `json:"amount"`
	CartID     string `json:"cartId"`
	CouponCode string `json:"couponCode"`
}

type orderRequest struct {
	Items           []ordersvc.ItemInput `json:"items"`
	Shipping        domain.Address       `json:"shipping"`
	Billing         *domain.Address      `json:"billing"`
	PaymentIntentID string               `json:"paymentIntentId"`
	CartID          string               `json:"cartId"`
}

func (h *handlers) createPaymentIntent(c *gin.Context) {
	var req paymentIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: invalid json: %v", domain.ErrInvalidInput, err))
		return
	}
	tok, err := h.checkoutToken(c, req.CartID)
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.deps.PaymentSvc.EnsureIntent(c.Request.Context(), paymentsvc.EnsureIntentInput{
		CartID:     tok.String(),
		Amount:     req.Amount,
		CouponCode: req.CouponCode,
	})
	if err != nil {
		h.deps.Metrics.CheckoutEvent("intent", outcome(err))
		writeError(c, err)
		return
	}
	h.deps.Metrics.CheckoutEvent("intent", "ok")
	c.JSON(http.StatusOK, res)
}

func (h *handlers) submitOrder(c *gin.Context) {
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, fmt.Errorf("%w: invalid json: %v", domain.ErrInvalidInput, err))
		return
	}
	tok, err := h.checkoutToken(c, req.CartID)
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.deps.OrderSvc.Submit(c.Request.Context(), ordersvc.SubmitInput{
		CartID:          tok.String(),
		Items:           req.Items,
		Shipping:        req.Shipping,
		Billing:         req.Billing,
		PaymentIntentID: req.PaymentIntentID,
	})
	if err != nil {
		h.deps.Metrics.CheckoutEvent("order", outcome(err))
		writeError(c, err)
		return
	}
	h.deps.Metrics.CheckoutEvent("order", "ok")
	h.clearCartCookie(c)
	c.JSON(http.StatusCreated, res)
}

func outcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrAmountMismatch):
		return "amount_mismatch"
	case errors.Is(err, domain.ErrPaymentNotConfirmed):
		return "not_paid"
	case errors.Is(err, domain.ErrPaymentCompleted):
		return "already_paid"
	case errors.Is(err, domain.ErrSessionMismatch):
		return "session_mismatch"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid"
	default:
		return "error"
	}
}

func (h *handlers) confirmMockIntent(c *gin.Context) {
	id := c.Param("id")
	if err := h.deps.MockPayments.Confirm(id); err != nil {
		writeError(c, err)
		return
	}
	h.logger.Info().Str("payment_intent_id", id).Msg("mock payment confirmed")
	c.Status(http.StatusNoContent)
}
