package httpserver

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"headless-storefront/internal/domain"
	cartsvc "headless-storefront/internal/service/cart"
)

func (h *handlers) getCart(c *gin.Context) {
	cart := h.deps.CartSvc.Get(c.Request.Context(), h.cookieToken(c))
	c.JSON(http.StatusOK, cart)
}

func (h *handlers) mutateCart(c *gin.Context) {
	var in cartsvc.MutateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, fmt.Errorf("%w: invalid json: %v", domain.ErrInvalidInput, err))
		return
	}
	cart, tok, err := h.deps.CartSvc.Mutate(c.Request.Context(), h.cookieToken(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	h.deps.Metrics.CartMutation(strings.ToLower(strings.TrimSpace(in.Action)))
	h.setCartCookie(c, tok)
	c.JSON(http.StatusOK, cart)
}

func (h *handlers) deleteCart(c *gin.Context) {
	if err := h.deps.CartSvc.Delete(c.Request.Context(), h.cookieToken(c)); err != nil {
		writeError(c, err)
		return
	}
	h.deps.Metrics.CartMutation("delete")
	h.clearCartCookie(c)
	c.Status(http.StatusNoContent)
}
