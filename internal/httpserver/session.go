package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"headless-storefront/internal/session"
)

// cookieToken reads the cart cookie. A malformed value is treated as absent.
func (h *handlers) cookieToken(c *gin.Context) session.Token {
	raw, err := c.Cookie(h.deps.Cookie.Name)
	if err != nil {
		return ""
	}
	tok, err := session.Parse(raw)
	if err != nil {
		h.logger.Debug().Str("request_id", c.GetString(requestIDKey)).Msg("httpserver: ignoring malformed cart cookie")
		return ""
	}
	return tok
}

// checkoutToken resolves the cart for checkout calls: cookie first, then the
// id carried in the body.
func (h *handlers) checkoutToken(c *gin.Context, bodyCartID string) (session.Token, error) {
	if tok := h.cookieToken(c); !tok.IsZero() {
		return tok, nil
	}
	tok, err := session.Parse(bodyCartID)
	if err != nil {
		return "", err
	}
	if tok.IsZero() {
		return "", session.ErrInvalidToken
	}
	return tok, nil
}

func (h *handlers) setCartCookie(c *gin.Context, tok session.Token) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.deps.Cookie.Name, tok.String(), int(h.deps.CartSvc.TTL().Seconds()), "/", "", h.deps.Cookie.Secure, true)
}

func (h *handlers) clearCartCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.deps.Cookie.Name, "", -1, "/", "", h.deps.Cookie.Secure, true)
}
