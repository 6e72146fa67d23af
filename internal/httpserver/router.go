package httpserver

import (
	"context"
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"headless-storefront/internal/domain"
	"headless-storefront/internal/metrics"
	cartsvc "headless-storefront/internal/service/cart"
	catalogsvc "headless-storefront/internal/service/catalog"
	ordersvc "headless-storefront/internal/service/order"
	paymentsvc "headless-storefront/internal/service/payment"
	"headless-storefront/internal/session"
)

type cartService interface {
	Get(ctx context.Context, tok session.Token) *domain.Cart
	Mutate(ctx context.Context, tok session.Token, in cartsvc.MutateInput) (*domain.Cart, session.Token, error)
	Delete(ctx context.Context, tok session.Token) error
	TTL() time.Duration
}

type intentService interface {
	EnsureIntent(ctx context.Context, in paymentsvc.EnsureIntentInput) (*paymentsvc.IntentResult, error)
}

type orderService interface {
	Submit(ctx context.Context, in ordersvc.SubmitInput) (*ordersvc.OrderResult, error)
}

type catalogService interface {
	VariantImages(ctx context.Context, productID string) (*catalogsvc.VariantImages, error)
}

// mockPayments settles intents held by the in-memory processor.
type mockPayments interface {
	Confirm(id string) error
}

// CookieConfig controls the cart session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

type Deps struct {
	CartSvc     cartService
	PaymentSvc  intentService
	OrderSvc    orderService
	CatalogSvc  catalogService
	Metrics     *metrics.ServerMetrics
	Readiness   map[string]Pinger
	Cookie      CookieConfig
	CORSOrigins []string

	// MockPayments is set only in local mode; it exposes a confirm route that
	// stands in for the shopper completing payment.
	MockPayments mockPayments
}

func (d Deps) validate() error {
	switch {
	case d.CartSvc == nil:
		return errors.New("cart service required")
	case d.PaymentSvc == nil:
		return errors.New("payment service required")
	case d.OrderSvc == nil:
		return errors.New("order service required")
	case d.CatalogSvc == nil:
		return errors.New("catalog service required")
	case d.Cookie.Name == "":
		return errors.New("cookie name required")
	}
	return nil
}

// buildRouter wires routes for the API.
func buildRouter(logger zerolog.Logger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(requestIDMiddleware(), recoveryMiddleware(logger), loggerMiddleware(logger), metricsMiddleware(deps.Metrics))
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", requestIDHeader},
			ExposeHeaders:    []string{requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Readiness))
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	h := &handlers{deps: deps, logger: logger}

	router.GET("/cart", h.getCart)
	router.POST("/cart", h.mutateCart)
	router.DELETE("/cart", h.deleteCart)

	checkout := router.Group("/checkout")
	checkout.POST("/payment-intent", h.createPaymentIntent)
	checkout.POST("/orders", h.submitOrder)

	router.GET("/catalog/products/:id/variant-images", h.variantImages)

	if deps.MockPayments != nil {
		router.POST("/dev/payment-intents/:id/confirm", h.confirmMockIntent)
	}

	return router, nil
}

type handlers struct {
	deps   Deps
	logger zerolog.Logger
}
