package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"headless-storefront/internal/commerce"
	"headless-storefront/internal/config"
	"headless-storefront/internal/db"
	"headless-storefront/internal/httpserver"
	"headless-storefront/internal/logging"
	"headless-storefront/internal/metrics"
	"headless-storefront/internal/payment"
	cartrepo "headless-storefront/internal/repository/cart"
	checkoutrepo "headless-storefront/internal/repository/checkout"
	cartsvc "headless-storefront/internal/service/cart"
	catalogsvc "headless-storefront/internal/service/catalog"
	ordersvc "headless-storefront/internal/service/order"
	paymentsvc "headless-storefront/internal/service/payment"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("api", "info")
		bootLogger.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New("api", cfg.LogLevel)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect to db")
	}
	defer dbpool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("connect to redis")
	}

	var (
		processor payment.Processor
		mock      *payment.Memory
	)
	if cfg.StripeSecretKey == "" {
		logger.Warn().Msg("STRIPE_SECRET_KEY not set, using in-memory payment processor")
		mock = payment.NewMemory()
		processor = mock
	} else {
		processor = payment.NewStripe(cfg.StripeSecretKey, logger.With().Str("client", "stripe").Logger())
	}

	shop := commerce.New(commerce.Config{
		BaseURL:        cfg.CommerceBaseURL,
		ConsumerKey:    cfg.CommerceConsumerKey,
		ConsumerSecret: cfg.CommerceConsumerSecret,
		Timeout:        cfg.CommerceTimeout,
	}, logger.With().Str("client", "commerce").Logger())

	cartRepo := cartrepo.NewRedis(rdb, cfg.CartKeyPrefix, logger)
	checkoutRepo := checkoutrepo.NewPostgres(dbpool, logger)

	cartService := cartsvc.New(cartRepo, cfg.CartTTL, logger)
	paymentService := paymentsvc.New(processor, shop, checkoutRepo, paymentsvc.Config{
		Currency:  cfg.PaymentCurrency,
		MinAmount: cfg.PaymentMinAmount,
	}, logger)
	orderService := ordersvc.New(processor, shop, checkoutRepo, cartRepo, logger)
	catalogService := catalogsvc.New(shop, logger)

	deps := httpserver.Deps{
		CartSvc:    cartService,
		PaymentSvc: paymentService,
		OrderSvc:   orderService,
		CatalogSvc: catalogService,
		Metrics:    metrics.NewServerMetrics(nil),
		Readiness: map[string]httpserver.Pinger{
			"redis":    cartRepo,
			"postgres": checkoutRepo,
		},
		Cookie: httpserver.CookieConfig{
			Name:   cfg.CartCookieName,
			Secure: cfg.CookieSecure,
		},
		CORSOrigins: cfg.CORSAllowedOrigins,
	}
	if mock != nil {
		deps.MockPayments = mock
	}
	srv, err := httpserver.New(cfg.HTTPAddr, logger, deps)
	if err != nil {
		logger.Fatal().Err(err).Msg("init server")
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("starting http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-serverErr:
		logger.Error().Err(err).Msg("server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	} else {
		logger.Info().Msg("server stopped")
	}
}
