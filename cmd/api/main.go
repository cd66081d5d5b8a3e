package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"storefront-checkout/internal/core/auth"
	"storefront-checkout/internal/core/cache"
	"storefront-checkout/internal/core/config"
	"storefront-checkout/internal/core/database"
	"storefront-checkout/internal/core/logger"
	"storefront-checkout/internal/core/server"
	catalogadapter "storefront-checkout/internal/features/catalog/adapters"
	cataloghandler "storefront-checkout/internal/features/catalog/handler"
	catalogservice "storefront-checkout/internal/features/catalog/service"
	checkoutadapter "storefront-checkout/internal/features/checkout/adapters"
	checkouthandler "storefront-checkout/internal/features/checkout/handler"
	checkoutservice "storefront-checkout/internal/features/checkout/service"
	orderadapter "storefront-checkout/internal/features/orders/adapters"
	orderhandler "storefront-checkout/internal/features/orders/handler"
	orderservice "storefront-checkout/internal/features/orders/service"
	pricingadapter "storefront-checkout/internal/features/pricing/adapters"
	pricinghandler "storefront-checkout/internal/features/pricing/handler"
	pricingservice "storefront-checkout/internal/features/pricing/service"
	realtimeadapter "storefront-checkout/internal/features/realtime/adapters"
	realtimehandler "storefront-checkout/internal/features/realtime/handler"
	realtimeservice "storefront-checkout/internal/features/realtime/service"
	shippingadapter "storefront-checkout/internal/features/shipping/adapters"
	shippinghandler "storefront-checkout/internal/features/shipping/handler"
	shippingservice "storefront-checkout/internal/features/shipping/service"

	"go.uber.org/zap"
)

// @title Storefront Checkout API
// @version 1.0
// @description Server-side pricing, checkout, payments, order lifecycle and shipping for the apparel storefront.
// @contact.name API Support
// @contact.email support@storefront.example
// @license.name MIT
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Environment, cfg.LogLevel); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	l := logger.Get()
	l.Info("Application starting",
		zap.String("environment", cfg.Environment),
		zap.String("log_level", cfg.LogLevel),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// System of record
	connectCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.Timeout)
	client, db, err := database.Connect(connectCtx, cfg.Mongo)
	cancel()
	if err != nil {
		l.Fatal("MongoDB connection failed", zap.Error(err))
	}
	mongo := database.NewMongo(client)

	indexCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.Timeout)
	err = database.EnsureIndexes(indexCtx, db)
	cancel()
	if err != nil {
		l.Fatal("Failed to ensure indexes", zap.Error(err))
	}

	// Cache and pub/sub share one Redis client
	redisClient, err := cache.NewRedisClient(cfg.Redis.URL)
	if err != nil {
		l.Fatal("Invalid Redis URL", zap.Error(err))
	}
	redisCache := cache.NewRedisAdapterFromClient(redisClient)
	if err := redisCache.Ping(ctx); err != nil {
		l.Warn("Redis not reachable at startup, realtime and payment intent cache degraded", zap.Error(err))
	}

	// Realtime
	broker := realtimeadapter.NewRedisBroker(redisClient)
	broadcaster := realtimeservice.NewBroadcaster(broker)

	// Catalog
	products := catalogadapter.NewMongoProductRepository(db)
	ledger := catalogservice.NewLedger(products)
	stockService := catalogservice.NewStockService(products, mongo, broadcaster)

	// Pricing
	coupons := pricingadapter.NewMongoCouponRepository(db)
	gifts := pricingadapter.NewMongoGiftRepository(db)
	quoter := pricingservice.NewQuoter(products, coupons, coupons, gifts)

	// Orders
	orderRepo := orderadapter.NewMongoOrderRepository(db)
	orderService := orderservice.NewOrderService(orderRepo, mongo, ledger, broadcaster)

	// Checkout
	checkoutService := checkoutservice.NewCheckoutService(checkoutservice.Dependencies{
		Pricer:   quoter,
		Ledger:   ledger,
		Orders:   orderRepo,
		Tx:       mongo,
		Gateway:  checkoutadapter.NewRazorpayGateway(cfg.Razorpay.BaseURL, cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret),
		Intents:  checkoutadapter.NewRedisIntentStore(redisCache),
		Notifier: broadcaster,
		Config:   cfg.Checkout,
		KeyID:    cfg.Razorpay.KeyID,
	})

	// Shipping
	carrier := shippingadapter.NewShiprocketAdapter(cfg.Shiprocket.BaseURL, cfg.Shiprocket.Email, cfg.Shiprocket.Password, cfg.Shiprocket.PickupLocation)
	shippingService := shippingservice.NewShippingService(carrier, orderService)

	srv := server.New(cfg)
	registerRoutes(srv.App, auth.NewMiddleware(cfg.Auth.JWTSecret), mongo, redisCache, handlers{
		stock:    cataloghandler.NewStockHandler(stockService),
		pricing:  pricinghandler.NewPricingHandler(quoter),
		orders:   orderhandler.NewOrderHandler(orderService),
		checkout: checkouthandler.NewCheckoutHandler(checkoutService),
		shipping: shippinghandler.NewShippingHandler(shippingService, cfg.Shiprocket.WebhookToken),
		events:   realtimehandler.NewEventsHandler(broker),
	})

	go func() {
		if err := srv.Run(); err != nil {
			l.Error("Server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	l.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Error("Server shutdown failed", zap.Error(err))
	}
	if err := redisCache.Close(); err != nil {
		l.Warn("Redis close failed", zap.Error(err))
	}
	if err := mongo.Disconnect(shutdownCtx); err != nil {
		l.Warn("MongoDB disconnect failed", zap.Error(err))
	}
}
